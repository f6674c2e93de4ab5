package blockdev_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/errors"
)

func newTestFileBackend(t *testing.T, blockCount uint) *blockdev.FileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, blockCount*512), 0o600))

	dev, err := blockdev.OpenFileBackend(path, 512, 0, true)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestFileBackend_SeekThenReadRoundTrips(t *testing.T) {
	dev := newTestFileBackend(t, 4)

	want := bytes(512, 0xCD)
	require.NoError(t, blockdev.WriteAt(dev, 1, want))

	got := make([]byte, 512)
	require.NoError(t, blockdev.ReadAt(dev, 1, got))
	assert.Equal(t, want, got)
}

func TestFileBackend_FailureIsSticky(t *testing.T) {
	dev := newTestFileBackend(t, 2)

	// Close the underlying file out from under the backend, simulating an
	// I/O failure on the next syscall.
	require.NoError(t, dev.Close())

	// The failing call itself wraps the underlying cause (matching the
	// rest of this package's WrapError convention); every later call short-
	// circuits on the remembered failure with the bare sentinel instead of
	// attempting the syscall again.
	require.Error(t, dev.Read(make([]byte, 512)))

	assert.ErrorIs(t, dev.Read(make([]byte, 512)), errors.ErrIO)
	assert.ErrorIs(t, dev.Read(make([]byte, 512)), errors.ErrIO)
	assert.ErrorIs(t, dev.Write(make([]byte, 512)), errors.ErrIO)
	assert.ErrorIs(t, dev.Seek(0), errors.ErrIO)
}
