package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/errors"
)

func newTestDevice(t *testing.T, blockCount uint) *blockdev.MemoryBackend {
	t.Helper()
	storage := make([]byte, blockCount*512)
	return blockdev.NewMemoryBackend(storage, 512)
}

func TestMemoryBackend_WriteThenRead(t *testing.T) {
	dev := newTestDevice(t, 4)

	want := bytes(512, 0xAB)
	require.NoError(t, blockdev.WriteAt(dev, 2, want))

	got := make([]byte, 512)
	require.NoError(t, blockdev.ReadAt(dev, 2, got))
	assert.Equal(t, want, got)
}

func TestMemoryBackend_SeekThenReadAdvancesCursor(t *testing.T) {
	dev := newTestDevice(t, 4)

	require.NoError(t, dev.Seek(1))
	require.NoError(t, dev.Read(make([]byte, 512)))
	assert.EqualValues(t, 2, dev.Pos())
}

func TestMemoryBackend_ReadPastEndFails(t *testing.T) {
	dev := newTestDevice(t, 1)
	require.NoError(t, dev.Seek(0))
	require.NoError(t, dev.Read(make([]byte, 512)))

	err := dev.Read(make([]byte, 512))
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
}

func TestReadOnlyMemoryBackend_RejectsWrite(t *testing.T) {
	storage := make([]byte, 512)
	dev := blockdev.NewReadOnlyMemoryBackend(storage, 512)

	err := blockdev.WriteAt(dev, 0, bytes(512, 1))
	assert.ErrorIs(t, err, errors.ErrNotWritable)
}

func TestRewind_IsIdempotent(t *testing.T) {
	dev := newTestDevice(t, 4)
	require.NoError(t, dev.Seek(3))
	require.NoError(t, dev.Rewind())
	require.NoError(t, dev.Rewind())
	assert.EqualValues(t, 0, dev.Pos())
}

func bytes(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}
