package fat_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mufs/fat"
	"github.com/mufs/fat/errors"
	"github.com/mufs/fat/internal/fattest"
)

func mountScenario(t *testing.T) *fat.Filesystem {
	t.Helper()
	dev, err := fattest.ScenarioDevice()
	require.NoError(t, err)
	fs, err := fat.Mount(dev)
	require.NoError(t, err)
	return fs
}

func TestMount_ReportsSubTypeAndLabel(t *testing.T) {
	fs := mountScenario(t)
	assert.Equal(t, "FAT12", fs.SubType().String())
	assert.Equal(t, "MUSTORETEST", fs.VolumeLabel())
}

func TestOpen_NestedPathIsCaseInsensitive(t *testing.T) {
	fs := mountScenario(t)

	node, err := fs.Open("/dir2/subsub/zstuff.txt")
	require.NoError(t, err)
	assert.Equal(t, "ZSTUFF.TXT", node.Name())
	assert.False(t, node.IsDir())
}

func TestOpen_MissingPathFails(t *testing.T) {
	fs := mountScenario(t)

	_, err := fs.Open("/nope.txt")
	assert.ErrorIs(t, err, errors.ErrObjectNotFound)
}

func TestReadDir_SkipsDotEntries(t *testing.T) {
	fs := mountScenario(t)

	entries, err := fs.ReadDir("/dir2/subsub")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ZSTUFF.TXT", entries[0].Name())
}

func TestCreate_IsUnavailable(t *testing.T) {
	fs := mountScenario(t)

	_, err := fs.Create("/dir1/new.txt")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)
}

func TestMkdir_IsUnavailable(t *testing.T) {
	fs := mountScenario(t)

	_, err := fs.Mkdir("/dir1/newdir")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)
}

func TestCreate_MissingParentStillReportsNotFound(t *testing.T) {
	fs := mountScenario(t)

	_, err := fs.Create("/nope/new.txt")
	assert.ErrorIs(t, err, errors.ErrObjectNotFound)
}

func TestRemove_IsUnavailable(t *testing.T) {
	fs := mountScenario(t)
	err := fs.Remove("/test.txt")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)
}

func TestRename_IsUnavailable(t *testing.T) {
	fs := mountScenario(t)
	err := fs.Rename("/test.txt", "renamed.txt")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)
}

func TestMove_IsUnavailable(t *testing.T) {
	fs := mountScenario(t)
	err := fs.Move("/test.txt", "/dir1/test.txt")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)
}

func TestNode_SeekThenRead(t *testing.T) {
	fs := mountScenario(t)

	node, err := fs.Open("/test.txt")
	require.NoError(t, err)

	require.NoError(t, node.Seek(6))
	buf := make([]byte, 5)
	n, err := node.Read(buf)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, "world", string(buf[:n]))
}

func TestLargeFAT32Root_EnumeratesAllEntries(t *testing.T) {
	dev, err := fattest.LargeFAT32RootDevice()
	require.NoError(t, err)
	fs, err := fat.Mount(dev)
	require.NoError(t, err)

	entries, err := fs.ReadDir("/")
	require.NoError(t, err)
	assert.Len(t, entries, 201)
}
