package fatcore_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mufs/fat/errors"
	"github.com/mufs/fat/fatcore"
	"github.com/mufs/fat/internal/fattest"
)

func TestOpen_FAT12Mount(t *testing.T) {
	fs, err := fattest.MountScenario()
	require.NoError(t, err)

	assert.Equal(t, fatcore.SubTypeFAT12, fs.SubType())
	assert.Equal(t, "MUSTORETEST", fs.VolumeLabel())
}

func TestReadDir_RootListing(t *testing.T) {
	fs, err := fattest.MountScenario()
	require.NoError(t, err)

	root := fs.Root()
	require.NoError(t, fs.Rewind(root))

	seen := map[string]bool{}
	for {
		child, err := fs.ReadDir(root)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seen[child.Name] = true
	}

	assert.ElementsMatch(t,
		[]string{"DIR1", "DIR2", "TEST.TXT", "HUGE.TXT", "WRITE.TXT"},
		keys(seen))

	_, err = fs.ReadDir(root)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRead_SmallFileInChunks(t *testing.T) {
	fs, err := fattest.MountScenario()
	require.NoError(t, err)

	testTxt := findChild(t, fs, fs.Root(), "TEST.TXT")

	var chunks []string
	buf := make([]byte, 5)
	for {
		n, err := fs.Read(testTxt, buf)
		if n > 0 {
			chunks = append(chunks, string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Hello", " worl", "d\n"}, chunks)
}

func TestWriteAndTruncate(t *testing.T) {
	fs, err := fattest.MountScenario()
	require.NoError(t, err)

	file := findChild(t, fs, fs.Root(), "WRITE.TXT")

	require.NoError(t, fs.Seek(file, 6))
	require.NoError(t, fs.Truncate(file, 6))
	assert.EqualValues(t, 6, file.Size)

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, fs.Seek(file, 6))
	n, err := fs.Write(file, payload)
	require.NoError(t, err)
	assert.Equal(t, 4096, n)
	assert.EqualValues(t, 4102, file.Size)

	require.NoError(t, fs.Seek(file, 2))
	n, err = fs.Write(file, []byte("E"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	contents := make([]byte, file.Size)
	require.NoError(t, fs.Rewind(file))
	total := 0
	for total < len(contents) {
		n, err := fs.Read(file, contents[total:])
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, "STERT\n", string(contents[:6]))
	assert.Equal(t, byte('E'), contents[2])
	assert.Equal(t, payload, contents[6:])
}

func TestLargeFAT32Root_NoDuplicates(t *testing.T) {
	fs, err := fattest.MountLargeFAT32Root()
	require.NoError(t, err)
	assert.Equal(t, fatcore.SubTypeFAT32, fs.SubType())

	root := fs.Root()
	require.NoError(t, fs.Rewind(root))

	seen := map[string]bool{}
	dirCount := 0
	for {
		child, err := fs.ReadDir(root)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		require.False(t, seen[child.Name], "duplicate entry %q", child.Name)
		seen[child.Name] = true
		if child.Directory {
			dirCount++
		}
	}

	assert.Equal(t, 200, dirCount)
	assert.True(t, seen["GENFILES.PL"])
	assert.True(t, seen["RTDIR001"])
	assert.True(t, seen["RTDIR200"])
}

func TestCreateFileCreateDirRemoveRenameMove_AreUnavailable(t *testing.T) {
	fs, err := fattest.MountScenario()
	require.NoError(t, err)

	root := fs.Root()

	_, err = fs.CreateFile(root, "NEW.TXT")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)

	_, err = fs.CreateDir(root, "NEWDIR")
	assert.ErrorIs(t, err, errors.ErrOperationUnavailable)

	testTxt := findChild(t, fs, root, "TEST.TXT")

	assert.ErrorIs(t, fs.Remove(root, "TEST.TXT"), errors.ErrOperationUnavailable)
	assert.ErrorIs(t, fs.Rename(testTxt, "RENAMED.TXT"), errors.ErrOperationUnavailable)
	assert.ErrorIs(t, fs.Move(testTxt, "/DIR1/TEST.TXT"), errors.ErrOperationUnavailable)
}

func findChild(t *testing.T, fs *fatcore.FS, dir *fatcore.Node, name string) *fatcore.Node {
	t.Helper()
	require.NoError(t, fs.Rewind(dir))
	for {
		child, err := fs.ReadDir(dir)
		require.NoError(t, err)
		if child.Name == name {
			return child
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
