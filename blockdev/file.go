package blockdev

import (
	"io"
	"os"

	"github.com/mufs/fat/errors"
)

// FileBackend presents a single file as a BlockDevice backed by an os.File.
// startOffset skips over leading bytes in the file (a partition table or
// other volume sharing the same image).
//
// Failure of the backing medium is sticky: once a Seek, Read, or Write
// syscall fails, the file handle is closed and every subsequent operation
// returns errors.ErrIO without retrying, rather than attempting the
// syscall again against a handle that already proved unreliable.
type FileBackend struct {
	file        *os.File
	blockSize   uint
	blockCount  uint
	startOffset int64
	writable    bool
	pos         uint
	failed      bool
}

// OpenFileBackend opens path as a BlockDevice with the given block size,
// computing the block count from the file's size minus startOffset. The
// file is opened read-write unless writable is false.
func OpenFileBackend(path string, blockSize uint, startOffset int64, writable bool) (*FileBackend, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.ErrIO.WrapError(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.ErrIO.WrapError(err)
	}

	available := info.Size() - startOffset
	if available < 0 {
		available = 0
	}

	return &FileBackend{
		file:        file,
		blockSize:   blockSize,
		blockCount:  uint(available) / blockSize,
		startOffset: startOffset,
		writable:    writable,
	}, nil
}

func (dev *FileBackend) BlockSize() uint  { return dev.blockSize }
func (dev *FileBackend) BlockCount() uint { return dev.blockCount }
func (dev *FileBackend) Writable() bool   { return dev.writable }
func (dev *FileBackend) Pos() uint        { return dev.pos }

func (dev *FileBackend) Close() error {
	return dev.file.Close()
}

// fail poisons the backend after an I/O failure: the handle is closed so
// every later call short-circuits through the failed check instead of
// retrying a file descriptor that already proved unreliable.
func (dev *FileBackend) fail(err error) error {
	dev.failed = true
	dev.file.Close()
	return err
}

func (dev *FileBackend) Seek(lba uint) error {
	if dev.failed {
		return errors.ErrIO
	}
	if err := checkBounds(lba, dev.blockCount); err != nil {
		return err
	}
	offset := dev.startOffset + int64(lba)*int64(dev.blockSize)
	if _, err := dev.file.Seek(offset, io.SeekStart); err != nil {
		return dev.fail(errors.ErrIO.WrapError(err))
	}
	dev.pos = lba
	return nil
}

func (dev *FileBackend) Rewind() error {
	return dev.Seek(0)
}

func (dev *FileBackend) Read(buffer []byte) error {
	if dev.failed {
		return errors.ErrIO
	}
	if err := checkBounds(dev.pos, dev.blockCount); err != nil {
		return err
	}
	if _, err := io.ReadFull(dev.file, buffer[:dev.blockSize]); err != nil {
		return dev.fail(errors.ErrIO.WrapError(err))
	}
	dev.pos++
	return nil
}

func (dev *FileBackend) Write(buffer []byte) error {
	if dev.failed {
		return errors.ErrIO
	}
	if err := checkBounds(dev.pos, dev.blockCount); err != nil {
		return err
	}
	if !dev.writable {
		return errors.ErrNotWritable
	}
	if _, err := dev.file.Write(buffer[:dev.blockSize]); err != nil {
		return dev.fail(errors.ErrIO.WrapError(err))
	}
	dev.pos++
	return nil
}
