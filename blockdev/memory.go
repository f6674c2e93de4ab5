package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/mufs/fat/errors"
)

// MemoryBackend presents an in-memory byte slice as a BlockDevice: a
// writable variant wraps the slice directly, a read-only variant refuses
// every Write.
type MemoryBackend struct {
	stream     io.ReadWriteSeeker
	blockSize  uint
	blockCount uint
	writable   bool
	pos        uint
}

// NewMemoryBackend wraps storage as a writable BlockDevice with the given
// block size. len(storage) must be a multiple of blockSize; any remainder is
// inaccessible.
func NewMemoryBackend(storage []byte, blockSize uint) *MemoryBackend {
	return &MemoryBackend{
		stream:     bytesextra.NewReadWriteSeeker(storage),
		blockSize:  blockSize,
		blockCount: uint(len(storage)) / blockSize,
		writable:   true,
	}
}

// NewReadOnlyMemoryBackend wraps storage as a read-only BlockDevice. Every
// call to Write returns errors.ErrNotWritable.
func NewReadOnlyMemoryBackend(storage []byte, blockSize uint) *MemoryBackend {
	dev := NewMemoryBackend(storage, blockSize)
	dev.writable = false
	return dev
}

func (dev *MemoryBackend) BlockSize() uint  { return dev.blockSize }
func (dev *MemoryBackend) BlockCount() uint { return dev.blockCount }
func (dev *MemoryBackend) Writable() bool   { return dev.writable }
func (dev *MemoryBackend) Pos() uint        { return dev.pos }

func (dev *MemoryBackend) Seek(lba uint) error {
	if err := checkBounds(lba, dev.blockCount); err != nil {
		return err
	}
	if _, err := dev.stream.Seek(int64(lba)*int64(dev.blockSize), io.SeekStart); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	dev.pos = lba
	return nil
}

func (dev *MemoryBackend) Rewind() error {
	return dev.Seek(0)
}

func (dev *MemoryBackend) Read(buffer []byte) error {
	if err := checkBounds(dev.pos, dev.blockCount); err != nil {
		return err
	}
	if _, err := io.ReadFull(dev.stream, buffer[:dev.blockSize]); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	dev.pos++
	return nil
}

func (dev *MemoryBackend) Write(buffer []byte) error {
	if err := checkBounds(dev.pos, dev.blockCount); err != nil {
		return err
	}
	if !dev.writable {
		return errors.ErrNotWritable
	}
	if _, err := dev.stream.Write(buffer[:dev.blockSize]); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	dev.pos++
	return nil
}
