package blockdev

import (
	"github.com/mufs/fat/errors"
)

// ScalingBackend presents a larger logical block size over an inner
// BlockDevice with a smaller physical block size. A single logical
// Read/Write issues `scale` sequential inner operations, where
// scale = logicalBlockSize / inner.BlockSize().
//
// If one of the inner operations that make up a logical block fails
// partway through, ScalingBackend makes a best-effort attempt to restore
// the inner device's cursor to where the previous logical operation left
// it before returning the error, rather than leaving it mid-scaled-block.
type ScalingBackend struct {
	inner BlockDevice
	scale uint
	pos   uint
}

// NewScalingBackend wraps inner with a logical block size of
// logicalBlockSize, which must be a positive multiple of
// inner.BlockSize().
func NewScalingBackend(inner BlockDevice, logicalBlockSize uint) (*ScalingBackend, error) {
	innerSize := inner.BlockSize()
	if innerSize == 0 || logicalBlockSize%innerSize != 0 {
		return nil, errors.ErrInvalidArgument.WithMessage(
			"logical block size must be a multiple of the inner block size")
	}

	scale := logicalBlockSize / innerSize
	dev := &ScalingBackend{
		inner: inner,
		scale: scale,
	}
	if err := inner.Rewind(); err != nil {
		return nil, err
	}
	return dev, nil
}

func (dev *ScalingBackend) BlockSize() uint {
	return dev.inner.BlockSize() * dev.scale
}

func (dev *ScalingBackend) BlockCount() uint {
	return dev.inner.BlockCount() / dev.scale
}

func (dev *ScalingBackend) Writable() bool {
	return dev.inner.Writable()
}

func (dev *ScalingBackend) Pos() uint {
	return dev.pos
}

func (dev *ScalingBackend) Seek(lba uint) error {
	if err := checkBounds(lba, dev.BlockCount()); err != nil {
		return err
	}
	if err := dev.inner.Seek(lba * dev.scale); err != nil {
		return err
	}
	dev.pos = lba
	return nil
}

func (dev *ScalingBackend) Rewind() error {
	return dev.Seek(0)
}

func (dev *ScalingBackend) Read(buffer []byte) error {
	if err := checkBounds(dev.pos, dev.BlockCount()); err != nil {
		return err
	}

	innerSize := dev.inner.BlockSize()
	for i := uint(0); i < dev.scale; i++ {
		chunk := buffer[i*innerSize : (i+1)*innerSize]
		if err := dev.inner.Read(chunk); err != nil {
			dev.inner.Seek(dev.pos * dev.scale) // best-effort cursor restore
			return err
		}
	}
	dev.pos++
	return nil
}

func (dev *ScalingBackend) Write(buffer []byte) error {
	if err := checkBounds(dev.pos, dev.BlockCount()); err != nil {
		return err
	}
	if !dev.inner.Writable() {
		return errors.ErrNotWritable
	}

	innerSize := dev.inner.BlockSize()
	for i := uint(0); i < dev.scale; i++ {
		chunk := buffer[i*innerSize : (i+1)*innerSize]
		if err := dev.inner.Write(chunk); err != nil {
			dev.inner.Seek(dev.pos * dev.scale) // best-effort cursor restore
			return err
		}
	}
	dev.pos++
	return nil
}
