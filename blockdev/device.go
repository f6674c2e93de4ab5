// Package blockdev defines the abstract block device contract this module's
// filesystem layer is built on, and a handful of concrete backends.
//
// A BlockDevice looks like a disk: a fixed number of fixed-size blocks,
// addressed by LBA, with a cursor that advances by one block on every
// successful read or write. It intentionally does not expose anything
// resembling a byte-oriented stream; the FAT layer above it only ever reads
// and writes whole blocks.
package blockdev

import (
	"github.com/mufs/fat/errors"
)

// BlockDevice is the abstraction every filesystem component in this module
// is built against. Implementations are not required to be safe for
// concurrent use.
type BlockDevice interface {
	// BlockSize returns the size of a single block, in bytes.
	BlockSize() uint

	// BlockCount returns the number of addressable blocks.
	BlockCount() uint

	// Writable reports whether Write is expected to succeed.
	Writable() bool

	// Pos returns the current cursor position, as an LBA.
	Pos() uint

	// Seek moves the cursor to the given LBA.
	//
	// Returns errors.ErrOutOfBounds if lba >= BlockCount().
	Seek(lba uint) error

	// Rewind moves the cursor back to LBA 0. Equivalent to Seek(0).
	Rewind() error

	// Read reads a single block at the current cursor position into buffer,
	// which must be at least BlockSize() bytes long, then advances the
	// cursor by one block.
	//
	// Returns errors.ErrOutOfBounds if the cursor is at or past
	// BlockCount().
	Read(buffer []byte) error

	// Write writes a single block from buffer, which must be at least
	// BlockSize() bytes long, to the current cursor position, then advances
	// the cursor by one block.
	//
	// Returns errors.ErrNotWritable if Writable() is false, or
	// errors.ErrOutOfBounds if the cursor is at or past BlockCount().
	Write(buffer []byte) error
}

// ReadAt is a convenience wrapper equivalent to Seek(lba) followed by
// Read(buffer). It returns the first error encountered, if any.
func ReadAt(dev BlockDevice, lba uint, buffer []byte) error {
	if err := dev.Seek(lba); err != nil {
		return err
	}
	return dev.Read(buffer)
}

// WriteAt is a convenience wrapper equivalent to Seek(lba) followed by
// Write(buffer). It returns the first error encountered, if any.
func WriteAt(dev BlockDevice, lba uint, buffer []byte) error {
	if err := dev.Seek(lba); err != nil {
		return err
	}
	return dev.Write(buffer)
}

// checkBounds is shared bounds-checking logic for backends keeping their own
// blockCount/writable bookkeeping.
func checkBounds(lba, blockCount uint) error {
	if lba >= blockCount {
		return errors.ErrOutOfBounds
	}
	return nil
}
