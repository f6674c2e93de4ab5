// Package errors defines the sentinel error values used across this module's
// block device and filesystem layers.
package errors

import (
	"fmt"
)

// Errno is a comparable sentinel error. Callers should use errors.Is against
// these values rather than type assertions. WithMessage returns a distinct
// concrete type that still unwraps to the original sentinel. WrapError
// unwraps to the wrapped cause instead: errors.Is matches that cause, not
// the sentinel, whose text appears only in the message.
type Errno string

func (e Errno) Error() string {
	return string(e)
}

func (e Errno) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), message),
		originalError: e,
	}
}

func (e Errno) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), err.Error()),
		originalError: err,
	}
}

// Block device layer.
const (
	// ErrIO is a generic backend I/O failure.
	ErrIO = Errno("i/o error")
	// ErrNotWritable is returned when a write is attempted against a
	// read-only backend.
	ErrNotWritable = Errno("medium is not writable")
	// ErrOutOfBounds is returned when an operation addresses an LBA at or
	// past the device's block count.
	ErrOutOfBounds = Errno("block address out of bounds")
)

// Filesystem layer.
const (
	// ErrNoSpace is returned when no free cluster is available to extend a
	// chain or satisfy a new allocation.
	ErrNoSpace = Errno("no space left on device")
	// ErrNotFile is returned when a file-only operation is attempted on a
	// directory node.
	ErrNotFile = Errno("is a directory")
	// ErrNotDirectory is returned when a directory-only operation is
	// attempted on a file node, or a path component that isn't a directory
	// is traversed.
	ErrNotDirectory = Errno("not a directory")
	// ErrObjectNotFound is returned when a path component has no matching
	// directory entry.
	ErrObjectNotFound = Errno("no such file or directory")
	// ErrOperationUnavailable is returned by operations this filesystem
	// family does not support (symlinks, hard links, renaming across
	// directories that would require LFN rewriting, and so on).
	ErrOperationUnavailable = Errno("operation not available")
	// ErrCorrupted is returned when boot sector or directory structures
	// fail validation.
	ErrCorrupted = Errno("filesystem structure is corrupted")
	// ErrInvalidArgument is returned for malformed caller input: empty
	// names, names with disallowed characters, negative sizes, etc.
	ErrInvalidArgument = Errno("invalid argument")
	// ErrNameTooLong is returned when a name component exceeds what an 8.3
	// directory entry can hold.
	ErrNameTooLong = Errno("name too long")
	// ErrExists is returned when creating an object at a path that's
	// already occupied.
	ErrExists = Errno("file exists")
	// ErrDirectoryNotEmpty is returned when removing a non-empty directory.
	ErrDirectoryNotEmpty = Errno("directory not empty")
	// ErrReadOnlyFileSystem is returned when a mutating operation is
	// attempted against a filesystem opened over a read-only backend.
	ErrReadOnlyFileSystem = Errno("read-only file system")
)
