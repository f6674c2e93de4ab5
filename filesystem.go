// Package fat implements a read/write FAT12/16/32 filesystem library over
// an abstract block device, suited to embedded and bootloader use: no
// dynamic filesystem-wide state beyond what's needed for the volume
// currently mounted, no background goroutines, and every operation
// synchronous and single-threaded.
package fat

import (
	"io"

	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/errors"
	"github.com/mufs/fat/fatcore"
)

// Filesystem is a mounted FAT volume.
type Filesystem struct {
	core *fatcore.FS
}

// Mount parses the boot sector of dev and returns a mounted Filesystem.
// Mount fails with the same validation errors fatcore.Open would.
func Mount(dev blockdev.BlockDevice) (*Filesystem, error) {
	core, err := fatcore.Open(dev)
	if err != nil {
		return nil, err
	}
	return &Filesystem{core: core}, nil
}

// SubType reports which of FAT12, FAT16, or FAT32 this volume uses.
func (fs *Filesystem) SubType() fatcore.SubType { return fs.core.SubType() }

// VolumeLabel returns the volume's label, or an empty string if it never
// had one set.
func (fs *Filesystem) VolumeLabel() string { return fs.core.VolumeLabel() }

// Open resolves path to a file or directory and returns a handle to it.
// Path components are matched case-insensitively, as FAT requires.
func (fs *Filesystem) Open(path string) (*Node, error) {
	n, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	return &Node{fs: fs, node: n}, nil
}

// ReadDir lists the children of the directory at path.
func (fs *Filesystem) ReadDir(path string) ([]DirEntry, error) {
	dirNode, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !dirNode.Directory {
		return nil, errors.ErrNotDirectory
	}

	if err := fs.core.Rewind(dirNode); err != nil {
		return nil, err
	}

	var entries []DirEntry
	for {
		child, err := fs.core.ReadDir(dirNode)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if child.Name == "." || child.Name == ".." {
			continue
		}
		entries = append(entries, DirEntry{node: child})
	}
	return entries, nil
}

// Mkdir would create a new, empty directory at path, but directory
// creation is declared by this filesystem family and never implemented:
// it always fails with errors.ErrOperationUnavailable once path's parent
// resolves. See fatcore.CreateDir.
func (fs *Filesystem) Mkdir(path string) (*Node, error) {
	parentPath, name := splitPath(path)
	parent, err := fs.resolve(parentPath)
	if err != nil {
		return nil, err
	}
	n, err := fs.core.CreateDir(parent, name)
	if err != nil {
		return nil, err
	}
	return &Node{fs: fs, node: n}, nil
}

// Create would create a new, empty file at path, but file creation is
// declared by this filesystem family and never implemented: it always
// fails with errors.ErrOperationUnavailable once path's parent resolves.
// See fatcore.CreateFile.
func (fs *Filesystem) Create(path string) (*Node, error) {
	parentPath, name := splitPath(path)
	parent, err := fs.resolve(parentPath)
	if err != nil {
		return nil, err
	}
	n, err := fs.core.CreateFile(parent, name)
	if err != nil {
		return nil, err
	}
	return &Node{fs: fs, node: n}, nil
}

// Remove would delete the file or empty directory at path, but removal is
// declared by this filesystem family and never implemented: it always
// fails with errors.ErrOperationUnavailable once path's parent resolves.
// See fatcore.Remove.
func (fs *Filesystem) Remove(path string) error {
	parentPath, name := splitPath(path)
	parent, err := fs.resolve(parentPath)
	if err != nil {
		return err
	}
	return fs.core.Remove(parent, name)
}

// Rename would change the name of the file or directory at path in place,
// but renaming is declared by this filesystem family and never
// implemented: it always fails with errors.ErrOperationUnavailable once
// path resolves. See fatcore.Rename.
func (fs *Filesystem) Rename(path, newName string) error {
	node, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return fs.core.Rename(node, newName)
}

// Move would relocate the file or directory at path to newPath, but
// moving is declared by this filesystem family and never implemented: it
// always fails with errors.ErrOperationUnavailable once path resolves.
// See fatcore.Move.
func (fs *Filesystem) Move(path, newPath string) error {
	node, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return fs.core.Move(node, newPath)
}
