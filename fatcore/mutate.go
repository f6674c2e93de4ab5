package fatcore

import (
	"github.com/mufs/fat/errors"
)

// Directory mutation. removeNode, renameNode, moveNode, mkdir, and mkfile
// are part of this node family's interface, but the reference driver this
// package is grounded on never implements any of the five: every one of its
// concrete bodies returns FS_ERR_OPER_UNAVAILABLE without touching its
// arguments. This package carries the same five operations forward as
// stubs rather than building directory-entry mutation the driver it's
// modeled on doesn't have.

// CreateFile would create a new, empty file named name inside dir.
func (fs *FS) CreateFile(dir *Node, name string) (*Node, error) {
	return &Node{fs: fs}, errors.ErrOperationUnavailable
}

// CreateDir would create a new, empty subdirectory named name inside dir.
func (fs *FS) CreateDir(dir *Node, name string) (*Node, error) {
	return &Node{fs: fs}, errors.ErrOperationUnavailable
}

// Remove would delete the directory entry named name inside dir.
func (fs *FS) Remove(dir *Node, name string) error {
	return errors.ErrOperationUnavailable
}

// Rename would change node's name in place.
func (fs *FS) Rename(node *Node, newName string) error {
	return errors.ErrOperationUnavailable
}

// Move would relocate node to newPath.
func (fs *FS) Move(node *Node, newPath string) error {
	return errors.ErrOperationUnavailable
}
