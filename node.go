package fat

import (
	"github.com/mufs/fat/fatcore"
)

// Node is a handle to a file or directory resolved from a path. Reads and
// writes advance a position cursor carried on the node itself, rather than
// a separate stream object.
type Node struct {
	fs   *Filesystem
	node *fatcore.Node
}

// Name returns the node's base name ("/" for the root).
func (n *Node) Name() string { return n.node.Name }

// IsDir reports whether this node is a directory.
func (n *Node) IsDir() bool { return n.node.Directory }

// Size returns the file's size in bytes. Meaningless for directories.
func (n *Node) Size() uint { return n.node.Size }

// Read reads up to len(buffer) bytes starting at the node's current
// position, returning io.EOF once the file's size is reached.
func (n *Node) Read(buffer []byte) (int, error) {
	return n.fs.core.Read(n.node, buffer)
}

// Write writes len(buffer) bytes starting at the node's current position,
// growing the file (and allocating clusters) as needed.
func (n *Node) Write(buffer []byte) (int, error) {
	return n.fs.core.Write(n.node, buffer)
}

// Truncate changes the file's size, freeing trailing clusters if it
// shrinks.
func (n *Node) Truncate(newSize uint) error {
	return n.fs.core.Truncate(n.node, newSize)
}

// Rewind moves the node's position back to its start.
func (n *Node) Rewind() error {
	return n.fs.core.Rewind(n.node)
}

// Seek moves the node's position to an arbitrary offset within the file, no
// greater than its current size.
func (n *Node) Seek(offset uint) error {
	return n.fs.core.Seek(n.node, offset)
}

// DirEntry is one entry returned by Filesystem.ReadDir.
type DirEntry struct {
	node *fatcore.Node
}

func (e DirEntry) Name() string { return e.node.Name }
func (e DirEntry) IsDir() bool  { return e.node.Directory }
func (e DirEntry) Size() uint   { return e.node.Size }

// Open returns a handle to this entry for reading, writing, or further
// directory traversal.
func (e DirEntry) Open(fs *Filesystem) *Node {
	return &Node{fs: fs, node: e.node}
}
