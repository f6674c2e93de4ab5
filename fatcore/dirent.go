package fatcore

import (
	"encoding/binary"
	"io"

	"github.com/noxer/bytewriter"

	"github.com/mufs/fat/errors"
)

// Directory entry attribute bits.
const (
	AttrReadOnly   = 0x01
	AttrHidden     = 0x02
	AttrSystem     = 0x04
	AttrVolumeID   = 0x08
	AttrDirectory  = 0x10
	AttrArchive    = 0x20
	AttrDevice    = 0x40
	attrReserved  = 0x80
	deletedMarker = 0xE5
)

// rawDirent is the on-disk 32-byte directory entry layout.
type rawDirent struct {
	Name             [8]byte
	Extension        [3]byte
	Attributes       uint8
	NTReserved       uint8
	CreateTimeTenths uint8
	CreateTime       uint16
	CreateDate       uint16
	LastAccessDate   uint16
	FirstClusterHigh uint16
	ModifyTime       uint16
	ModifyDate       uint16
	FirstClusterLow  uint16
	FileSize         uint32
}

// DirEntry is a single resolved directory listing result: a child name and
// enough metadata to build a Node for it without another directory scan.
type DirEntry struct {
	Name         string
	Directory    bool
	ReadOnly     bool
	Size         uint
	FirstCluster uint

	// direntBlock/direntOffset locate this entry's own 32-byte slot in its
	// parent directory, carried through so a Node built from this entry can
	// write its size back in place after a write grows the file.
	// direntInFixedRoot records whether direntBlock is relative to the
	// FAT12/16 fixed root region or the ordinary data region - the two
	// share a cache slot but have different LBA bases.
	direntBlock       uint
	direntOffset      uint
	direntInFixedRoot bool
}

func trim83(field []byte) []byte {
	end := len(field)
	for end > 0 && field[end-1] == ' ' {
		end--
	}
	return field[:end]
}

func build83Name(name, ext [8]byte, extLen int) string {
	trimmedName := trim83(name[:])
	trimmedExt := trim83(ext[:extLen])

	buf := make([]byte, 0, 12)
	w := bytewriter.New(buf)
	w.Write(trimmedName)
	if len(trimmedExt) > 0 {
		w.Write([]byte{'.'})
		w.Write(trimmedExt)
	}
	return string(w.Bytes())
}

// readDir reads the next directory entry from a directory node, advancing
// its cursor past it. It returns io.EOF once the 0x00 end-of-directory
// marker is hit (or the fixed root region on FAT12/16 runs out).
//
// Iterates 32-byte entries one sector at a time, skipping volume-label
// entries and any entry whose first name byte is 0xE5 (deleted).
func (fs *FS) readDir(dir *Node) (DirEntry, error) {
	if !dir.Directory {
		return DirEntry{}, errors.ErrNotDirectory
	}

	entriesPerSector := fs.logicalSectorSize / DirentSize
	sector := make([]byte, fs.logicalSectorSize)

	for {
		if err := fs.readNodeBlock(dir, sector); err != nil {
			return DirEntry{}, err
		}

		entryIdxInSector := dir.currentEntry % entriesPerSector
		offset := entryIdxInSector * DirentSize
		raw := sector[offset : offset+DirentSize]

		advance := func() error {
			dir.currentEntry++
			dir.Pos = dir.currentEntry
			if dir.currentEntry%entriesPerSector == 0 {
				return fs.incNodeBlock(dir, false)
			}
			return nil
		}

		if raw[0] == 0x00 {
			return DirEntry{}, io.EOF
		}

		attrs := raw[11]
		if raw[0] == deletedMarker || attrs&(AttrVolumeID|AttrDevice) != 0 {
			if err := advance(); err != nil {
				return DirEntry{}, err
			}
			continue
		}

		var nameField, extField [8]byte
		copy(nameField[:], raw[0:8])
		copy(extField[:], raw[8:11])

		var d rawDirent
		d.Attributes = attrs
		d.FirstClusterHigh = binary.LittleEndian.Uint16(raw[20:22])
		d.FirstClusterLow = binary.LittleEndian.Uint16(raw[26:28])
		d.FileSize = binary.LittleEndian.Uint32(raw[28:32])

		entry := DirEntry{
			Name:              build83Name(nameField, extField, 3),
			Directory:         attrs&AttrDirectory != 0,
			ReadOnly:          attrs&AttrReadOnly != 0,
			Size:              uint(d.FileSize),
			FirstCluster:      uint(d.FirstClusterHigh)<<16 | uint(d.FirstClusterLow),
			direntBlock:       dir.currentBlock,
			direntOffset:      offset,
			direntInFixedRoot: dir.isRoot && fs.subType != SubTypeFAT32,
		}

		if err := advance(); err != nil {
			return DirEntry{}, err
		}
		return entry, nil
	}
}

// childNode builds a Node handle for a resolved directory entry.
func (fs *FS) childNode(entry DirEntry) *Node {
	n := &Node{
		fs:                fs,
		Name:              entry.Name,
		Exists:            true,
		Directory:         entry.Directory,
		Size:              entry.Size,
		direntBlock:       entry.direntBlock,
		direntOffset:      entry.direntOffset,
		direntInFixedRoot: entry.direntInFixedRoot,
	}

	if entry.Directory && fs.subType != SubTypeFAT32 && entry.FirstCluster == 0 {
		// A subdirectory whose FirstCluster is 0 only happens for "."/".."
		// entries pointing at the fixed-region root on FAT12/16.
		n.isRoot = true
		n.startBlock = 0
	} else {
		n.startBlock = fs.clusterToBlock(entry.FirstCluster)
	}
	n.currentBlock = n.startBlock
	return n
}

// Root returns a Node for the volume's root directory.
func (fs *FS) Root() *Node {
	n := &Node{
		fs:        fs,
		Name:      "/",
		Exists:    true,
		Directory: true,
		isRoot:    true,
	}
	if fs.subType == SubTypeFAT32 {
		n.isRoot = false
		n.startBlock = fs.clusterToBlock(fs.rootCluster)
	}
	n.currentBlock = n.startBlock
	return n
}

// Rewind resets a directory or file node's cursor back to the beginning.
func (fs *FS) Rewind(n *Node) error {
	n.currentBlock = n.startBlock
	n.currentEntry = 0
	n.Pos = 0
	return nil
}

// ReadDir returns the next child of a directory node, or io.EOF when
// exhausted.
func (fs *FS) ReadDir(dir *Node) (*Node, error) {
	entry, err := fs.readDir(dir)
	if err != nil {
		return nil, err
	}
	return fs.childNode(entry), nil
}
