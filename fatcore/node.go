package fatcore

// Node is a file or directory handle within a mounted FAT volume. Unlike
// a fixed-size opaque byte buffer, the cursor
// state here is a plain typed struct - there's no reason to hide it behind
// a byte array in a Go port, and doing so would just force type-unsafe
// reinterpretation at every use site.
type Node struct {
	fs *FS

	Name      string
	Exists    bool
	Directory bool
	Size      uint // byte size; meaningless for directories
	Pos       uint // byte offset for files, directory entry index for directories

	isRoot       bool
	startBlock   uint
	currentBlock uint
	currentEntry uint

	// Location of this node's own 32-byte directory entry in its parent
	// directory, so writes that change Size can be mirrored back. Unused
	// (and unnecessary) for the root node, which has no parent entry.
	direntBlock       uint
	direntOffset      uint
	direntInFixedRoot bool
}

// IsRoot reports whether this node is the volume's root directory.
func (n *Node) IsRoot() bool { return n.isRoot }

// blockEOC and clusterEOC are the end-of-chain sentinels used throughout
// this package: both are the all-ones value for their width.
const (
	blockEOC    = ^uint(0)
	clusterEOC  = ^uint(0)
	clusterFree = uint(0)
)

// blockToCluster converts a data-region block number to the cluster number
// that contains it.
func (fs *FS) blockToCluster(blockNo uint) uint {
	if blockNo == blockEOC {
		return clusterEOC
	}
	return blockNo/fs.clusterSize + 2
}

// maxValidCluster returns the highest cluster number considered in-range
// for this volume's FAT width, matching the clusterToBlock bounds check.
func (fs *FS) maxValidCluster() uint {
	switch fs.subType {
	case SubTypeFAT12:
		return 0x0fef
	case SubTypeFAT16:
		return 0xffef
	default:
		return 0x0fffffef
	}
}

// clusterToBlock converts a cluster number to its first data-region block
// number, or blockEOC if clusterNo is out of the valid range for this
// volume's FAT width.
func (fs *FS) clusterToBlock(clusterNo uint) uint {
	if clusterNo < 2 || clusterNo > fs.maxValidCluster() {
		return blockEOC
	}
	return (clusterNo - 2) * fs.clusterSize
}

// isEOCEntry reports whether a raw FAT entry value denotes end-of-chain for
// this volume's width - FAT widths use different marker ranges, but every
// entry at or above the marker threshold is end-of-chain.
func (fs *FS) isEOCEntry(entry uint) bool {
	switch fs.subType {
	case SubTypeFAT12:
		return entry >= 0x0ff8
	case SubTypeFAT16:
		return entry >= 0xfff8
	default:
		return entry >= 0x0ffffff8
	}
}
