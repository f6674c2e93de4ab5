package fatcore

import (
	"github.com/boljen/go-bitmap"

	"io"

	"github.com/mufs/fat/errors"
)

// eocMarker returns the canonical end-of-chain value written into a FAT
// entry for this volume's width.
func (fs *FS) eocMarker() uint {
	switch fs.subType {
	case SubTypeFAT12:
		return 0x0fff
	case SubTypeFAT16:
		return 0xffff
	default:
		return 0x0fffffff
	}
}

// readNodeBlock reads the sector at the node's current cursor block into
// buffer. Root directories on FAT12/16 live in a fixed region addressed
// directly by sector offset from rootLba rather than through the cluster
// chain, which is why this case is handled separately.
func (fs *FS) readNodeBlock(n *Node, buffer []byte) error {
	if n.isRoot && fs.subType != SubTypeFAT32 {
		rootSectors := fs.rootDirEntryCount * DirentSize / fs.logicalSectorSize
		if n.currentBlock >= rootSectors {
			return io.EOF
		}
		return fs.readRootBlock(fs.rootLba+n.currentBlock, buffer)
	}

	if n.currentBlock == blockEOC {
		return io.EOF
	}
	return fs.readDataBlock(fs.dataLba+n.currentBlock, buffer)
}

func (fs *FS) writeNodeBlock(n *Node, buffer []byte) error {
	if n.isRoot && fs.subType != SubTypeFAT32 {
		rootSectors := fs.rootDirEntryCount * DirentSize / fs.logicalSectorSize
		if n.currentBlock >= rootSectors {
			return io.EOF
		}
		return fs.writeRootBlock(fs.rootLba+n.currentBlock, buffer)
	}

	if n.currentBlock == blockEOC {
		return io.EOF
	}
	return fs.writeDataBlock(fs.dataLba+n.currentBlock, buffer)
}

// incNodeBlock advances a node's cursor by one sector, crossing into the
// next cluster of its chain when needed via a FAT lookup. If allocate is
// true and the chain ends here, a new cluster is allocated and linked in so
// the cursor can keep advancing - used by write paths that may need to grow
// a file. If allocate is false, running off the end of the chain parks the
// cursor at blockEOC, which readNodeBlock/writeNodeBlock report as io.EOF.
func (fs *FS) incNodeBlock(n *Node, allocate bool) error {
	if n.isRoot && fs.subType != SubTypeFAT32 {
		n.currentBlock++
		return nil
	}

	if (n.currentBlock+1)%fs.clusterSize != 0 {
		n.currentBlock++
		return nil
	}

	currentCluster := fs.blockToCluster(n.currentBlock)
	nextCluster, err := fs.getFATEntry(currentCluster)
	if err != nil {
		return err
	}

	if fs.isEOCEntry(nextCluster) || nextCluster == clusterFree {
		if !allocate {
			n.currentBlock = blockEOC
			return nil
		}

		newCluster, err := fs.allocCluster()
		if err != nil {
			return err
		}
		if err := fs.setFATEntry(currentCluster, newCluster); err != nil {
			return err
		}
		n.currentBlock = fs.clusterToBlock(newCluster)
		return nil
	}

	n.currentBlock = fs.clusterToBlock(nextCluster)
	return nil
}

// ensureAllocBitmap lazily builds a bitmap mirror of which clusters are
// free, scanning the FAT once. The FAT remains the source of truth for
// every allocation decision; the bitmap exists only to make the common
// case (allocating when there's plenty of free space) a fast scan over
// bits instead of repeated FAT reads.
func (fs *FS) ensureAllocBitmap() error {
	if fs.allocBitmapReady {
		return nil
	}

	fs.allocBitmap = bitmap.New(int(fs.dataClusterCount))
	for i := uint(0); i < fs.dataClusterCount; i++ {
		entry, err := fs.getFATEntry(i + 2)
		if err != nil {
			return err
		}
		fs.allocBitmap.Set(int(i), entry != clusterFree)
	}
	fs.allocBitmapReady = true
	return nil
}

// allocCluster finds a free cluster via a deliberately naive linear scan
// starting at cluster 2, marks it end-of-chain in the FAT, and returns its
// number. It does not link the new cluster into any existing chain; the
// caller does that with setFATEntry on the predecessor.
func (fs *FS) allocCluster() (uint, error) {
	if err := fs.ensureAllocBitmap(); err != nil {
		return 0, err
	}

	for i := uint(0); i < fs.dataClusterCount; i++ {
		if fs.allocBitmap.Get(int(i)) {
			continue
		}

		cluster := i + 2
		// The bitmap is a hint; confirm against the FAT before committing.
		entry, err := fs.getFATEntry(cluster)
		if err != nil {
			return 0, err
		}
		if entry != clusterFree {
			fs.allocBitmap.Set(int(i), true)
			continue
		}

		if err := fs.setFATEntry(cluster, fs.eocMarker()); err != nil {
			return 0, err
		}
		fs.allocBitmap.Set(int(i), true)
		return cluster, nil
	}

	return 0, errors.ErrNoSpace
}

// freeChain walks the cluster chain starting at startCluster, marking
// every cluster in it free in both the FAT and the allocation bitmap.
func (fs *FS) freeChain(startCluster uint) error {
	if startCluster < 2 {
		return nil
	}

	if err := fs.ensureAllocBitmap(); err != nil {
		return err
	}

	cluster := startCluster
	for cluster >= 2 && cluster <= fs.maxValidCluster() {
		next, err := fs.getFATEntry(cluster)
		if err != nil {
			return err
		}
		if err := fs.setFATEntry(cluster, clusterFree); err != nil {
			return err
		}
		fs.allocBitmap.Set(int(cluster-2), false)

		if fs.isEOCEntry(next) || next == clusterFree {
			break
		}
		cluster = next
	}
	return nil
}
