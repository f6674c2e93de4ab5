package fatcore

import (
	"io"

	"github.com/mufs/fat/errors"
)

// Read reads up to len(buffer) bytes from file starting at its current
// position, advancing the position by the number of bytes read. It returns
// io.EOF (with a partial count) once the file's declared size is reached.
//
// Per-iteration sector offset and copy length are computed as
// min(bytes still requested, bytes left in the file, bytes left in the
// current sector); the node's block cursor only advances once a sector is
// fully consumed.
func (fs *FS) Read(file *Node, buffer []byte) (int, error) {
	if file.Directory {
		return 0, errors.ErrNotFile
	}
	if !file.Exists {
		return 0, errors.ErrObjectNotFound
	}
	if file.Pos >= file.Size {
		return 0, io.EOF
	}

	sector := make([]byte, fs.logicalSectorSize)
	bytesRead := 0

	for bytesRead < len(buffer) {
		if file.Pos >= file.Size {
			break
		}

		if err := fs.readNodeBlock(file, sector); err != nil {
			return bytesRead, err
		}

		sectorOffset := file.Pos % fs.logicalSectorSize
		toCopy := len(buffer) - bytesRead
		if remaining := int(file.Size - file.Pos); remaining < toCopy {
			toCopy = remaining
		}
		if leftInSector := int(fs.logicalSectorSize - sectorOffset); leftInSector < toCopy {
			toCopy = leftInSector
		}

		copy(buffer[bytesRead:bytesRead+toCopy], sector[sectorOffset:int(sectorOffset)+toCopy])
		bytesRead += toCopy
		file.Pos += uint(toCopy)

		if (file.Pos%fs.logicalSectorSize) == 0 && file.Pos < file.Size {
			if err := fs.incNodeBlock(file, false); err != nil {
				return bytesRead, err
			}
		}
	}

	if bytesRead < len(buffer) {
		return bytesRead, io.EOF
	}
	return bytesRead, nil
}

// Seek moves file's position to pos, which may be anywhere from 0 up to
// (and including) its current Size, done by rewinding and then walking the
// chain forward one sector at a time via incNodeBlock, the same traversal
// Read and Write already use.
func (fs *FS) Seek(file *Node, pos uint) error {
	if file.Directory {
		return errors.ErrNotFile
	}
	if pos > file.Size {
		return errors.ErrInvalidArgument
	}

	if err := fs.Rewind(file); err != nil {
		return err
	}

	targetSector := pos / fs.logicalSectorSize
	for i := uint(0); i < targetSector; i++ {
		if err := fs.incNodeBlock(file, false); err != nil {
			return err
		}
	}
	file.Pos = pos
	return nil
}

// Write writes len(buffer) bytes to file starting at its current position,
// allocating new clusters as needed to grow the chain, advancing the
// position, and updating file.Size (and its on-disk directory entry) when
// the write extends past the previous end of file.
//
// It follows the same per-sector offset/length math as Read, using
// incNodeBlock's allocate=true mode to grow the chain on demand.
func (fs *FS) Write(file *Node, buffer []byte) (int, error) {
	if file.Directory {
		return 0, errors.ErrNotFile
	}
	if !file.Exists {
		return 0, errors.ErrObjectNotFound
	}
	if !fs.dev.Writable() {
		return 0, errors.ErrReadOnlyFileSystem
	}

	sector := make([]byte, fs.logicalSectorSize)
	bytesWritten := 0
	grew := false

	for bytesWritten < len(buffer) {
		sectorOffset := file.Pos % fs.logicalSectorSize

		if file.currentBlock == blockEOC {
			if err := fs.incNodeBlock(file, true); err != nil {
				return bytesWritten, err
			}
		}

		// Sectors are read-modify-write: a partial-sector write must
		// preserve the bytes it isn't touching.
		if err := fs.readNodeBlock(file, sector); err != nil && err != io.EOF {
			return bytesWritten, err
		}

		toCopy := len(buffer) - bytesWritten
		if leftInSector := int(fs.logicalSectorSize - sectorOffset); leftInSector < toCopy {
			toCopy = leftInSector
		}

		copy(sector[sectorOffset:int(sectorOffset)+toCopy], buffer[bytesWritten:bytesWritten+toCopy])
		if err := fs.writeNodeBlock(file, sector); err != nil {
			return bytesWritten, err
		}

		bytesWritten += toCopy
		file.Pos += uint(toCopy)
		if file.Pos > file.Size {
			file.Size = file.Pos
			grew = true
		}

		if (file.Pos % fs.logicalSectorSize) == 0 {
			if err := fs.incNodeBlock(file, true); err != nil {
				return bytesWritten, err
			}
		}
	}

	if grew {
		if err := fs.updateDirentSize(file); err != nil {
			return bytesWritten, err
		}
	}

	return bytesWritten, nil
}

// updateDirentSize writes file.Size back into the FileSize field of the
// node's own 32-byte directory entry. Root nodes have no parent entry and
// are skipped.
func (fs *FS) updateDirentSize(file *Node) error {
	if file.isRoot {
		return nil
	}

	sector := make([]byte, fs.logicalSectorSize)
	if err := fs.readDirentOwningBlock(file, sector); err != nil {
		return err
	}

	putUint32LE(sector[file.direntOffset+28:file.direntOffset+32], uint32(file.Size))

	return fs.writeDirentOwningBlock(file, sector)
}

func putUint32LE(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// readDirentOwningBlock/writeDirentOwningBlock address the sector holding a
// node's own directory entry. A parent directory's entries live in either
// the data region (any ordinary directory, or the FAT32 root) or the fixed
// root region (FAT12/16 root); direntInFixedRoot records which, since the
// two regions use different LBA bases despite sharing a cache slot.
func (fs *FS) readDirentOwningBlock(file *Node, buffer []byte) error {
	if file.direntInFixedRoot {
		return fs.readRootBlock(fs.rootLba+file.direntBlock, buffer)
	}
	return fs.readDataBlock(fs.dataLba+file.direntBlock, buffer)
}

func (fs *FS) writeDirentOwningBlock(file *Node, buffer []byte) error {
	if file.direntInFixedRoot {
		return fs.writeRootBlock(fs.rootLba+file.direntBlock, buffer)
	}
	return fs.writeDataBlock(fs.dataLba+file.direntBlock, buffer)
}

// Truncate changes file's size. Growing a file only raises its recorded
// size; it allocates no clusters and writes no zeros into the added range.
// Shrinking frees every cluster at or past the new size's cluster boundary.
// In both cases the on-disk entry's size is updated to match.
func (fs *FS) Truncate(file *Node, newSize uint) error {
	if file.Directory {
		return errors.ErrNotFile
	}
	if !fs.dev.Writable() {
		return errors.ErrReadOnlyFileSystem
	}

	if newSize >= file.Size {
		file.Size = newSize
		return fs.updateDirentSize(file)
	}

	bytesPerCluster := fs.BytesPerCluster()
	keepClusters := (newSize + bytesPerCluster - 1) / bytesPerCluster

	startCluster := fs.blockToCluster(file.startBlock)
	if startCluster >= 2 && keepClusters > 0 {
		cluster := startCluster
		for i := uint(1); i < keepClusters; i++ {
			next, err := fs.getFATEntry(cluster)
			if err != nil {
				return err
			}
			if fs.isEOCEntry(next) || next == clusterFree {
				break
			}
			cluster = next
		}
		next, err := fs.getFATEntry(cluster)
		if err != nil {
			return err
		}
		if err := fs.setFATEntry(cluster, fs.eocMarker()); err != nil {
			return err
		}
		if !fs.isEOCEntry(next) && next != clusterFree {
			if err := fs.freeChain(next); err != nil {
				return err
			}
		}
	} else if startCluster >= 2 && keepClusters == 0 {
		if err := fs.freeChain(startCluster); err != nil {
			return err
		}
	}

	file.Size = newSize
	if file.Pos > newSize {
		file.Pos = newSize
	}
	return fs.updateDirentSize(file)
}
