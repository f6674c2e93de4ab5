package fatcore

import (
	"github.com/mufs/fat/blockdev"
)

// The FAT area and the root/data area each get one cache slot. LBA 0 is
// always the boot sector, so it never legitimately appears as a FAT, root,
// or data block - that's what lets 0 double as the "cache is empty"
// sentinel for both slots.

// readCacheBlock is the shared read-through protocol for both cache slots:
// a request for the LBA already held in the slot is satisfied from the
// slot directly; anything else falls through to the device and replaces
// the slot's contents.
func readCacheBlock(fs *FS, lba uint, cache []byte, cacheLba *uint) error {
	if lba == *cacheLba {
		return nil
	}

	if err := blockdev.ReadAt(fs.dev, lba, cache); err != nil {
		*cacheLba = 0
		return err
	}
	*cacheLba = lba
	return nil
}

// writeCacheBlock is the shared write-through protocol for both cache
// slots: the device is always written first. On failure the slot is
// invalidated only if buffer is the cache's own backing array (a flush),
// since in that case the cache can no longer be trusted to reflect the
// device. On success the slot adopts lba, and the cache's backing array is
// refreshed from buffer unless buffer already is that array.
func writeCacheBlock(fs *FS, lba uint, buffer []byte, cache []byte, cacheLba *uint) error {
	if err := blockdev.WriteAt(fs.dev, lba, buffer); err != nil {
		if sameBackingArray(buffer, cache) {
			*cacheLba = 0
		}
		return err
	}

	*cacheLba = lba
	if !sameBackingArray(buffer, cache) {
		copy(cache, buffer)
	}
	return nil
}

func sameBackingArray(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

func (fs *FS) readFATBlock(lba uint, buffer []byte) error {
	if err := readCacheBlock(fs, lba, fs.fatCache[:fs.logicalSectorSize], &fs.fatCacheLba); err != nil {
		return err
	}
	copy(buffer, fs.fatCache[:fs.logicalSectorSize])
	return nil
}

func (fs *FS) writeFATBlock(lba uint, buffer []byte) error {
	return writeCacheBlock(fs, lba, buffer, fs.fatCache[:fs.logicalSectorSize], &fs.fatCacheLba)
}

// readRootBlock reads a sector from the fixed-size root directory region.
// Not valid for FAT32, which keeps its root directory in the data region
// like any other directory. Shares the data cache slot with
// readDataBlock/writeDataBlock: the root region and the data region are
// never live in the cache at the same time.
func (fs *FS) readRootBlock(lba uint, buffer []byte) error {
	if err := readCacheBlock(fs, lba, fs.dataCache[:fs.logicalSectorSize], &fs.dataCacheLba); err != nil {
		return err
	}
	copy(buffer, fs.dataCache[:fs.logicalSectorSize])
	return nil
}

func (fs *FS) writeRootBlock(lba uint, buffer []byte) error {
	return writeCacheBlock(fs, lba, buffer, fs.dataCache[:fs.logicalSectorSize], &fs.dataCacheLba)
}

func (fs *FS) readDataBlock(lba uint, buffer []byte) error {
	if err := readCacheBlock(fs, lba, fs.dataCache[:fs.logicalSectorSize], &fs.dataCacheLba); err != nil {
		return err
	}
	copy(buffer, fs.dataCache[:fs.logicalSectorSize])
	return nil
}

func (fs *FS) writeDataBlock(lba uint, buffer []byte) error {
	return writeCacheBlock(fs, lba, buffer, fs.dataCache[:fs.logicalSectorSize], &fs.dataCacheLba)
}
