package fatcore

import (
	"encoding/binary"
)

// getFATEntry reads the FAT entry for clusterNo, returning the raw next-
// cluster value (or an EOC/bad/free marker, still in its native width).
//
// FAT12 entries are 12 bits packed two-to-three-bytes and can straddle a
// sector boundary, which is why this is the one width that may need to
// read two FAT sectors for a single entry.
func (fs *FS) getFATEntry(clusterNo uint) (uint, error) {
	switch fs.subType {
	case SubTypeFAT12:
		byteOff := clusterNo * 3 / 2
		sectorNo := byteOff / fs.logicalSectorSize
		offInSector := byteOff % fs.logicalSectorSize

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return 0, err
		}

		var lo, hi byte
		lo = sector[offInSector]
		if offInSector+1 < fs.logicalSectorSize {
			hi = sector[offInSector+1]
		} else {
			next := make([]byte, fs.logicalSectorSize)
			if err := fs.readFATBlock(fs.fatLba+sectorNo+1, next); err != nil {
				return 0, err
			}
			hi = next[0]
		}

		value := uint(lo) | uint(hi)<<8
		if clusterNo&1 == 0 {
			return value & 0x0fff, nil
		}
		return value >> 4, nil

	case SubTypeFAT16:
		entriesPerSector := fs.logicalSectorSize / 2
		sectorNo := clusterNo / entriesPerSector
		idx := clusterNo % entriesPerSector

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return 0, err
		}
		return uint(binary.LittleEndian.Uint16(sector[idx*2 : idx*2+2])), nil

	default: // SubTypeFAT32
		entriesPerSector := fs.logicalSectorSize / 4
		sectorNo := clusterNo / entriesPerSector
		idx := clusterNo % entriesPerSector

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return 0, err
		}
		return uint(binary.LittleEndian.Uint32(sector[idx*4:idx*4+4])) & 0x0fffffff, nil
	}
}

// setFATEntry writes nextCluster as the FAT entry for clusterNo, using a
// read-modify-write on whichever FAT sector(s) the entry occupies.
func (fs *FS) setFATEntry(clusterNo uint, nextCluster uint) error {
	switch fs.subType {
	case SubTypeFAT12:
		byteOff := clusterNo * 3 / 2
		sectorNo := byteOff / fs.logicalSectorSize
		offInSector := byteOff % fs.logicalSectorSize

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return err
		}

		value := nextCluster & 0x0fff
		if clusterNo&1 == 0 {
			sector[offInSector] = byte(value)
			if offInSector+1 < fs.logicalSectorSize {
				sector[offInSector+1] = (sector[offInSector+1] & 0xf0) | byte(value>>8)
			} else {
				next := make([]byte, fs.logicalSectorSize)
				if err := fs.readFATBlock(fs.fatLba+sectorNo+1, next); err != nil {
					return err
				}
				next[0] = (next[0] & 0xf0) | byte(value>>8)
				if err := fs.writeFATBlock(fs.fatLba+sectorNo+1, next); err != nil {
					return err
				}
			}
		} else {
			if offInSector+1 < fs.logicalSectorSize {
				sector[offInSector] = (sector[offInSector] & 0x0f) | byte(value<<4)
				sector[offInSector+1] = byte(value >> 4)
			} else {
				next := make([]byte, fs.logicalSectorSize)
				if err := fs.readFATBlock(fs.fatLba+sectorNo+1, next); err != nil {
					return err
				}
				sector[offInSector] = (sector[offInSector] & 0x0f) | byte(value<<4)
				next[0] = byte(value >> 4)
				if err := fs.writeFATBlock(fs.fatLba+sectorNo+1, next); err != nil {
					return err
				}
			}
		}
		return fs.writeFATBlock(fs.fatLba+sectorNo, sector)

	case SubTypeFAT16:
		entriesPerSector := fs.logicalSectorSize / 2
		sectorNo := clusterNo / entriesPerSector
		idx := clusterNo % entriesPerSector

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(sector[idx*2:idx*2+2], uint16(nextCluster))
		return fs.writeFATBlock(fs.fatLba+sectorNo, sector)

	default: // SubTypeFAT32
		entriesPerSector := fs.logicalSectorSize / 4
		sectorNo := clusterNo / entriesPerSector
		idx := clusterNo % entriesPerSector

		sector := make([]byte, fs.logicalSectorSize)
		if err := fs.readFATBlock(fs.fatLba+sectorNo, sector); err != nil {
			return err
		}
		// Top 4 bits of a FAT32 entry are reserved and must be preserved.
		existing := binary.LittleEndian.Uint32(sector[idx*4 : idx*4+4])
		merged := (existing & 0xf0000000) | (uint32(nextCluster) & 0x0fffffff)
		binary.LittleEndian.PutUint32(sector[idx*4:idx*4+4], merged)
		return fs.writeFATBlock(fs.fatLba+sectorNo, sector)
	}
}
