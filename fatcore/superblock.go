// Package fatcore implements the on-disk mechanics of FAT12/16/32: boot
// sector parsing, the FAT entry codec, cluster chain traversal and
// allocation, directory iteration, and file I/O. It operates purely in
// terms of a blockdev.BlockDevice; it knows nothing about host paths.
package fatcore

import (
	"bytes"
	"encoding/binary"

	"github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/errors"
)

// SubType identifies which of the three FAT width variants a volume uses.
// Determined purely from the data cluster count, per the original FAT
// on-disk layout - never from a label or an explicit format field.
type SubType int

const (
	// SubTypeNone is the zero value of SubType. Open never returns an FS
	// with this subtype: a boot sector that fails validation makes Open
	// return a nil *FS and an error instead.
	SubTypeNone SubType = iota
	SubTypeFAT12
	SubTypeFAT16
	SubTypeFAT32
)

func (t SubType) String() string {
	switch t {
	case SubTypeFAT12:
		return "FAT12"
	case SubTypeFAT16:
		return "FAT16"
	case SubTypeFAT32:
		return "FAT32"
	default:
		return "none"
	}
}

// Cluster count thresholds that distinguish FAT12/16/32, taken from
// Microsoft's published FAT layout and matched exactly by the reference
// implementation this module is derived from.
const (
	fat12MaxClusterCount = 4084
	fat16MaxClusterCount = 65524
)

// maxBlockSize bounds the sector size this implementation accepts, matching
// the original's MAX_BLOCK_SIZE and the size of the two cache buffers.
const maxBlockSize = 512

// DirentSize is the size in bytes of one on-disk directory entry.
const DirentSize = 32

// rawBootSectorBPB mirrors the BIOS Parameter Block common to all FAT
// widths, read directly off the wire with encoding/binary.
type rawBootSectorBPB struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
}

// rawFAT1xEBPB is the extended BPB used by FAT12 and FAT16.
type rawFAT1xEBPB struct {
	DriveNumber           uint8
	Reserved1             uint8
	ExtendedBootSignature uint8
	VolumeID              uint32
	VolumeLabel           [11]byte
	FSType                [8]byte
}

// rawFAT32EBPB is the extended BPB used by FAT32.
type rawFAT32EBPB struct {
	FATSize               uint32
	Flags                 uint16
	Version               uint16
	RootDirCluster        uint32
	FSInfoBlock           uint16
	FATCopyBlock          uint16
	Reserved1             [12]byte
	DriveNumber           uint8
	Reserved2             uint8
	ExtendedBootSignature uint8
	VolumeID              uint32
	VolumeLabel           [11]byte
	FSType                [8]byte
}

// FS is a mounted FAT volume: parsed superblock fields plus the two-slot
// block cache. The zero value is not usable; construct with Open.
type FS struct {
	dev blockdev.BlockDevice

	logicalSectorSize uint
	reservedBlocks    uint
	clusterSize       uint // sectors per cluster
	fatCount          uint
	fatSize           uint // sectors per FAT
	rootDirEntryCount uint
	rootCluster       uint // meaningful for FAT32 only
	blockCount        uint

	fatLba  uint
	rootLba uint
	dataLba uint

	dataBlockCount   uint
	dataClusterCount uint

	subType     SubType
	volumeLabel string

	fatCacheLba  uint
	fatCache     [maxBlockSize]byte
	dataCacheLba uint
	dataCache    [maxBlockSize]byte

	allocBitmap      bitmap.Bitmap
	allocBitmapReady bool
}

// SubType reports which FAT width this volume uses.
func (fs *FS) SubType() SubType { return fs.subType }

// VolumeLabel returns the trimmed volume label from the extended BPB, or an
// empty string if the boot sector didn't carry a valid one.
func (fs *FS) VolumeLabel() string { return fs.volumeLabel }

// BytesPerCluster returns the size of a single cluster in bytes.
func (fs *FS) BytesPerCluster() uint { return fs.clusterSize * fs.logicalSectorSize }

// RootDirEntryCount returns the fixed root directory capacity for FAT12/16,
// or 0 for FAT32, where the root directory is an ordinary cluster chain.
func (fs *FS) RootDirEntryCount() uint { return fs.rootDirEntryCount }

// RootCluster returns the first cluster of the root directory on FAT32.
// Meaningless on FAT12/16, where the root directory lives in the fixed
// region preceding the data area.
func (fs *FS) RootCluster() uint { return fs.rootCluster }

// trimFATName trims trailing spaces (and stops at the first NUL) from a
// fixed-width FAT name field.
func trimFATName(raw []byte) string {
	end := len(raw)
	for end > 0 && (raw[end-1] == ' ' || raw[end-1] == 0) {
		end--
	}
	for i := 0; i < end; i++ {
		if raw[i] == 0 {
			return string(raw[:i])
		}
	}
	return string(raw[:end])
}

// Open parses the boot sector at LBA 0 of dev and constructs a mounted FS.
//
// The basic BPB field checks (bytes per sector, sectors per cluster,
// reserved sectors, FAT count) are collected into a multierror, so a
// caller opening an image that breaks several of them sees every one of
// those reasons at once. The layout checks that follow (sector size against
// the device, root region alignment, FAT size, region placement) return at
// the first failure. The closing size equation is checked as <= rather
// than ==, so images with trailing blocks past the data region still open.
func Open(dev blockdev.BlockDevice) (*FS, error) {
	if dev.BlockSize() < 512 || dev.BlockSize() > maxBlockSize {
		return nil, errors.ErrCorrupted.WithMessage("block size must be in [512, 512]")
	}

	sector := make([]byte, dev.BlockSize())
	if err := blockdev.ReadAt(dev, 0, sector); err != nil {
		return nil, err
	}

	var signature uint16
	if len(sector) < 512 {
		return nil, errors.ErrCorrupted.WithMessage("boot sector shorter than 512 bytes")
	}
	signature = binary.LittleEndian.Uint16(sector[510:512])
	if signature != 0xaa55 {
		return nil, errors.ErrCorrupted.WithMessage("missing 0xAA55 boot sector signature")
	}

	var bpb rawBootSectorBPB
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &bpb); err != nil {
		return nil, errors.ErrCorrupted.WrapError(err)
	}

	var merr *multierror.Error

	if bpb.BytesPerSector != 512 && bpb.BytesPerSector != 1024 &&
		bpb.BytesPerSector != 2048 && bpb.BytesPerSector != 4096 {
		merr = multierror.Append(merr, errors.ErrCorrupted.WithMessage(
			"BytesPerSector must be one of 512, 1024, 2048, 4096"))
	}
	switch bpb.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		merr = multierror.Append(merr, errors.ErrCorrupted.WithMessage(
			"SectorsPerCluster must be a power of two in [1, 128]"))
	}
	if bpb.ReservedSectors < 1 {
		merr = multierror.Append(merr, errors.ErrCorrupted.WithMessage(
			"ReservedSectors must be at least 1"))
	}
	if bpb.NumFATs < 1 {
		merr = multierror.Append(merr, errors.ErrCorrupted.WithMessage(
			"NumFATs must be at least 1"))
	}
	if merr.ErrorOrNil() != nil {
		return nil, merr
	}

	logicalSectorSize := uint(bpb.BytesPerSector)
	if logicalSectorSize != uint(dev.BlockSize()) {
		return nil, errors.ErrCorrupted.WithMessage(
			"BytesPerSector does not match the backing device's block size")
	}

	rootDirEntryCount := uint(bpb.RootEntryCount)
	if (rootDirEntryCount*DirentSize)%logicalSectorSize != 0 {
		return nil, errors.ErrCorrupted.WithMessage(
			"root directory region is not a whole number of sectors")
	}

	blockCount := uint(bpb.TotalSectors16)
	if blockCount == 0 {
		blockCount = uint(bpb.TotalSectors32)
	}

	reservedBlocks := uint(bpb.ReservedSectors)
	clusterSize := uint(bpb.SectorsPerCluster)
	fatCount := uint(bpb.NumFATs)

	fatSize := uint(bpb.SectorsPerFAT16)
	assumeFAT32 := false
	var fat32EBPB rawFAT32EBPB
	if fatSize == 0 {
		// The BPB FAT size field is zero for FAT32; the real value lives in
		// the FAT32 extended BPB. We have to tentatively assume FAT32 this
		// early to read it.
		assumeFAT32 = true
		if err := binary.Read(bytes.NewReader(sector[36:90]), binary.LittleEndian, &fat32EBPB); err != nil {
			return nil, errors.ErrCorrupted.WrapError(err)
		}
		fatSize = uint(fat32EBPB.FATSize)
		if fatSize == 0 {
			return nil, errors.ErrCorrupted.WithMessage("FAT size is zero in both BPB and FAT32 EBPB")
		}
	}

	fatLba := reservedBlocks
	rootLba := reservedBlocks + fatSize*fatCount
	dataLba := rootLba + (rootDirEntryCount*DirentSize)/logicalSectorSize
	if dataLba >= blockCount {
		return nil, errors.ErrCorrupted.WithMessage("data region starts at or past the end of the device")
	}

	dataBlockCount := blockCount - dataLba
	dataClusterCount := dataBlockCount / clusterSize
	if dataClusterCount == 0 {
		return nil, errors.ErrCorrupted.WithMessage("data region has no whole clusters")
	}

	var subType SubType
	switch {
	case dataClusterCount <= fat12MaxClusterCount:
		subType = SubTypeFAT12
	case dataClusterCount <= fat16MaxClusterCount:
		subType = SubTypeFAT16
	default:
		subType = SubTypeFAT32
	}

	// A stricter reader would require this equation to hold exactly.
	// Per this module's relaxed reading of that invariant (see DESIGN.md),
	// trailing blocks past a whole number of data clusters are tolerated:
	// the equation only has to hold up to the data region's rounding.
	accounted := reservedBlocks + fatCount*fatSize + (rootDirEntryCount*DirentSize)/logicalSectorSize + dataBlockCount
	if accounted > blockCount {
		return nil, errors.ErrCorrupted.WithMessage("reserved+FAT+root+data regions exceed the device size")
	}

	fs := &FS{
		dev:               dev,
		logicalSectorSize: logicalSectorSize,
		reservedBlocks:    reservedBlocks,
		clusterSize:       clusterSize,
		fatCount:          fatCount,
		fatSize:           fatSize,
		rootDirEntryCount: rootDirEntryCount,
		blockCount:        blockCount,
		fatLba:            fatLba,
		rootLba:           rootLba,
		dataLba:           dataLba,
		dataBlockCount:    dataBlockCount,
		dataClusterCount:  dataClusterCount,
		subType:           subType,
	}

	var volumeLabelRaw [11]byte
	if subType == SubTypeFAT32 {
		if !assumeFAT32 {
			if err := binary.Read(bytes.NewReader(sector[36:90]), binary.LittleEndian, &fat32EBPB); err != nil {
				return nil, errors.ErrCorrupted.WrapError(err)
			}
		}
		fs.rootCluster = uint(fat32EBPB.RootDirCluster)
		if fat32EBPB.ExtendedBootSignature == 0x29 {
			volumeLabelRaw = fat32EBPB.VolumeLabel
		}
	} else {
		var ebpb rawFAT1xEBPB
		if err := binary.Read(bytes.NewReader(sector[36:62]), binary.LittleEndian, &ebpb); err != nil {
			return nil, errors.ErrCorrupted.WrapError(err)
		}
		if ebpb.ExtendedBootSignature == 0x29 {
			volumeLabelRaw = ebpb.VolumeLabel
		}
	}
	fs.volumeLabel = trimFATName(volumeLabelRaw[:])

	return fs, nil
}

// Device returns the backing block device this FS reads and writes through.
func (fs *FS) Device() blockdev.BlockDevice { return fs.dev }
