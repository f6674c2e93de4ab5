// Package fattest builds in-memory FAT images for tests. It pokes the BPB,
// extended BPB, directory entries, and cluster-chain FAT entries directly -
// there's no formatter in fatcore itself (this module only ever mounts
// existing volumes), and fatcore's own directory-mutation operations
// (CreateDir/CreateFile/Remove) are unimplemented stubs, so fixtures can't
// be built by calling them either. A fixture builder has to lay out the
// same bytes a real FAT formatter would.
package fattest

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/fatcore"
)

const blockSize = 512

func putFAT1xBPB(image []byte, clusterSize, reservedBlocks, fatCount, rootEntries, fatSize, totalBlocks uint) {
	binary.LittleEndian.PutUint16(image[11:13], uint16(blockSize))
	image[13] = byte(clusterSize)
	binary.LittleEndian.PutUint16(image[14:16], uint16(reservedBlocks))
	image[16] = byte(fatCount)
	binary.LittleEndian.PutUint16(image[17:19], uint16(rootEntries))
	if totalBlocks <= 0xffff {
		binary.LittleEndian.PutUint16(image[19:21], uint16(totalBlocks))
	}
	image[21] = 0xf0 // media: removable disk
	binary.LittleEndian.PutUint16(image[22:24], uint16(fatSize))
	if totalBlocks > 0xffff {
		binary.LittleEndian.PutUint32(image[32:36], uint32(totalBlocks))
	}
	image[510] = 0x55
	image[511] = 0xaa
}

func putVolumeLabel(dst []byte, label string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, label)
}

// put83Field copies s, upper-cased, into a space-padded fixed-width name or
// extension field.
func put83Field(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, strings.ToUpper(s))
}

// split83 splits a host-style name ("readme.txt") into its base and
// extension for 8.3 encoding. Names with no '.' get an empty extension.
func split83(name string) (base, ext string) {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}

// writeDirentBytes lays out a single 32-byte directory entry at dst.
func writeDirentBytes(dst []byte, base, ext string, attrs uint8, firstCluster uint, size uint32) {
	for i := range dst[:fatcore.DirentSize] {
		dst[i] = 0
	}
	put83Field(dst[0:8], base)
	put83Field(dst[8:11], ext)
	dst[11] = attrs
	binary.LittleEndian.PutUint16(dst[20:22], uint16(firstCluster>>16))
	binary.LittleEndian.PutUint16(dst[26:28], uint16(firstCluster))
	binary.LittleEndian.PutUint32(dst[28:32], size)
}

// putFAT12Entry packs a 12-bit FAT entry into the first FAT copy, the only
// copy this module's reader ever consults.
func putFAT12Entry(image []byte, fatLba, clusterNo, value uint) {
	base := fatLba*blockSize + clusterNo*3/2
	v := value & 0x0fff
	if clusterNo&1 == 0 {
		image[base] = byte(v)
		image[base+1] = (image[base+1] &^ 0x0f) | byte(v>>8)
	} else {
		image[base] = (image[base] &^ 0xf0) | byte(v<<4)
		image[base+1] = byte(v >> 4)
	}
}

// putFAT32Entry writes a 32-bit FAT entry, preserving its reserved top
// nibble the way fatcore.setFATEntry does.
func putFAT32Entry(image []byte, fatLba, clusterNo, value uint) {
	off := fatLba*blockSize + clusterNo*4
	existing := binary.LittleEndian.Uint32(image[off : off+4])
	merged := (existing & 0xf0000000) | (uint32(value) & 0x0fffffff)
	binary.LittleEndian.PutUint32(image[off:off+4], merged)
}

// fixtureBuilder allocates clusters sequentially (no reuse, no freelist -
// fixtures are built once and never shrink) and writes directory entries
// and file contents straight into the image's backing bytes.
type fixtureBuilder struct {
	image       []byte
	fat32       bool
	fatLba      uint
	dataLba     uint
	clusterSize uint // sectors per cluster
	eoc         uint
	nextCluster uint
}

func (b *fixtureBuilder) setFATEntry(clusterNo, value uint) {
	if b.fat32 {
		putFAT32Entry(b.image, b.fatLba, clusterNo, value)
	} else {
		putFAT12Entry(b.image, b.fatLba, clusterNo, value)
	}
}

func (b *fixtureBuilder) allocCluster() uint {
	c := b.nextCluster
	b.nextCluster++
	b.setFATEntry(c, b.eoc)
	return c
}

// clusterBytes returns the backing slice for cluster's data.
func (b *fixtureBuilder) clusterBytes(cluster uint) []byte {
	start := (b.dataLba + (cluster-2)*b.clusterSize) * blockSize
	return b.image[start : start+b.clusterSize*blockSize]
}

// newDirCluster allocates a single cluster, zero-fills it, and seeds it
// with "." and ".." entries.
func (b *fixtureBuilder) newDirCluster(parentCluster uint) uint {
	cluster := b.allocCluster()
	region := b.clusterBytes(cluster)
	for i := range region {
		region[i] = 0
	}
	writeDirentBytes(region[0:fatcore.DirentSize], ".", "", fatcore.AttrDirectory, cluster, 0)
	writeDirentBytes(region[fatcore.DirentSize:2*fatcore.DirentSize], "..", "", fatcore.AttrDirectory, parentCluster, 0)
	return cluster
}

// writeFile allocates as many clusters as data needs, chains them in the
// FAT, and copies data in, returning the first cluster (0 if data is
// empty - an empty file needs no cluster at all).
func (b *fixtureBuilder) writeFile(data []byte) uint {
	if len(data) == 0 {
		return 0
	}

	clusterBytes := b.clusterSize * blockSize
	var first, prev uint
	remaining := data
	for len(remaining) > 0 {
		cluster := b.allocCluster()
		if first == 0 {
			first = cluster
		} else {
			b.setFATEntry(prev, cluster)
		}

		region := b.clusterBytes(cluster)
		for i := range region {
			region[i] = 0
		}
		n := uint(len(remaining))
		if n > clusterBytes {
			n = clusterBytes
		}
		copy(region, remaining[:n])
		remaining = remaining[n:]
		prev = cluster
	}
	return first
}

// dirWriter appends entries sequentially into a directory's cluster chain,
// extending the chain with a fresh cluster whenever the current one fills.
type dirWriter struct {
	b          *fixtureBuilder
	cluster    uint
	slot       uint
	perCluster uint
}

func (b *fixtureBuilder) newDirWriter(firstCluster uint) *dirWriter {
	return &dirWriter{
		b:          b,
		cluster:    firstCluster,
		perCluster: b.clusterSize * blockSize / fatcore.DirentSize,
	}
}

func (w *dirWriter) add(base, ext string, attrs uint8, firstCluster uint, size uint32) {
	if w.slot == w.perCluster {
		next := w.b.allocCluster()
		w.b.setFATEntry(w.cluster, next)
		w.cluster = next
		w.slot = 0
	}
	region := w.b.clusterBytes(w.cluster)
	offset := w.slot * fatcore.DirentSize
	writeDirentBytes(region[offset:offset+fatcore.DirentSize], base, ext, attrs, firstCluster, size)
	w.slot++
}

// MountScenario builds the FAT12 image used by the root-listing, small-file,
// nested-path, and write/truncate scenarios: volume label "MUSTORETEST",
// with /DIR1, /DIR2/SUBSUB/ZSTUFF.TXT, /TEST.TXT ("Hello world\n"),
// /HUGE.TXT (spans several clusters), and /WRITE.TXT ("START\n").
func MountScenario() (*fatcore.FS, error) {
	dev, err := ScenarioDevice()
	if err != nil {
		return nil, err
	}
	return fatcore.Open(dev)
}

// ScenarioDevice builds and populates the same image as MountScenario, but
// returns the raw block device so a caller can mount it through a different
// layer (e.g. the path-based fat.Filesystem façade) instead of fatcore
// directly.
func ScenarioDevice() (*blockdev.MemoryBackend, error) {
	const (
		clusterSize    = 1
		reservedBlocks = 1
		fatCount       = 2
		rootEntries    = 224
		fatSize        = 9
		totalBlocks    = 2880
	)

	image := make([]byte, totalBlocks*blockSize)
	putFAT1xBPB(image, clusterSize, reservedBlocks, fatCount, rootEntries, fatSize, totalBlocks)

	ebpb := image[36:62]
	ebpb[0] = 0    // DriveNumber
	ebpb[1] = 0    // Reserved1
	ebpb[2] = 0x29 // ExtendedBootSignature: VolumeID/VolumeLabel/FSType are valid
	putVolumeLabel(ebpb[7:18], "MUSTORETEST")
	copy(ebpb[18:26], []byte("FAT12   "))

	fatLba := uint(reservedBlocks)
	rootLba := fatLba + uint(fatSize*fatCount)
	dataLba := rootLba + uint(rootEntries)*fatcore.DirentSize/blockSize

	b := &fixtureBuilder{
		image:       image,
		fatLba:      fatLba,
		dataLba:     dataLba,
		clusterSize: clusterSize,
		eoc:         0x0fff,
		nextCluster: 2,
	}

	rootSlot := func(i uint) []byte {
		off := (rootLba*blockSize + i*fatcore.DirentSize)
		return image[off : off+fatcore.DirentSize]
	}

	dir1Cluster := b.newDirCluster(0)
	writeDirentBytes(rootSlot(0), "DIR1", "", fatcore.AttrDirectory, dir1Cluster, 0)

	dir2Cluster := b.newDirCluster(0)
	subsubCluster := b.newDirCluster(dir2Cluster)
	zstuffContents := []byte("nested file contents\n")
	zstuffCluster := b.writeFile(zstuffContents)
	w := b.newDirWriter(subsubCluster)
	w.slot = 2 // "." and ".." already occupy slots 0 and 1
	w.add("ZSTUFF", "TXT", 0, zstuffCluster, uint32(len(zstuffContents)))

	w = b.newDirWriter(dir2Cluster)
	w.slot = 2
	w.add("SUBSUB", "", fatcore.AttrDirectory, subsubCluster, 0)
	writeDirentBytes(rootSlot(1), "DIR2", "", fatcore.AttrDirectory, dir2Cluster, 0)

	testContents := []byte("Hello world\n")
	testCluster := b.writeFile(testContents)
	testBase, testExt := split83("TEST.TXT")
	writeDirentBytes(rootSlot(2), testBase, testExt, 0, testCluster, uint32(len(testContents)))

	hugeContents := bytes.Repeat([]byte("x"), 5000)
	hugeCluster := b.writeFile(hugeContents)
	hugeBase, hugeExt := split83("HUGE.TXT")
	writeDirentBytes(rootSlot(3), hugeBase, hugeExt, 0, hugeCluster, uint32(len(hugeContents)))

	writeContents := []byte("START\n")
	writeCluster := b.writeFile(writeContents)
	writeBase, writeExt := split83("WRITE.TXT")
	writeDirentBytes(rootSlot(4), writeBase, writeExt, 0, writeCluster, uint32(len(writeContents)))

	return blockdev.NewMemoryBackend(image, blockSize), nil
}

// MountLargeFAT32Root builds a FAT32 image whose root directory holds 200
// subdirectories named RTDIR001..RTDIR200 and one incidental file,
// GENFILES.PL, large enough (just over the FAT16 cluster-count ceiling) to
// mount as FAT32.
//
// Long file names are out of scope, so names are zero-padded to 3 digits
// (RTDIR001, not RTDIR0001) to fit an 8.3 short name's 8-character base.
func MountLargeFAT32Root() (*fatcore.FS, error) {
	dev, err := LargeFAT32RootDevice()
	if err != nil {
		return nil, err
	}
	return fatcore.Open(dev)
}

// LargeFAT32RootDevice builds and populates the same image as
// MountLargeFAT32Root, but returns the raw block device.
func LargeFAT32RootDevice() (*blockdev.MemoryBackend, error) {
	const (
		clusterSize    = 1
		reservedBlocks = 32
		fatCount       = 2
		fatSize        = 512
		dataClusters   = 65525 // one past fat16MaxClusterCount
		rootCluster    = 2
	)
	dataLba := uint(reservedBlocks + fatCount*fatSize)
	totalBlocks := dataLba + dataClusters*clusterSize

	image := make([]byte, totalBlocks*blockSize)
	putFAT1xBPB(image, clusterSize, reservedBlocks, fatCount, 0, 0, totalBlocks)

	ebpb := image[36:90]
	binary.LittleEndian.PutUint32(ebpb[0:4], uint32(fatSize))
	binary.LittleEndian.PutUint32(ebpb[8:12], uint32(rootCluster))
	ebpb[30] = 0x29 // ExtendedBootSignature: VolumeID/VolumeLabel/FSType are valid
	// VolumeID (uint32) occupies rel 31-34 and is left zero.
	putVolumeLabel(ebpb[35:46], "BIGROOT")
	copy(ebpb[46:54], []byte("FAT32   "))

	b := &fixtureBuilder{
		image:       image,
		fat32:       true,
		fatLba:      uint(reservedBlocks),
		dataLba:     dataLba,
		clusterSize: clusterSize,
		eoc:         0x0fffffff,
		nextCluster: rootCluster + 1,
	}
	// Mark the root cluster's FAT entry end-of-chain before the first Open,
	// so it's never mistaken for free space by an allocator walking the FAT.
	b.setFATEntry(rootCluster, b.eoc)

	w := b.newDirWriter(rootCluster)
	w.add("GENFILES", "PL", 0, 0, 0)
	for i := 1; i <= 200; i++ {
		name := formatRTDirName(i)
		dirCluster := b.newDirCluster(rootCluster)
		w.add(name, "", fatcore.AttrDirectory, dirCluster, 0)
	}

	return blockdev.NewMemoryBackend(image, blockSize), nil
}

func formatRTDirName(i int) string {
	digits := [3]byte{}
	for pos := 2; pos >= 0; pos-- {
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return "RTDIR" + string(digits[:])
}
