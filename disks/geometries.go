// Package disks provides named geometries for common FAT-formatted removable
// media, used by cmd/mufatutil's mkimage subcommand to size a fresh image
// without the caller spelling out sectors and heads by hand.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Geometry describes a physical disk's addressable layout, enough to compute
// its total byte size and a sensible default BIOS Parameter Block.
type Geometry struct {
	Slug            string `csv:"slug"`
	Name            string `csv:"name"`
	BytesPerSector  uint   `csv:"bytes_per_sector"`
	SectorsPerTrack uint   `csv:"sectors_per_track"`
	Heads           uint   `csv:"heads"`
	Cylinders       uint   `csv:"cylinders"`
}

// TotalSizeBytes gives the size of the storage device.
func (g *Geometry) TotalSizeBytes() int64 {
	return int64(g.BytesPerSector * g.SectorsPerTrack * g.Heads * g.Cylinders)
}

//go:embed disk-geometries.csv
var rawGeometriesCSV string

var geometries map[string]Geometry

// Lookup returns the predefined geometry for slug (e.g. "1.44mb", "720kb").
func Lookup(slug string) (Geometry, error) {
	g, ok := geometries[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined disk geometry named %q", slug)
	}
	return g, nil
}

func init() {
	geometries = make(map[string]Geometry)
	reader := strings.NewReader(rawGeometriesCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := geometries[row.Slug]; exists {
			return fmt.Errorf("duplicate definition for disk %q", row.Slug)
		}
		geometries[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}
