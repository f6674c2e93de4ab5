// Command mufatutil inspects and edits FAT12/16/32 disk images from the
// command line.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"

	"github.com/mufs/fat"
	"github.com/mufs/fat/blockdev"
	"github.com/mufs/fat/disks"
)

var imageFlags = []cli.Flag{
	&cli.Int64Flag{Name: "offset", Value: 0, Usage: "byte offset of the volume within the image, for partitioned images"},
	&cli.UintFlag{Name: "logical-block-size", Value: 0, Usage: "logical block size to present over the image's native 512-byte sectors, via a ScalingBackend; 0 disables scaling"},
}

func main() {
	app := &cli.App{
		Name:  "mufatutil",
		Usage: "inspect and edit FAT12/16/32 disk images",
		Commands: []*cli.Command{
			mountInfoCommand,
			lsCommand,
			catCommand,
			cpInCommand,
			cpOutCommand,
			mkimageCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// closer is satisfied by both blockdev.FileBackend and blockdev.ScalingBackend's
// inner file, so cmd actions can defer-close whichever one they opened.
type closer interface {
	Close() error
}

func openImage(c *cli.Context, path string, writable bool) (*fat.Filesystem, closer, error) {
	file, err := blockdev.OpenFileBackend(path, 512, c.Int64("offset"), writable)
	if err != nil {
		return nil, nil, err
	}

	var dev blockdev.BlockDevice = file
	if logical := c.Uint("logical-block-size"); logical != 0 {
		scaled, err := blockdev.NewScalingBackend(file, logical)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		dev = scaled
	}

	fs, err := fat.Mount(dev)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return fs, file, nil
}

var mountInfoCommand = &cli.Command{
	Name:      "mount-info",
	Usage:     "print a disk image's volume label and FAT variant",
	ArgsUsage: "<image>",
	Flags:     imageFlags,
	Action: func(c *cli.Context) error {
		fs, dev, err := openImage(c, c.Args().First(), false)
		if err != nil {
			return err
		}
		defer dev.Close()

		fmt.Printf("type:  %s\n", fs.SubType())
		fmt.Printf("label: %s\n", fs.VolumeLabel())
		return nil
	},
}

// csvRow is the row shape emitted by "ls --format=csv".
type csvRow struct {
	Name string `csv:"name"`
	Type string `csv:"type"`
	Size uint   `csv:"size"`
}

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "list a directory's contents",
	ArgsUsage: "<image> [path]",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "format", Value: "text", Usage: "text or csv"},
	}, imageFlags...),
	Action: func(c *cli.Context) error {
		path := c.Args().Get(1)
		if path == "" {
			path = "/"
		}

		fs, dev, err := openImage(c, c.Args().First(), false)
		if err != nil {
			return err
		}
		defer dev.Close()

		entries, err := fs.ReadDir(path)
		if err != nil {
			return err
		}

		if c.String("format") == "csv" {
			rows := make([]csvRow, 0, len(entries))
			for _, e := range entries {
				kind := "file"
				if e.IsDir() {
					kind = "dir"
				}
				rows = append(rows, csvRow{Name: e.Name(), Type: kind, Size: e.Size()})
			}
			out, err := gocsv.MarshalString(&rows)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}

		for _, e := range entries {
			kind := "F"
			if e.IsDir() {
				kind = "D"
			}
			fmt.Printf("%s %8d  %s\n", kind, e.Size(), e.Name())
		}
		return nil
	},
}

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "print a file's contents to stdout",
	ArgsUsage: "<image> <path>",
	Flags:     imageFlags,
	Action: func(c *cli.Context) error {
		fs, dev, err := openImage(c, c.Args().First(), false)
		if err != nil {
			return err
		}
		defer dev.Close()

		node, err := fs.Open(c.Args().Get(1))
		if err != nil {
			return err
		}
		if node.IsDir() {
			return fmt.Errorf("%s: is a directory", c.Args().Get(1))
		}

		buffer := make([]byte, 4096)
		for {
			n, err := node.Read(buffer)
			if n > 0 {
				os.Stdout.Write(buffer[:n])
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	},
}

var cpInCommand = &cli.Command{
	Name:      "cp-in",
	Usage:     "copy a local file into the image (file creation is unavailable, so this reports \"operation not available\")",
	ArgsUsage: "<image> <local-path> <image-path>",
	Flags:     imageFlags,
	Action: func(c *cli.Context) error {
		fs, dev, err := openImage(c, c.Args().First(), true)
		if err != nil {
			return err
		}
		defer dev.Close()

		contents, err := os.ReadFile(c.Args().Get(1))
		if err != nil {
			return err
		}

		node, err := fs.Create(c.Args().Get(2))
		if err != nil {
			return err
		}
		_, err = node.Write(contents)
		return err
	},
}

var cpOutCommand = &cli.Command{
	Name:      "cp-out",
	Usage:     "copy a file out of the image to a local path",
	ArgsUsage: "<image> <image-path> <local-path>",
	Flags:     imageFlags,
	Action: func(c *cli.Context) error {
		fs, dev, err := openImage(c, c.Args().First(), false)
		if err != nil {
			return err
		}
		defer dev.Close()

		node, err := fs.Open(c.Args().Get(1))
		if err != nil {
			return err
		}

		contents := make([]byte, node.Size())
		if _, err := node.Read(contents); err != nil && err != io.EOF {
			return err
		}
		return os.WriteFile(c.Args().Get(2), contents, 0o644)
	},
}

var mkimageCommand = &cli.Command{
	Name:      "mkimage",
	Usage:     "create a blank, zero-filled disk image of a predefined geometry",
	ArgsUsage: "<image>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "geometry", Value: "1.44mb", Usage: "predefined geometry slug"},
	},
	Action: func(c *cli.Context) error {
		geometry, err := disks.Lookup(c.String("geometry"))
		if err != nil {
			return err
		}

		f, err := os.Create(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()

		return f.Truncate(geometry.TotalSizeBytes())
	},
}
