package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	fatx "github.com/aligator/gofatx"
)

// main is just a example main to play with the read-only FATX filesystem.
// Usage: example <image> [xbox|xbox360] [file to print]
func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) <= 0 {
		fmt.Println("Please provide a filename.")
		os.Exit(1)
	}

	platform := fatx.Xbox360
	if len(argsWithoutProg) > 1 {
		var err error
		platform, err = fatx.ParsePlatform(argsWithoutProg[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	fsFile, err := os.Open(argsWithoutProg[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	defer fsFile.Close()

	fat, err := fatx.New(fsFile, fatx.Options{Platform: platform, CacheSize: 64})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	volume := fat.Volume()
	fmt.Printf("Opened %v volume %08X with %d bytes per cluster, %d bytes free\n\n",
		volume.Platform, volume.Superblock.SerialNumber, volume.Geometry.BytesPerCluster, volume.FreeSpace())

	afero.Walk(fat, "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size(), info.ModTime())
		return nil
	})

	if len(argsWithoutProg) <= 2 {
		return
	}

	file, err := fat.Open(argsWithoutProg[2])
	if err != nil {
		fmt.Println("could not open the file", err)
		os.Exit(1)
	}

	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		fmt.Println("could not stat the file", err)
		os.Exit(1)
	}

	buffer := make([]byte, 64)
	offset, err := file.Seek(stat.Size()/2, io.SeekStart)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}

	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Printf("\n%d bytes of %s at offset %d:\n%x\n", n, stat.Name(), offset, buffer[:n])
}
