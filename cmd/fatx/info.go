package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	fatx "github.com/aligator/gofatx"
)

var infoCmd = &cobra.Command{
	Use:   "info [image]",
	Short: "Show the superblock and geometry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		v := img.volume
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Platform:\t%v\n", v.Platform)
		fmt.Fprintf(w, "Serial number:\t%08X\n", v.Superblock.SerialNumber)
		fmt.Fprintf(w, "Partition size:\t%s\n", sizeString(v.Source().Size()))
		fmt.Fprintf(w, "Sectors per cluster:\t%d\n", v.Superblock.SectorsPerCluster)
		fmt.Fprintf(w, "Bytes per cluster:\t%d\n", v.Geometry.BytesPerCluster)
		fmt.Fprintf(w, "Max clusters:\t%d\n", v.Geometry.MaxClusters)
		fmt.Fprintf(w, "FAT:\tFAT%d at 0x%X, %d bytes\n", v.Geometry.FatEntryWidth*8, v.Geometry.FatOffset, v.Geometry.FatLength)
		fmt.Fprintf(w, "File area:\t0x%X, %d bytes\n", v.Geometry.FileAreaOffset, v.Geometry.FileAreaLength)
		fmt.Fprintf(w, "Root cluster:\t%d\n", v.Superblock.RootDirFirstCluster)
		fmt.Fprintf(w, "Used:\t%s\n", sizeString(v.UsedSpace()))
		fmt.Fprintf(w, "Free:\t%s\n", sizeString(v.FreeSpace()))
		return w.Flush()
	},
}

var lsAll bool

var lsCmd = &cobra.Command{
	Use:   "ls [image]",
	Short: "List the live directory tree",
	Long: `List the live directory tree as indexed from the root cluster.

Examples:
  # List a Xbox 360 partition image
  fatx ls partition3.img

  # Include deleted entries of the live tree
  fatx ls --platform xbox --all partition.img`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		return printForest(img.volume.Tree(), lsAll)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "include deleted entries")
}

// printForest prints every entry indented by its depth.
func printForest(forest *fatx.Forest, deleted bool) error {
	return forest.Walk(func(index int, e *fatx.DirectoryEntry, depth int) error {
		if e.IsDeleted() && !deleted {
			return fatx.SkipDir
		}

		name := e.Name()
		if e.IsDirectory() {
			name += "/"
		}
		marker := " "
		if e.IsDeleted() {
			marker = "x"
		}

		fmt.Printf("%s %s%-*s %10d  %s  cluster %d\n",
			marker,
			strings.Repeat("  ", depth), 42-2*depth, name,
			e.FileSize,
			e.LastWriteTime.Time().Format("2006-01-02 15:04:05"),
			e.FirstCluster)
		return nil
	})
}
