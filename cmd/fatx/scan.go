package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/carver"
	"github.com/aligator/gofatx/recovery"
	"github.com/aligator/gofatx/report"
)

var reportFile string

var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Scan clusters for directory entries",
	Long: `Scan every cluster of the file area for directory entries, independent of the FAT.
Found entries are linked into a forest: a directory adopts all entries hosted by its first cluster.

An interrupt stops the scan, the entries found so far are still linked and printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		forest, err := scan(cmd.Context(), img.volume)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		fmt.Printf("%d entries, %d roots\n", forest.Len(), len(forest.Roots()))
		return printForest(forest, true)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank [image]",
	Short: "Rank live and recovered files",
	Long: `Merge the live tree with the scanned entries and rank every file:
  0 clean                  live and not deleted
  1 recovered              deleted, no cluster is claimed by another file
  2 contested              shares clusters, but no other claimant was accessed later
  3 partially-overwritten  a later accessed file claims some of its clusters
  4 overwritten            every cluster is claimed by another file

Examples:
  # Rank and keep the result
  fatx rank partition3.img --report session.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		ranker, err := rank(cmd.Context(), img.volume)
		if err != nil {
			return err
		}

		for _, index := range ranker.ByRank() {
			f := ranker.File(index)
			fmt.Printf("%d %-22s %10d  0x%010X  %s\n", f.Rank, f.Rank, f.Entry.FileSize, f.Offset(), ranker.Path(index))
		}

		if reportFile != "" {
			return writeReport(img.volume, ranker, nil, args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rankCmd)

	scanCmd.Flags().Uint32("start", 0, "first cluster to scan")
	scanCmd.Flags().Uint32("end", 0, "last cluster to scan, 0 for the last cluster of the file area")
	bindFlag(scanCmd.Flags().Lookup("start"), "scan_start")
	bindFlag(scanCmd.Flags().Lookup("end"), "scan_end")

	rankCmd.Flags().StringSlice("blocklist", nil, "name prefixes excluded from collision accounting")
	rankCmd.Flags().StringVar(&reportFile, "report", "", "write the ranked files as YAML to this file")
	bindFlag(rankCmd.Flags().Lookup("blocklist"), "rank_blocklist")
}

func scan(ctx context.Context, volume *fatx.Volume) (*fatx.Forest, error) {
	scanner := recovery.NewScanner(volume, recovery.ScanOptions{
		Progress: progress("scan"),
		Logger:   volume.Logger(),
	})
	return scanner.Scan(ctx, cfg.ScanStart, cfg.ScanEnd)
}

// rank scans the volume and ranks the result together with the live tree.
// A cancelled scan ranks whatever was found until then.
func rank(ctx context.Context, volume *fatx.Volume) (*recovery.Ranker, error) {
	forest, err := scan(ctx, volume)
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	ranker := recovery.NewRanker(volume, recovery.RankerOptions{
		Blocklist: cfg.RankBlocklist,
		Logger:    volume.Logger(),
	})
	ranker.MergeLive(volume.Tree())
	ranker.MergeRecovered(forest)
	ranker.Recompute()
	return ranker, nil
}

func writeReport(volume *fatx.Volume, ranker *recovery.Ranker, matches []carver.Match, imagePath string) error {
	doc := report.Build(volume, ranker, matches, nil)
	doc.Image = imagePath
	if err := report.Write(osFs, reportFile, doc); err != nil {
		return err
	}

	log.WithField("session", doc.Session).Infof("wrote report to %s", reportFile)
	return nil
}
