package main

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aligator/gofatx/carver"
	"github.com/aligator/gofatx/checkpoint"
	"github.com/aligator/gofatx/recovery"
)

var (
	carveStart   int64
	carveEnd     int64
	carveExtract bool
	carveReport  string
)

var carveCmd = &cobra.Command{
	Use:   "carve [image]",
	Short: "Carve files by signature",
	Long: `Test every stride step of the file area for known file signatures
(PE, WAV, XBE, XEX, XMV, XPR, PDB, LIVE).

The scan always advances by one stride, so files closer together than
the stride are not found. Smaller strides find more, but take longer.

Examples:
  # Carve at every cluster and write the files to ./recovered
  fatx carve partition3.img --extract

  # Carve at every sector
  fatx carve partition3.img --stride 512`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		v := img.volume
		stride, err := carver.ParseStride(cfg.CarveStride, v.Geometry.BytesPerCluster)
		if err != nil {
			return err
		}

		start := carveStart
		if start == 0 {
			start = v.Geometry.FileAreaOffset
		}

		c := carver.NewForVolume(v, carver.Options{Progress: progress("carve")})
		matches, err := c.Carve(cmd.Context(), start, carveEnd, stride)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		for _, m := range matches {
			fmt.Printf("0x%010X  %-5s %10d  %s\n", m.Offset, m.Format, m.Size, m.Name)
		}

		if carveExtract {
			dir := path.Join(cfg.OutputDir, "carved")
			x := recovery.NewExtractor(v, osFs, recovery.ExtractOptions{Logger: v.Logger()})
			for _, m := range matches {
				if m.Size <= 0 {
					log.WithField("offset", m.Offset).Warnf("skipping %s without size", m.Format)
					continue
				}
				if _, err := retry(func() (string, error) {
					return x.ExtractRange(m.Offset, m.Size, dir, m.Name)
				}); err != nil {
					return err
				}
			}
		}

		if carveReport != "" {
			reportFile = carveReport
			return writeReport(v, nil, matches, args[0])
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [image]",
	Short: "Extract ranked files",
	Long: `Scan and rank the image and write every file up to the maximum rank
into a new session folder below the output directory.

Examples:
  # Extract live and undamaged deleted files
  fatx extract partition3.img --max-rank 1 --output ./recovered`,
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

		dir := path.Join(cfg.OutputDir, uuid.New().String())
		x := recovery.NewExtractor(img.volume, osFs, recovery.ExtractOptions{
			MaxRank:  cfg.Rank(),
			Progress: progress("extract"),
			Logger:   img.volume.Logger(),
		})

		written, err := x.ExtractAll(cmd.Context(), ranker, dir)
		if err != nil {
			return err
		}

		fmt.Printf("extracted %d files to %s\n", written, dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(carveCmd)
	rootCmd.AddCommand(extractCmd)

	carveCmd.Flags().String("stride", "", "1, 16, 512, 4096 or cluster")
	carveCmd.Flags().Int64Var(&carveStart, "start", 0, "first partition offset, 0 for the start of the file area")
	carveCmd.Flags().Int64Var(&carveEnd, "end", 0, "end partition offset, 0 for the end of the partition")
	carveCmd.Flags().BoolVar(&carveExtract, "extract", false, "write the carved files into the output directory")
	carveCmd.Flags().StringVar(&carveReport, "report", "", "write the matches as YAML to this file")
	bindFlag(carveCmd.Flags().Lookup("stride"), "carve_stride")

	extractCmd.Flags().Int("max-rank", 0, "extract files ranked at most this (0-4)")
	extractCmd.Flags().StringP("output", "o", "", "output directory")
	bindFlag(extractCmd.Flags().Lookup("max-rank"), "max_rank")
	bindFlag(extractCmd.Flags().Lookup("output"), "output_dir")
}

// retry runs write up to three times as long as it fails with a retryable error.
func retry(write func() (string, error)) (string, error) {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var target string
		target, err = write()
		if err == nil || !checkpoint.IsRetryable(err) {
			return target, err
		}
		log.WithError(err).Warnf("write failed, attempt %d", attempt+1)
	}
	return "", err
}
