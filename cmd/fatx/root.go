package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/internal/config"
)

var (
	configFile string
	verbose    bool

	// settings is the viper instance all flags are bound to. cfg is loaded from it before every command.
	settings = config.New()
	cfg      *config.Config
	log      = logrus.New()

	// osFs is where images are read from and recovered files are written to.
	osFs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "fatx",
	Short: "Forensic analysis and recovery for FATX partitions",
	Long: `fatx reads FATX partitions of the Xbox and the Xbox 360 from raw images.

It lists the live directory tree, brute-force scans for deleted directory entries,
ranks recovered files by how likely their clusters were overwritten and carves
files without any directory entry by their format signature.

Commands:
  info        Show the superblock and geometry
  ls          List the live directory tree
  scan        Scan clusters for directory entries
  rank        Rank live and recovered files
  carve       Carve files by signature
  extract     Extract ranked files`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			settings.SetConfigFile(configFile)
		}

		var err error
		cfg, err = config.Load(settings)
		if err != nil {
			return err
		}

		level, _ := cfg.Level()
		if verbose {
			level = logrus.DebugLevel
		}
		log.SetLevel(level)
		log.SetOutput(os.Stderr)
		return nil
	},
}

// Execute runs the root command. An interrupt cancels long running scans, which still print partial results.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: fatx-config.yaml in ., ./config, $HOME/.fatx, /etc/fatx)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringP("platform", "p", "", "xbox (little endian) or xbox360 (big endian)")
	flags.Int64("offset", 0, "byte offset of the partition inside the image")
	flags.Int64("length", 0, "byte length of the partition, 0 for up to the end of the image")
	flags.Int("cache-size", 0, "number of clusters kept in memory")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	bindFlag(flags.Lookup("platform"), "platform")
	bindFlag(flags.Lookup("offset"), "partition_offset")
	bindFlag(flags.Lookup("length"), "partition_length")
	bindFlag(flags.Lookup("cache-size"), "cache_size")
	bindFlag(flags.Lookup("log-level"), "log_level")
}

// image is an opened and mounted partition image.
type image struct {
	file   afero.File
	volume *fatx.Volume
}

func (img *image) Close() error {
	return img.file.Close()
}

// openImage opens the image at path and mounts the partition selected by the config.
func openImage(path string) (*image, error) {
	platform, err := cfg.PlatformValue()
	if err != nil {
		return nil, err
	}

	file, err := osFs.Open(path)
	if err != nil {
		return nil, err
	}

	source, err := fatx.NewSource(file, cfg.PartitionOffset, cfg.PartitionLength)
	if err != nil {
		file.Close()
		return nil, err
	}

	volume, err := fatx.Mount(source, fatx.Options{
		Platform:  platform,
		CacheSize: cfg.CacheSize,
		Logger:    log.WithField("image", path),
	})
	if err != nil {
		file.Close()
		return nil, err
	}

	return &image{file: file, volume: volume}, nil
}
