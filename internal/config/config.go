// Package config loads the settings of the fatx tool from a config file, the environment and flags.
package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/carver"
	"github.com/aligator/gofatx/recovery"
)

// Config holds all settings. Zero values of ScanEnd and PartitionLength mean "up to the end".
type Config struct {
	Platform        string   `mapstructure:"platform"`
	CacheSize       int      `mapstructure:"cache_size"`
	ScanStart       uint32   `mapstructure:"scan_start"`
	ScanEnd         uint32   `mapstructure:"scan_end"`
	CarveStride     string   `mapstructure:"carve_stride"`
	RankBlocklist   []string `mapstructure:"rank_blocklist"`
	MaxRank         int      `mapstructure:"max_rank"`
	LogLevel        string   `mapstructure:"log_level"`
	PartitionOffset int64    `mapstructure:"partition_offset"`
	PartitionLength int64    `mapstructure:"partition_length"`
	OutputDir       string   `mapstructure:"output_dir"`
}

// New creates a viper instance with the search paths, the environment prefix and all defaults.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("fatx-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.fatx")
	v.AddConfigPath("/etc/fatx")

	v.SetDefault("platform", fatx.Xbox360.String())
	v.SetDefault("cache_size", 256)
	v.SetDefault("scan_start", 1)
	v.SetDefault("scan_end", 0)
	v.SetDefault("carve_stride", "cluster")
	v.SetDefault("rank_blocklist", recovery.DefaultBlocklist)
	v.SetDefault("max_rank", int(recovery.RankRecovered))
	v.SetDefault("log_level", logrus.InfoLevel.String())
	v.SetDefault("partition_offset", 0)
	v.SetDefault("partition_length", 0)
	v.SetDefault("output_dir", "./recovered")

	v.SetEnvPrefix("FATX")
	v.AutomaticEnv()

	return v
}

// Load reads the config file if one exists and decodes all settings.
// A missing config file is not an error, the defaults are used then.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings which are only parsed later.
func (c *Config) Validate() error {
	if _, err := c.PlatformValue(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := carver.ParseStride(c.CarveStride, fatx.SectorSize); err != nil {
		return fmt.Errorf("carve_stride: %w", err)
	}
	if c.MaxRank < int(recovery.RankClean) || c.MaxRank > int(recovery.RankOverwritten) {
		return fmt.Errorf("max_rank %d is not in 0..4", c.MaxRank)
	}
	if c.PartitionOffset < 0 || c.PartitionLength < 0 {
		return fmt.Errorf("negative partition offset or length")
	}
	return nil
}

func (c *Config) PlatformValue() (fatx.Platform, error) {
	return fatx.ParsePlatform(c.Platform)
}

func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

func (c *Config) Rank() recovery.Rank {
	return recovery.Rank(c.MaxRank)
}
