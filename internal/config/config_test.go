package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/recovery"
)

// loadFrom loads the config with files searched in an in-memory filesystem.
func loadFrom(t *testing.T, files map[string]string) *Config {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}

	v := New()
	v.SetFs(fs)
	config, err := Load(v)
	require.NoError(t, err)
	return config
}

func TestLoad_Defaults(t *testing.T) {
	config := loadFrom(t, nil)

	platform, err := config.PlatformValue()
	require.NoError(t, err)
	assert.Equal(t, fatx.Xbox360, platform)
	assert.Equal(t, 256, config.CacheSize)
	assert.Equal(t, uint32(1), config.ScanStart)
	assert.Equal(t, uint32(0), config.ScanEnd)
	assert.Equal(t, "cluster", config.CarveStride)
	assert.Equal(t, recovery.DefaultBlocklist, config.RankBlocklist)
	assert.Equal(t, recovery.RankRecovered, config.Rank())
	assert.Equal(t, "./recovered", config.OutputDir)

	level, err := config.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, level)
}

func TestLoad_File(t *testing.T) {
	config := loadFrom(t, map[string]string{
		"/etc/fatx/fatx-config.yaml": `
platform: xbox
cache_size: 16
carve_stride: "512"
rank_blocklist: [cache]
partition_offset: 0x80000
`,
	})

	platform, err := config.PlatformValue()
	require.NoError(t, err)
	assert.Equal(t, fatx.Xbox, platform)
	assert.Equal(t, 16, config.CacheSize)
	assert.Equal(t, "512", config.CarveStride)
	assert.Equal(t, []string{"cache"}, config.RankBlocklist)
	assert.Equal(t, int64(0x80000), config.PartitionOffset)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("FATX_PLATFORM", "xbox")
	t.Setenv("FATX_LOG_LEVEL", "debug")

	config := loadFrom(t, nil)
	assert.Equal(t, "xbox", config.Platform)
	level, err := config.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Platform: "xbox360", LogLevel: "info", CarveStride: "cluster", MaxRank: 1}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "platform", modify: func(c *Config) { c.Platform = "ps2" }, wantErr: true},
		{name: "log level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "stride", modify: func(c *Config) { c.CarveStride = "3" }, wantErr: true},
		{name: "rank", modify: func(c *Config) { c.MaxRank = 5 }, wantErr: true},
		{name: "partition", modify: func(c *Config) { c.PartitionOffset = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
