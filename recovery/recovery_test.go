package recovery

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/internal/fatxtest"
)

var platforms = []fatx.Platform{fatx.Xbox, fatx.Xbox360}

func fixedClock() time.Time {
	return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func mountSample(t *testing.T, platform fatx.Platform) *fatx.Volume {
	t.Helper()

	logger, _ := test.NewNullLogger()
	img := fatxtest.Sample(platform)
	source, err := fatx.NewSource(img.Reader(), 0, 0)
	require.NoError(t, err)

	volume, err := fatx.Mount(source, fatx.Options{
		Platform:  platform,
		CacheSize: 16,
		Logger:    logger,
	})
	require.NoError(t, err)
	return volume
}

func findEntry(t *testing.T, forest *fatx.Forest, name string) int {
	t.Helper()
	for i, e := range forest.Entries() {
		if e.Name() == name {
			return i
		}
	}
	t.Fatalf("no entry named %q", name)
	return -1
}

func findFile(t *testing.T, ranker *Ranker, name string) int {
	t.Helper()
	for i, f := range ranker.Files() {
		if f.Name() == name {
			return i
		}
	}
	t.Fatalf("no file named %q", name)
	return -1
}
