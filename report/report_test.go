package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/carver"
	"github.com/aligator/gofatx/checkpoint"
	"github.com/aligator/gofatx/internal/fatxtest"
	"github.com/aligator/gofatx/recovery"
)

func fixedClock() time.Time {
	return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func analyzeSample(t *testing.T) *Document {
	t.Helper()

	logger, _ := test.NewNullLogger()
	source, err := fatx.NewSource(fatxtest.Sample(fatx.Xbox360).Reader(), 0, 0)
	require.NoError(t, err)
	volume, err := fatx.Mount(source, fatx.Options{Platform: fatx.Xbox360, Logger: logger})
	require.NoError(t, err)

	forest, err := recovery.NewScanner(volume, recovery.ScanOptions{Clock: fixedClock, Logger: logger}).Scan(context.Background(), 0, 0)
	require.NoError(t, err)
	ranker := recovery.NewRanker(volume, recovery.RankerOptions{Logger: logger})
	ranker.MergeLive(volume.Tree())
	ranker.MergeRecovered(forest)
	ranker.Recompute()

	matches, err := carver.NewForVolume(volume, carver.Options{Logger: logger}).
		Carve(context.Background(), volume.Geometry.FileAreaOffset, 0, volume.Geometry.BytesPerCluster)
	require.NoError(t, err)

	return Build(volume, ranker, matches, fixedClock)
}

func TestBuild(t *testing.T) {
	doc := analyzeSample(t)

	_, err := uuid.Parse(doc.Session)
	assert.NoError(t, err)
	assert.Equal(t, fixedClock(), doc.Created)
	assert.Equal(t, "xbox360", doc.Volume.Platform)
	assert.Equal(t, "1234ABCD", doc.Volume.Serial)
	assert.Equal(t, int64(512), doc.Volume.BytesPerCluster)
	assert.Len(t, doc.Files, 11)
	assert.Len(t, doc.Carved, 5)

	var cached *File
	for i := range doc.Files {
		if doc.Files[i].Name == "cached.bin" {
			cached = &doc.Files[i]
		}
	}
	require.NotNil(t, cached)
	assert.Equal(t, "Content/Cache/cached.bin", cached.Path)
	assert.Equal(t, uint32(8), cached.Cluster)
	assert.Equal(t, []uint32{9, 10, 11}, cached.Chain)
	assert.Equal(t, []uint32{11}, cached.Collisions)
	assert.Equal(t, int(recovery.RankContested), cached.Rank)
	assert.Equal(t, "Cache", doc.Files[cached.Parent].Name)
	assert.Contains(t, doc.Files[cached.Parent].Children, indexOf(doc, cached))
}

func indexOf(doc *Document, f *File) int {
	for i := range doc.Files {
		if &doc.Files[i] == f {
			return i
		}
	}
	return -1
}

func TestWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := analyzeSample(t)

	require.NoError(t, Write(fs, "session.yaml", doc))

	read, err := Read(fs, "session.yaml")
	require.NoError(t, err)
	assert.Equal(t, doc.Session, read.Session)
	assert.True(t, doc.Created.Equal(read.Created))
	assert.Equal(t, doc.Volume, read.Volume)
	assert.Equal(t, doc.Carved, read.Carved)
	require.Len(t, read.Files, len(doc.Files))
	for i := range doc.Files {
		assert.Equal(t, doc.Files[i].Offset, read.Files[i].Offset)
		assert.Equal(t, doc.Files[i].Chain, read.Files[i].Chain)
		assert.Equal(t, doc.Files[i].Parent, read.Files[i].Parent)
		assert.Equal(t, doc.Files[i].Children, read.Files[i].Children)
	}
}

func TestWriteReadErrors(t *testing.T) {
	err := Write(afero.NewReadOnlyFs(afero.NewMemMapFs()), "session.yaml", &Document{})
	assert.True(t, errors.Is(err, ErrWriteReport))
	assert.True(t, checkpoint.IsRetryable(err))

	_, err = Read(afero.NewMemMapFs(), "missing.yaml")
	assert.True(t, errors.Is(err, ErrReadReport))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "broken.yaml", []byte("files: [: nope"), 0644))
	_, err = Read(fs, "broken.yaml")
	assert.True(t, errors.Is(err, ErrReadReport))
}
