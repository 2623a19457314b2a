package fatx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aligator/gofatx/checkpoint"
)

// Options configure Mount.
type Options struct {
	Platform Platform
	// CacheSize is the number of clusters kept by the ClusterReader. 0 disables the cache.
	CacheSize int
	Logger    logrus.FieldLogger
}

// Volume is a mounted FATX partition. Everything except the used and free space queries
// is fixed at mount time.
type Volume struct {
	Platform   Platform
	Superblock Superblock
	Geometry   Geometry

	source   *Source
	fat      *FatTable
	clusters *ClusterReader
	tree     *Forest
	log      logrus.FieldLogger
}

// Mount reads the superblock, derives the geometry, reads the FAT and indexes the live directory tree.
// A wrong signature returns ErrFormat.
func Mount(source *Source, opts Options) (*Volume, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	v := &Volume{
		Platform: opts.Platform,
		source:   source,
		log:      log.WithField("platform", opts.Platform.String()),
	}

	if err := v.readSuperblock(); err != nil {
		return nil, err
	}

	geometry, err := NewGeometry(source.Size(), v.Superblock.SectorsPerCluster)
	if err != nil {
		return nil, err
	}
	v.Geometry = geometry

	v.fat, err = ReadFatTable(source, geometry.FatOffset, geometry.MaxClusters, v.Platform)
	if err != nil {
		return nil, err
	}
	v.clusters = NewClusterReader(source, geometry, opts.CacheSize)

	v.log.WithFields(logrus.Fields{
		"serial":          fmt.Sprintf("%08X", v.Superblock.SerialNumber),
		"bytesPerCluster": geometry.BytesPerCluster,
		"maxClusters":     geometry.MaxClusters,
		"fatWidth":        geometry.FatEntryWidth,
		"fileArea":        geometry.FileAreaOffset,
	}).Info("mounted FATX volume")

	v.tree, err = IndexTree(v.clusters, v.fat, v.Superblock.RootDirFirstCluster, v.Platform, v.log)
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Volume) readSuperblock() error {
	buf := make([]byte, 16)
	n, err := v.source.ReadAt(buf, 0)
	if n < len(buf) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return checkpoint.Wrap(err, ErrFormat)
	}
	if err != nil && err != io.EOF {
		return checkpoint.Wrap(err, ErrFormat)
	}

	// Every field is swapped on its own on big endian volumes.
	if err := binary.Read(bytes.NewReader(buf), v.Platform.ByteOrder(), &v.Superblock); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	if v.Superblock.Signature != SuperblockMagic {
		return checkpoint.Wrap(fmt.Errorf("signature 0x%08X, want 0x%08X", v.Superblock.Signature, SuperblockMagic), ErrFormat)
	}

	return nil
}

func (v *Volume) Source() *Source {
	return v.source
}

func (v *Volume) Fat() *FatTable {
	return v.fat
}

func (v *Volume) Clusters() *ClusterReader {
	return v.clusters
}

// Tree returns the live directory forest.
func (v *Volume) Tree() *Forest {
	return v.tree
}

// Validator returns a validator bound to this volume, judging timestamps against now.
// A nil clock uses time.Now.
func (v *Volume) Validator(now Clock) Validator {
	if now == nil {
		now = time.Now
	}
	return Validator{
		Platform:    v.Platform,
		MaxClusters: v.Geometry.MaxClusters,
		Now:         now(),
	}
}

func (v *Volume) UsedSpace() int64 {
	return int64(v.fat.UsedClusters()) * v.Geometry.BytesPerCluster
}

func (v *Volume) FreeSpace() int64 {
	return int64(v.fat.FreeClusters()) * v.Geometry.BytesPerCluster
}

func (v *Volume) Logger() logrus.FieldLogger {
	return v.log
}
