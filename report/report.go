// Package report persists the result of an analysis session as a YAML document.
// For every record it keeps the partition offset, the hosting cluster, the cluster chain
// and the child list, so a session can be inspected without the image.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/carver"
	"github.com/aligator/gofatx/checkpoint"
	"github.com/aligator/gofatx/recovery"
)

// These errors may occur while writing or reading reports.
var (
	ErrWriteReport = errors.New("could not write report")
	ErrReadReport  = errors.New("could not read report")
)

// Document is one analysis session.
type Document struct {
	Session string    `yaml:"session"`
	Created time.Time `yaml:"created"`
	Image   string    `yaml:"image,omitempty"`
	Volume  Volume    `yaml:"volume"`
	Files   []File    `yaml:"files"`
	Carved  []Carved  `yaml:"carved,omitempty"`
}

type Volume struct {
	Platform        string `yaml:"platform"`
	Serial          string `yaml:"serial"`
	BytesPerCluster int64  `yaml:"bytes_per_cluster"`
	MaxClusters     uint32 `yaml:"max_clusters"`
	FatEntryWidth   int64  `yaml:"fat_entry_width"`
	FileAreaOffset  int64  `yaml:"file_area_offset"`
	UsedSpace       int64  `yaml:"used_space"`
	FreeSpace       int64  `yaml:"free_space"`
}

// File is one ranked record. Parent and Children are indices into Document.Files, -1 is no parent.
type File struct {
	Name         string    `yaml:"name"`
	Path         string    `yaml:"path"`
	Offset       int64     `yaml:"offset"`
	Cluster      uint32    `yaml:"cluster"`
	FirstCluster uint32    `yaml:"first_cluster"`
	Size         uint32    `yaml:"size"`
	Attributes   byte      `yaml:"attributes"`
	Directory    bool      `yaml:"directory,omitempty"`
	Deleted      bool      `yaml:"deleted,omitempty"`
	Live         bool      `yaml:"live,omitempty"`
	Excluded     bool      `yaml:"excluded,omitempty"`
	Rank         int       `yaml:"rank"`
	Modified     time.Time `yaml:"modified"`
	Chain        []uint32  `yaml:"chain,flow"`
	Collisions   []uint32  `yaml:"collisions,flow,omitempty"`
	Parent       int       `yaml:"parent"`
	Children     []int     `yaml:"children,flow,omitempty"`
}

type Carved struct {
	Offset int64  `yaml:"offset"`
	Size   int64  `yaml:"size"`
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
}

// Build creates a document from a mounted volume, the ranked files and carved matches.
// ranker and matches may be nil. A nil clock uses time.Now.
func Build(volume *fatx.Volume, ranker *recovery.Ranker, matches []carver.Match, clock fatx.Clock) *Document {
	if clock == nil {
		clock = time.Now
	}

	doc := &Document{
		Session: uuid.New().String(),
		Created: clock().UTC(),
		Volume: Volume{
			Platform:        volume.Platform.String(),
			Serial:          fmt.Sprintf("%08X", volume.Superblock.SerialNumber),
			BytesPerCluster: volume.Geometry.BytesPerCluster,
			MaxClusters:     volume.Geometry.MaxClusters,
			FatEntryWidth:   volume.Geometry.FatEntryWidth,
			FileAreaOffset:  volume.Geometry.FileAreaOffset,
			UsedSpace:       volume.UsedSpace(),
			FreeSpace:       volume.FreeSpace(),
		},
	}

	if ranker != nil {
		for i, f := range ranker.Files() {
			e := f.Entry
			doc.Files = append(doc.Files, File{
				Name:         e.Name(),
				Path:         ranker.Path(i),
				Offset:       e.Offset,
				Cluster:      e.Cluster,
				FirstCluster: e.FirstCluster,
				Size:         e.FileSize,
				Attributes:   e.Attributes,
				Directory:    e.IsDirectory(),
				Deleted:      e.IsDeleted(),
				Live:         f.Live,
				Excluded:     f.Excluded,
				Rank:         int(f.Rank),
				Modified:     e.LastWriteTime.Time(),
				Chain:        f.Clusters,
				Collisions:   f.Collisions,
				Parent:       f.Parent,
				Children:     f.Children,
			})
		}
	}

	for _, m := range matches {
		doc.Carved = append(doc.Carved, Carved(m))
	}

	return doc
}

// Write stores doc as YAML at name.
func Write(fs afero.Fs, name string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteReport)
	}

	if err := afero.WriteFile(fs, name, data, 0644); err != nil {
		return checkpoint.Retryable(err, ErrWriteReport)
	}
	return nil
}

// Read loads a document written by Write.
func Read(fs afero.Fs, name string) (*Document, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadReport)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, checkpoint.Wrap(err, ErrReadReport)
	}
	return doc, nil
}
