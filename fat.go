package fatx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aligator/gofatx/checkpoint"
)

// FAT values are normalized to 32 bit. FAT16 sentinels (>= 0xFFF0) are sign extended.
const (
	ClusterAvailable uint32 = 0x00000000
	ClusterReserved  uint32 = 0xFFFFFFF0
	ClusterBad       uint32 = 0xFFFFFFF7
	ClusterMedia     uint32 = 0xFFFFFFF8
	ClusterLast      uint32 = 0xFFFFFFFF
)

// Geometry contains the layout of a volume which is derived from the partition length
// and the cluster size. All offsets are relative to the start of the partition.
type Geometry struct {
	BytesPerCluster int64
	MaxClusters     uint32
	FatEntryWidth   int64
	FatOffset       int64
	FatLength       int64
	FileAreaOffset  int64
	FileAreaLength  int64
}

// NewGeometry derives the volume layout:
//  max clusters = length / bytes per cluster + 1 (cluster 0 is reserved)
//  FAT size     = max clusters * entry width, rounded up to the next page
//  file area    = reserved header + FAT
func NewGeometry(length int64, sectorsPerCluster uint32) (Geometry, error) {
	if sectorsPerCluster == 0 {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("sectors per cluster is 0"), ErrFormat)
	}

	g := Geometry{
		BytesPerCluster: int64(sectorsPerCluster) * SectorSize,
		FatOffset:       ReservedSize,
	}

	clusters := length/g.BytesPerCluster + 1
	if clusters > int64(ClusterReserved) {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("volume of %d bytes has too many clusters", length), ErrFormat)
	}
	g.MaxClusters = uint32(clusters)

	g.FatEntryWidth = 2
	if g.MaxClusters >= fat16Threshold {
		g.FatEntryWidth = 4
	}

	g.FatLength = int64(g.MaxClusters) * g.FatEntryWidth
	if rest := g.FatLength % PageSize; rest != 0 {
		g.FatLength += PageSize - rest
	}

	g.FileAreaOffset = g.FatOffset + g.FatLength
	g.FileAreaLength = length - g.FileAreaOffset
	if g.FileAreaLength < 0 {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("volume of %d bytes is smaller than its FAT", length), ErrFormat)
	}

	return g, nil
}

// FatTable maps each cluster to the next cluster of its chain or to a sentinel.
// Index 0 is unused as cluster numbering starts at 1. The table is read-only after creation.
type FatTable struct {
	entries     []uint32
	width       int64
	maxClusters uint32
}

// NewFatTable creates a table from already decoded (and normalized) entries.
func NewFatTable(entries []uint32, maxClusters uint32) *FatTable {
	width := int64(2)
	if maxClusters >= fat16Threshold {
		width = 4
	}
	return &FatTable{
		entries:     entries,
		width:       width,
		maxClusters: maxClusters,
	}
}

// ReadFatTable reads maxClusters entries at offset.
// The entry width is 2 bytes if maxClusters < 0xFFF0 and 4 bytes otherwise.
func ReadFatTable(r io.ReaderAt, offset int64, maxClusters uint32, platform Platform) (*FatTable, error) {
	table := NewFatTable(make([]uint32, maxClusters), maxClusters)

	raw := make([]byte, int64(maxClusters)*table.width)
	if _, err := r.ReadAt(raw, offset); err != nil && err != io.EOF {
		return nil, checkpoint.Wrap(err, ErrReadFat)
	}

	reader := bytes.NewReader(raw)
	order := platform.ByteOrder()
	if table.width == 2 {
		entries := make([]uint16, maxClusters)
		if err := binary.Read(reader, order, entries); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadFat)
		}
		for i, e := range entries {
			table.entries[i] = normalizeFat16(e)
		}
	} else {
		if err := binary.Read(reader, order, table.entries); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadFat)
		}
	}

	return table, nil
}

func normalizeFat16(e uint16) uint32 {
	if e >= fat16Threshold {
		return 0xFFFF0000 | uint32(e)
	}
	return uint32(e)
}

// Len returns the number of entries including the unused entry 0.
func (t *FatTable) Len() int {
	return len(t.entries)
}

// Width returns the size of one on-disk entry in bytes.
func (t *FatTable) Width() int64 {
	return t.width
}

// Next returns the raw (normalized) value stored for cluster.
func (t *FatTable) Next(cluster uint32) (uint32, error) {
	if cluster == 0 || cluster >= uint32(len(t.entries)) {
		return 0, checkpoint.Wrap(fmt.Errorf("cluster %d, table length %d", cluster, len(t.entries)), ErrOutOfRange)
	}
	return t.entries[cluster], nil
}

// Chain returns the cluster chain starting at first.
//
// first == 0 or first outside of the table returns ErrOutOfRange.
// The walk ends at the first reserved, bad, media or last-cluster sentinel.
// A link to cluster 0, to a cluster outside of the table or a cycle means the FAT is corrupted.
// In that case the chain degrades to []uint32{first} instead of failing, so
// a corrupted FAT never blocks the entry itself.
func (t *FatTable) Chain(first uint32) ([]uint32, error) {
	if first == 0 || first > t.maxClusters || first >= uint32(len(t.entries)) {
		return nil, checkpoint.Wrap(fmt.Errorf("first cluster %d, max clusters %d", first, t.maxClusters), ErrOutOfRange)
	}

	chain := []uint32{first}
	cluster := first
	for {
		next := t.entries[cluster]
		if next >= ClusterReserved {
			return chain, nil
		}

		if next == ClusterAvailable || next >= uint32(len(t.entries)) || len(chain) >= len(t.entries) {
			return []uint32{first}, nil
		}

		chain = append(chain, next)
		cluster = next
	}
}

// FreeClusters counts the available entries, skipping the unused entry 0.
func (t *FatTable) FreeClusters() uint32 {
	var free uint32
	if len(t.entries) < 2 {
		return 0
	}
	for _, e := range t.entries[1:] {
		if e == ClusterAvailable {
			free++
		}
	}
	return free
}

// UsedClusters counts all entries which are neither available nor the unused entry 0.
func (t *FatTable) UsedClusters() uint32 {
	if len(t.entries) == 0 {
		return 0
	}
	return uint32(len(t.entries)-1) - t.FreeClusters()
}
