// Package fatxtest builds synthetic FATX partitions for tests and sample images.
package fatxtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	fatx "github.com/aligator/gofatx"
)

// Image is an in-memory FATX partition. The FAT is kept decoded and written on Bytes.
type Image struct {
	Platform fatx.Platform
	Geometry fatx.Geometry
	Root     uint32

	data []byte
	fat  []uint32
}

// NewImage creates an empty partition of length bytes with the root directory in cluster 1.
// It panics on invalid geometry, as it is only used with fixed test parameters.
func NewImage(platform fatx.Platform, sectorsPerCluster uint32, length int64) *Image {
	geometry, err := fatx.NewGeometry(length, sectorsPerCluster)
	if err != nil {
		panic(err)
	}

	img := &Image{
		Platform: platform,
		Geometry: geometry,
		Root:     1,
		data:     make([]byte, length),
		fat:      make([]uint32, geometry.MaxClusters),
	}

	img.fat[0] = fatx.ClusterMedia
	img.fat[img.Root] = fatx.ClusterLast
	img.writeSuperblock(sectorsPerCluster)
	return img
}

func (img *Image) writeSuperblock(sectorsPerCluster uint32) {
	sb := fatx.Superblock{
		Signature:           fatx.SuperblockMagic,
		SerialNumber:        0x1234ABCD,
		SectorsPerCluster:   sectorsPerCluster,
		RootDirFirstCluster: img.Root,
	}
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, img.Platform.ByteOrder(), &sb)
	copy(img.data, buf.Bytes())
}

// Clusters returns the number of clusters which physically fit into the file area.
func (img *Image) Clusters() uint32 {
	return uint32(img.Geometry.FileAreaLength / img.Geometry.BytesPerCluster)
}

// SetFat stores a raw FAT value.
func (img *Image) SetFat(cluster, value uint32) {
	img.fat[cluster] = value
}

// Chain links the clusters in order and terminates the last one.
func (img *Image) Chain(clusters ...uint32) {
	for i, c := range clusters {
		if i == len(clusters)-1 {
			img.fat[c] = fatx.ClusterLast
		} else {
			img.fat[c] = clusters[i+1]
		}
	}
}

// Offset returns the partition offset of cluster.
func (img *Image) Offset(cluster uint32) int64 {
	return img.Geometry.FileAreaOffset + int64(cluster-1)*img.Geometry.BytesPerCluster
}

// WriteEntry stores e in the given record slot of cluster and returns the record offset.
func (img *Image) WriteEntry(cluster uint32, slot int, e *fatx.DirectoryEntry) int64 {
	offset := img.Offset(cluster) + int64(slot)*fatx.DirentSize
	img.WriteAt(offset, e.Encode(img.Platform))
	return offset
}

// WriteData stores data starting at cluster, continuing into the following clusters.
func (img *Image) WriteData(cluster uint32, data []byte) {
	img.WriteAt(img.Offset(cluster), data)
}

func (img *Image) WriteAt(offset int64, data []byte) {
	if offset+int64(len(data)) > int64(len(img.data)) {
		panic(fmt.Sprintf("write of %d bytes at 0x%x exceeds image", len(data), offset))
	}
	copy(img.data[offset:], data)
}

// Bytes encodes the FAT and returns the whole partition.
func (img *Image) Bytes() []byte {
	buf := &bytes.Buffer{}
	order := img.Platform.ByteOrder()
	if img.Geometry.FatEntryWidth == 2 {
		entries := make([]uint16, len(img.fat))
		for i, e := range img.fat {
			entries[i] = uint16(e)
		}
		_ = binary.Write(buf, order, entries)
	} else {
		_ = binary.Write(buf, order, img.fat)
	}
	copy(img.data[img.Geometry.FatOffset:], buf.Bytes())
	return img.data
}

// Reader returns a fresh reader over Bytes.
func (img *Image) Reader() *bytes.Reader {
	return bytes.NewReader(img.Bytes())
}

// Entry creates a record with all three timestamps set to ts.
func Entry(platform fatx.Platform, name string, attributes byte, first, size uint32, ts time.Time) *fatx.DirectoryEntry {
	stamp := fatx.FromTime(ts, platform)
	e := &fatx.DirectoryEntry{
		Attributes:     attributes,
		FirstCluster:   first,
		FileSize:       size,
		CreationTime:   stamp,
		LastWriteTime:  stamp,
		LastAccessTime: stamp,
	}
	e.SetName(name)
	return e
}

// Deleted marks e as deleted the way the console does: the name length becomes 0xE5,
// the name itself stays in the buffer.
func Deleted(e *fatx.DirectoryEntry) *fatx.DirectoryEntry {
	e.NameLength = fatx.DeletedMarker
	return e
}

// Accessed sets the last access time of e.
func Accessed(e *fatx.DirectoryEntry, ts time.Time, platform fatx.Platform) *fatx.DirectoryEntry {
	e.LastAccessTime = fatx.FromTime(ts, platform)
	return e
}
