package fatx

import (
	"fmt"
	"io"

	"github.com/bluele/gcache"

	"github.com/aligator/gofatx/checkpoint"
)

// ClusterReader translates cluster indices into partition offsets and reads whole clusters
// from the file area. Cluster numbering is 1-based.
//
// Recently read clusters are kept in an LRU cache. Returned slices are shared with
// the cache and must not be modified.
type ClusterReader struct {
	source          io.ReaderAt
	fileAreaOffset  int64
	bytesPerCluster int64
	maxClusters     uint32
	cache           gcache.Cache
}

// NewClusterReader creates a reader for the file area described by g.
// cacheSize <= 0 disables the cache.
func NewClusterReader(source io.ReaderAt, g Geometry, cacheSize int) *ClusterReader {
	c := &ClusterReader{
		source:          source,
		fileAreaOffset:  g.FileAreaOffset,
		bytesPerCluster: g.BytesPerCluster,
		maxClusters:     g.MaxClusters,
	}

	if cacheSize > 0 {
		c.cache = gcache.New(cacheSize).
			LRU().
			LoaderFunc(func(key interface{}) (interface{}, error) {
				return c.load(key.(uint32))
			}).
			Build()
	}

	return c
}

func (c *ClusterReader) BytesPerCluster() int64 {
	return c.bytesPerCluster
}

func (c *ClusterReader) MaxClusters() uint32 {
	return c.maxClusters
}

// Offset returns the offset of cluster relative to the start of the file area:
//  (cluster - 1) * bytes per cluster
func (c *ClusterReader) Offset(cluster uint32) int64 {
	return (int64(cluster) - 1) * c.bytesPerCluster
}

// PhysicalOffset returns the offset of cluster relative to the start of the partition.
func (c *ClusterReader) PhysicalOffset(cluster uint32) int64 {
	return c.fileAreaOffset + c.Offset(cluster)
}

// ClusterAt returns the cluster containing the partition offset, or 0 if the offset lies before the file area.
func (c *ClusterReader) ClusterAt(offset int64) uint32 {
	if offset < c.fileAreaOffset {
		return 0
	}
	return uint32((offset-c.fileAreaOffset)/c.bytesPerCluster) + 1
}

// Read returns exactly one cluster.
func (c *ClusterReader) Read(cluster uint32) ([]byte, error) {
	if cluster == 0 || cluster >= c.maxClusters {
		return nil, checkpoint.Wrap(fmt.Errorf("cluster %d, max clusters %d", cluster, c.maxClusters), ErrOutOfRange)
	}

	if c.cache == nil {
		return c.load(cluster)
	}

	data, err := c.cache.Get(cluster)
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

func (c *ClusterReader) load(cluster uint32) ([]byte, error) {
	data := make([]byte, c.bytesPerCluster)
	n, err := c.source.ReadAt(data, c.PhysicalOffset(cluster))
	if int64(n) == c.bytesPerCluster && err == io.EOF {
		err = nil
	}
	if err != nil {
		// A cluster cut off by the end of the source is not a clean end of file.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, checkpoint.Wrap(err, fmt.Errorf("%w %d", ErrReadCluster, cluster))
	}
	return data, nil
}
