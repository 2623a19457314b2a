package fatx

import (
	"github.com/sirupsen/logrus"

	"github.com/aligator/gofatx/checkpoint"
)

// clusterSource provides everything the tree indexer needs from a volume.
type clusterSource interface {
	Read(cluster uint32) ([]byte, error)
	PhysicalOffset(cluster uint32) int64
	BytesPerCluster() int64
}

// chainResolver resolves cluster chains.
type chainResolver interface {
	Chain(first uint32) ([]uint32, error)
}

type treeIndexer struct {
	clusters clusterSource
	fat      chainResolver
	platform Platform
	log      logrus.FieldLogger

	forest  *Forest
	visited map[uint32]bool
}

// IndexTree builds the live directory forest from the directory starting at root.
// Every non-deleted directory is followed through its FAT chain. Each cluster of a
// directory is read as its own stream of records, which ends at the first
// never-used record or after bytes per cluster / 64 records.
//
// Corrupted chains fall back to their first cluster (see FatTable.Chain) and clusters
// which were already indexed are not read again, so a corrupted FAT cannot cause endless recursion.
func IndexTree(clusters clusterSource, fat chainResolver, root uint32, platform Platform, log logrus.FieldLogger) (*Forest, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	t := &treeIndexer{
		clusters: clusters,
		fat:      fat,
		platform: platform,
		log:      log,
		forest:   NewForest(),
		visited:  make(map[uint32]bool),
	}

	chain, err := fat.Chain(root)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrIndexTree)
	}

	for _, cluster := range chain {
		if err := t.indexCluster(cluster, NoParent); err != nil {
			return nil, checkpoint.Wrap(err, ErrIndexTree)
		}
	}

	return t.forest, nil
}

func (t *treeIndexer) indexCluster(cluster uint32, parent int) error {
	if t.visited[cluster] {
		t.log.WithField("cluster", cluster).Warn("directory cluster referenced twice, skipping")
		return nil
	}
	t.visited[cluster] = true

	data, err := t.clusters.Read(cluster)
	if err != nil {
		return err
	}

	var directories []int
	records := t.clusters.BytesPerCluster() / DirentSize
	for i := int64(0); i < records; i++ {
		raw := data[i*DirentSize : (i+1)*DirentSize]
		if isEndMarker(raw[0]) {
			break
		}

		entry, err := DecodeDirectoryEntry(raw, t.platform)
		if err != nil {
			return err
		}
		entry.Cluster = cluster
		entry.Offset = t.clusters.PhysicalOffset(cluster) + i*DirentSize

		index := t.forest.Add(entry)
		if parent != NoParent {
			t.forest.Link(parent, index)
		}

		if entry.IsDirectory() && !entry.IsDeleted() {
			directories = append(directories, index)
		}
	}

	for _, index := range directories {
		t.indexDirectory(index)
	}
	return nil
}

func (t *treeIndexer) indexDirectory(index int) {
	entry := t.forest.Entry(index)

	chain, err := t.fat.Chain(entry.FirstCluster)
	if err != nil {
		// An empty or broken directory must not stop the rest of the tree.
		t.log.WithFields(logrus.Fields{
			"offset": entry.Offset,
			"first":  entry.FirstCluster,
		}).WithError(err).Warn("directory has no valid first cluster")
		return
	}

	for _, cluster := range chain {
		if err := t.indexCluster(cluster, index); err != nil {
			t.log.WithField("cluster", cluster).WithError(err).Warn("could not index directory cluster")
		}
	}
}
