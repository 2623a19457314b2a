// Package recovery rediscovers directory entries that are no longer reachable through
// the live tree, ranks recovered files by how likely their data is intact and extracts them.
package recovery

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/checkpoint"
)

// clusterSource is the part of a volume the scanner reads from.
type clusterSource interface {
	Read(cluster uint32) ([]byte, error)
	PhysicalOffset(cluster uint32) int64
	BytesPerCluster() int64
}

// ScanOptions configure a Scanner.
type ScanOptions struct {
	// Clock bounds the years accepted by the validator. Nil uses time.Now.
	Clock    fatx.Clock
	Progress fatx.ProgressFunc
	Logger   logrus.FieldLogger
}

// Scanner brute-force scans clusters for directory entries, independent of the FAT.
// Registered entries are kept across scans, so several (partial) scans accumulate.
// A Scanner must not be used concurrently.
type Scanner struct {
	clusters  clusterSource
	validator fatx.Validator
	lastUsed  uint32
	progress  fatx.ProgressFunc
	log       logrus.FieldLogger

	forest   *fatx.Forest
	byOffset map[int64]int
}

// NewScanner creates a scanner over the clusters of volume.
func NewScanner(volume *fatx.Volume, opts ScanOptions) *Scanner {
	last := uint32(volume.Geometry.FileAreaLength / volume.Geometry.BytesPerCluster)
	if last >= volume.Geometry.MaxClusters {
		last = volume.Geometry.MaxClusters - 1
	}

	return newScanner(volume.Clusters(), volume.Validator(opts.Clock), last, opts)
}

func newScanner(clusters clusterSource, validator fatx.Validator, lastUsed uint32, opts ScanOptions) *Scanner {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Scanner{
		clusters:  clusters,
		validator: validator,
		lastUsed:  lastUsed,
		progress:  opts.Progress,
		log:       log,
		forest:    fatx.NewForest(),
		byOffset:  make(map[int64]int),
	}
}

// LastCluster returns the highest cluster which lies inside the file area.
func (s *Scanner) LastCluster() uint32 {
	return s.lastUsed
}

// Scan reads every cluster in [first, last] and registers each 64 byte window accepted by the validator.
// last == 0 scans up to LastCluster. Afterwards all registered entries are linked into a forest.
//
// The scan checks ctx once per cluster. If it is cancelled, the linking pass still runs over
// everything registered so far and the partial forest is returned together with the context error.
func (s *Scanner) Scan(ctx context.Context, first, last uint32) (*fatx.Forest, error) {
	if first == 0 {
		first = 1
	}
	if last == 0 || last > s.lastUsed {
		last = s.lastUsed
	}

	log := s.log.WithFields(logrus.Fields{"first": first, "last": last})
	log.Info("scanning clusters for directory entries")

	var err error
	total := int64(last) - int64(first) + 1
	found := 0
	for cluster := first; cluster <= last && cluster >= first; cluster++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.WithField("cluster", cluster).Info("scan cancelled")
			err = checkpoint.From(ctxErr)
			break
		}

		found += s.scanCluster(cluster)

		if s.progress != nil {
			s.progress(int64(cluster-first)+1, total)
		}
	}

	s.link()
	log.WithFields(logrus.Fields{
		"found":      found,
		"registered": s.forest.Len(),
		"roots":      len(s.forest.Roots()),
	}).Info("scan finished")

	return s.forest, err
}

func (s *Scanner) scanCluster(cluster uint32) int {
	data, err := s.clusters.Read(cluster)
	if err != nil {
		s.log.WithField("cluster", cluster).WithError(err).Warn("could not read cluster")
		return 0
	}

	found := 0
	windows := s.clusters.BytesPerCluster() / fatx.DirentSize
	base := s.clusters.PhysicalOffset(cluster)
	for i := int64(0); i < windows; i++ {
		entry, ok := s.validator.Valid(data[i*fatx.DirentSize : (i+1)*fatx.DirentSize])
		if !ok {
			continue
		}

		entry.Cluster = cluster
		entry.Offset = base + i*fatx.DirentSize
		if _, known := s.byOffset[entry.Offset]; known {
			continue
		}

		s.byOffset[entry.Offset] = s.forest.Add(entry)
		found++
		s.log.WithFields(logrus.Fields{
			"cluster": cluster,
			"offset":  entry.Offset,
		}).Debugf("found %v", entry)
	}
	return found
}

// link treats the first cluster of every directory as the cluster hosting its children.
// Links are rebuilt from scratch so the result only depends on the registered entries.
// Directories are processed in offset order, so a record claimed by two directories
// belongs to the one found first.
func (s *Scanner) link() {
	s.forest.Unlink()

	byCluster := make(map[uint32][]int)
	for i, e := range s.forest.Entries() {
		byCluster[e.Cluster] = append(byCluster[e.Cluster], i)
	}

	directories := make([]int, 0)
	for i, e := range s.forest.Entries() {
		// A directory stored in its own first cluster would adopt its siblings.
		if e.IsDirectory() && e.FirstCluster != 0 && e.FirstCluster != e.Cluster {
			directories = append(directories, i)
		}
	}
	sort.Slice(directories, func(a, b int) bool {
		return s.forest.Entry(directories[a]).Offset < s.forest.Entry(directories[b]).Offset
	})

	for _, dir := range directories {
		for _, child := range byCluster[s.forest.Entry(dir).FirstCluster] {
			s.forest.Link(dir, child)
		}
	}
}

// Forest returns all entries registered so far.
func (s *Scanner) Forest() *fatx.Forest {
	return s.forest
}
