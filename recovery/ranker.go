package recovery

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	fatx "github.com/aligator/gofatx"
)

// Rank is the provenance rank of a recovered file. Lower is more trustworthy.
type Rank int

const (
	// RankClean is a live, not deleted entry.
	RankClean Rank = iota
	// RankRecovered is a deleted or recovered entry without collisions.
	RankRecovered
	// RankContested shares clusters, but no other claimant was accessed later.
	RankContested
	// RankPartiallyOverwritten shares some of its clusters with a more recent claimant.
	RankPartiallyOverwritten
	// RankOverwritten shares every cluster it claims.
	RankOverwritten
)

func (r Rank) String() string {
	switch r {
	case RankClean:
		return "clean"
	case RankRecovered:
		return "recovered"
	case RankContested:
		return "contested"
	case RankPartiallyOverwritten:
		return "partially-overwritten"
	case RankOverwritten:
		return "overwritten"
	}
	return "unknown"
}

// DefaultBlocklist contains name prefixes of known large or corrupt system files.
// They would otherwise collide with nearly everything.
var DefaultBlocklist = []string{"xdk_data", "xdk_file", "tmp"}

// RecoveredFile is a directory entry from the live tree or from a scan together with its
// recovery metadata. Parent and Children are indices into the Ranker's file list.
type RecoveredFile struct {
	Entry *fatx.DirectoryEntry
	// Live is true if the entry was found by walking the live tree.
	Live bool
	// Clusters is the real FAT chain of live entries and a synthesized chain otherwise.
	Clusters   []uint32
	Collisions []uint32
	Rank       Rank
	// Excluded is set for entries matching the blocklist. They are not part of the occupancy map.
	Excluded bool

	Parent   int
	Children []int
}

// Name returns the name of the entry.
func (f *RecoveredFile) Name() string {
	return f.Entry.Name()
}

// Offset returns the partition offset of the entry. It is the identity of a RecoveredFile.
func (f *RecoveredFile) Offset() int64 {
	return f.Entry.Offset
}

// trusted reports whether the FAT chain of the entry can be used as is.
func (f *RecoveredFile) trusted() bool {
	return f.Live && !f.Entry.IsDeleted()
}

// ClusterOccupancyMap maps a cluster to the indices of all files claiming it.
type ClusterOccupancyMap map[uint32][]int

// chainResolver resolves FAT chains of live entries.
type chainResolver interface {
	Chain(first uint32) ([]uint32, error)
}

// RankerOptions configure a Ranker.
type RankerOptions struct {
	// Blocklist replaces DefaultBlocklist if not nil.
	Blocklist []string
	Logger    logrus.FieldLogger
}

// Ranker merges live and recovered entries and ranks them by cluster collisions.
// Merge and Recompute must not run concurrently, callers serialize merge-then-rank sequences.
type Ranker struct {
	fat             chainResolver
	bytesPerCluster int64
	maxClusters     uint32
	blocklist       []string
	log             logrus.FieldLogger

	files     []*RecoveredFile
	byOffset  map[int64]int
	occupancy ClusterOccupancyMap
}

// NewRanker creates a ranker for the files of volume.
func NewRanker(volume *fatx.Volume, opts RankerOptions) *Ranker {
	return newRanker(volume.Fat(), volume.Geometry.BytesPerCluster, volume.Geometry.MaxClusters, opts)
}

func newRanker(fat chainResolver, bytesPerCluster int64, maxClusters uint32, opts RankerOptions) *Ranker {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	blocklist := opts.Blocklist
	if blocklist == nil {
		blocklist = DefaultBlocklist
	}

	return &Ranker{
		fat:             fat,
		bytesPerCluster: bytesPerCluster,
		maxClusters:     maxClusters,
		blocklist:       blocklist,
		log:             log,
		byOffset:        make(map[int64]int),
		occupancy:       make(ClusterOccupancyMap),
	}
}

// MergeLive adds all entries of the live forest. Known entries, for example found by
// an earlier scan, are marked as live and take the parent of the live tree.
// It returns the number of added files. Call Recompute afterwards.
func (r *Ranker) MergeLive(forest *fatx.Forest) int {
	return r.merge(forest, true)
}

// MergeRecovered adds all entries of a scanned forest. Entries with a known offset are skipped.
// It returns the number of added files. Call Recompute afterwards.
func (r *Ranker) MergeRecovered(forest *fatx.Forest) int {
	return r.merge(forest, false)
}

func (r *Ranker) merge(forest *fatx.Forest, live bool) int {
	added := 0
	// linked maps forest indices to file indices whose parent follows the forest.
	linked := make(map[int]int)
	for i, e := range forest.Entries() {
		if index, known := r.byOffset[e.Offset]; known {
			if live && !r.files[index].Live {
				r.files[index].Entry = e
				r.files[index].Live = true
				r.files[index].Parent = fatx.NoParent
				linked[i] = index
			}
			continue
		}

		r.files = append(r.files, &RecoveredFile{
			Entry:  e,
			Live:   live,
			Parent: fatx.NoParent,
		})
		index := len(r.files) - 1
		r.byOffset[e.Offset] = index
		linked[i] = index
		added++
	}

	// Mirror the links of the forest for the newly added and the promoted files.
	for forestIndex, index := range linked {
		parent := forest.Entry(forestIndex).Parent
		if parent == fatx.NoParent {
			continue
		}
		parentIndex, ok := r.byOffset[forest.Entry(parent).Offset]
		if !ok || parentIndex == index {
			continue
		}
		r.files[index].Parent = parentIndex
	}
	r.rebuildChildren()

	return added
}

func (r *Ranker) rebuildChildren() {
	for _, f := range r.files {
		f.Children = nil
	}
	for i, f := range r.files {
		if f.Parent != fatx.NoParent {
			r.files[f.Parent].Children = append(r.files[f.Parent].Children, i)
		}
	}
}

// Recompute rebuilds the occupancy map, then the collisions and finally the rank of every file.
// Ranking is a pure function of the merged files and is never updated incrementally.
func (r *Ranker) Recompute() {
	r.occupancy = make(ClusterOccupancyMap)
	for i, f := range r.files {
		f.Clusters = r.clusterList(f)
		f.Excluded = r.blocked(f.Name())
		if f.Excluded {
			continue
		}
		for _, c := range f.Clusters {
			r.occupancy[c] = append(r.occupancy[c], i)
		}
	}

	counts := make(map[Rank]int)
	for i, f := range r.files {
		f.Collisions = nil
		if !f.Excluded {
			for _, c := range f.Clusters {
				if len(r.occupancy[c]) > 1 {
					f.Collisions = append(f.Collisions, c)
				}
			}
		}
		f.Rank = r.rank(i, f)
		counts[f.Rank]++
	}

	r.log.WithFields(logrus.Fields{
		"files":       len(r.files),
		"clean":       counts[RankClean],
		"recovered":   counts[RankRecovered],
		"contested":   counts[RankContested],
		"partial":     counts[RankPartiallyOverwritten],
		"overwritten": counts[RankOverwritten],
	}).Info("ranked files")
}

// clusterList returns the FAT chain of trusted entries. Deleted directories get exactly
// their first cluster, deleted files a contiguous run of ceil(size / cluster size) clusters.
func (r *Ranker) clusterList(f *RecoveredFile) []uint32 {
	e := f.Entry
	if e.FirstCluster == 0 || e.FirstCluster >= r.maxClusters {
		return nil
	}

	if f.trusted() {
		chain, err := r.fat.Chain(e.FirstCluster)
		if err != nil {
			r.log.WithField("offset", e.Offset).WithError(err).Warn("live entry without valid chain")
			return nil
		}
		return chain
	}

	if e.IsDirectory() {
		return []uint32{e.FirstCluster}
	}

	count := (int64(e.FileSize) + r.bytesPerCluster - 1) / r.bytesPerCluster
	clusters := make([]uint32, 0, count)
	for c := int64(e.FirstCluster); c < int64(e.FirstCluster)+count && c < int64(r.maxClusters); c++ {
		clusters = append(clusters, uint32(c))
	}
	return clusters
}

func (r *Ranker) blocked(name string) bool {
	for _, prefix := range r.blocklist {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (r *Ranker) rank(index int, f *RecoveredFile) Rank {
	switch {
	case f.trusted():
		return RankClean
	case len(f.Collisions) == 0:
		return RankRecovered
	case len(f.Collisions) == len(f.Clusters):
		return RankOverwritten
	case !r.stale(index, f):
		return RankContested
	default:
		return RankPartiallyOverwritten
	}
}

// stale reports whether another claimant of any colliding cluster was accessed later than f.
func (r *Ranker) stale(index int, f *RecoveredFile) bool {
	accessed := f.Entry.LastAccessTime.Raw
	for _, c := range f.Collisions {
		for _, other := range r.occupancy[c] {
			if other != index && r.files[other].Entry.LastAccessTime.Raw > accessed {
				return true
			}
		}
	}
	return false
}

// Files returns all merged files.
func (r *Ranker) Files() []*RecoveredFile {
	return r.files
}

// File returns the file at index or nil.
func (r *Ranker) File(index int) *RecoveredFile {
	if index < 0 || index >= len(r.files) {
		return nil
	}
	return r.files[index]
}

// Lookup returns the index of the file with the entry at offset.
func (r *Ranker) Lookup(offset int64) (int, bool) {
	index, ok := r.byOffset[offset]
	return index, ok
}

// Roots returns the indices of all files without parent.
func (r *Ranker) Roots() []int {
	var roots []int
	for i, f := range r.files {
		if f.Parent == fatx.NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// Occupancy returns the map built by the last Recompute.
func (r *Ranker) Occupancy() ClusterOccupancyMap {
	return r.occupancy
}

// ByRank returns the indices of all files ordered by rank and then by offset.
func (r *Ranker) ByRank() []int {
	indices := make([]int, len(r.files))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		fa, fb := r.files[indices[a]], r.files[indices[b]]
		if fa.Rank != fb.Rank {
			return fa.Rank < fb.Rank
		}
		return fa.Offset() < fb.Offset()
	})
	return indices
}

// Path joins the names of all parents down to the file at index.
func (r *Ranker) Path(index int) string {
	var parts []string
	seen := make(map[int]bool)
	for i := index; i != fatx.NoParent && !seen[i]; i = r.files[i].Parent {
		seen[i] = true
		parts = append([]string{r.files[i].Name()}, parts...)
	}
	return strings.Join(parts, "/")
}
