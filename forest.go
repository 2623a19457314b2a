package fatx

import (
	"errors"
	"path"
)

// SkipDir can be returned by a WalkFunc to skip the children of the current entry.
var SkipDir = errors.New("skip this directory")

// Forest is an arena of directory entries. Entries refer to their parent and
// children by index, so there are no pointer cycles between records.
type Forest struct {
	entries []*DirectoryEntry
}

func NewForest() *Forest {
	return &Forest{}
}

// Add stores e as a new root and returns its index.
func (f *Forest) Add(e *DirectoryEntry) int {
	e.Parent = NoParent
	e.Children = nil
	f.entries = append(f.entries, e)
	return len(f.entries) - 1
}

// Link makes child a child of parent. It refuses (and returns false) if child already has a parent,
// if both are the same entry or if parent is a descendant of child.
func (f *Forest) Link(parent, child int) bool {
	if parent == child || !f.valid(parent) || !f.valid(child) {
		return false
	}

	c := f.entries[child]
	if c.Parent != NoParent {
		return false
	}

	for p := parent; p != NoParent; p = f.entries[p].Parent {
		if p == child {
			return false
		}
	}

	c.Parent = parent
	f.entries[parent].Children = append(f.entries[parent].Children, child)
	return true
}

// Unlink removes all parent and child links and makes every entry a root again.
func (f *Forest) Unlink() {
	for _, e := range f.entries {
		e.Parent = NoParent
		e.Children = nil
	}
}

func (f *Forest) valid(index int) bool {
	return index >= 0 && index < len(f.entries)
}

func (f *Forest) Len() int {
	return len(f.entries)
}

// Entry returns the entry at index or nil.
func (f *Forest) Entry(index int) *DirectoryEntry {
	if !f.valid(index) {
		return nil
	}
	return f.entries[index]
}

// Entries returns all entries in insertion order.
func (f *Forest) Entries() []*DirectoryEntry {
	return f.entries
}

// Roots returns the indices of all entries without parent, in insertion order.
func (f *Forest) Roots() []int {
	var roots []int
	for i, e := range f.entries {
		if e.Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// Path joins the names from the root down to index.
func (f *Forest) Path(index int) string {
	var names []string
	for i := index; f.valid(i); i = f.entries[i].Parent {
		names = append(names, f.entries[i].Name())
	}

	for l, r := 0, len(names)-1; l < r; l, r = l+1, r-1 {
		names[l], names[r] = names[r], names[l]
	}
	return path.Join(names...)
}

// WalkFunc is called for every entry visited by Walk.
type WalkFunc func(index int, e *DirectoryEntry, depth int) error

// Walk visits all entries depth-first, roots in order.
// If fn returns SkipDir the children of that entry are skipped, any other error stops the walk.
func (f *Forest) Walk(fn WalkFunc) error {
	for _, root := range f.Roots() {
		if err := f.walk(root, 0, fn); err != nil {
			if err == SkipDir {
				continue
			}
			return err
		}
	}
	return nil
}

func (f *Forest) walk(index, depth int, fn WalkFunc) error {
	e := f.entries[index]
	if err := fn(index, e, depth); err != nil {
		return err
	}

	for _, child := range e.Children {
		if err := f.walk(child, depth+1, fn); err != nil && err != SkipDir {
			return err
		}
	}
	return nil
}
