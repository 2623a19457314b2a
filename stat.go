package fatx

import (
	"os"
	"time"
)

// FileInfo returns an os.FileInfo view of the entry. Sys() returns the *DirectoryEntry.
func (e *DirectoryEntry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry *DirectoryEntry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name()
}

func (e entryFileInfo) Size() int64 {
	if e.IsDir() {
		return 0
	}
	return int64(e.entry.FileSize)
}

func (e entryFileInfo) Mode() os.FileMode {
	mode := os.FileMode(0644)
	if e.entry.IsReadOnly() {
		mode = 0444
	}

	if e.IsDir() {
		return mode | os.ModeDir | 0111
	}
	return mode
}

// ModTime returns the last write time.
func (e entryFileInfo) ModTime() time.Time {
	return e.entry.LastWriteTime.Time()
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDirectory()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}

// rootFileInfo describes the root directory which has no entry of its own.
type rootFileInfo struct{}

func (rootFileInfo) Name() string       { return "." }
func (rootFileInfo) Size() int64        { return 0 }
func (rootFileInfo) Mode() os.FileMode  { return os.ModeDir | 0555 }
func (rootFileInfo) ModTime() time.Time { return time.Time{} }
func (rootFileInfo) IsDir() bool        { return true }
func (rootFileInfo) Sys() interface{}   { return nil }
