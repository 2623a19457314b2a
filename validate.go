package fatx

import (
	"time"
)

// nameCharset contains every byte allowed inside a name buffer, including the 0xFF padding.
var nameCharset = func() [256]bool {
	var set [256]bool
	for _, c := range []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&'()-.@[]^_`{}~ ") {
		set[c] = true
	}
	set[0xFF] = true
	return set
}()

// Validator decides whether an arbitrary 64 byte window is plausibly a directory entry.
// A rejected window is the expected result of scanning raw bytes and not an error.
type Validator struct {
	Platform    Platform
	MaxClusters uint32
	// Now is the observation instant. Timestamps later than its year are rejected.
	Now time.Time
}

// Valid decodes window and checks it with ValidEntry.
func (v Validator) Valid(window []byte) (*DirectoryEntry, bool) {
	if len(window) < DirentSize {
		return nil, false
	}

	// Reject on the name length first, it is the cheapest test and fails most of the time.
	if !ValidNameLength(window[0]) {
		return nil, false
	}

	entry, err := DecodeDirectoryEntry(window, v.Platform)
	if err != nil {
		return nil, false
	}

	return entry, v.ValidEntry(entry)
}

// ValidEntry checks the name, attributes, first cluster and all timestamps of e.
func (v Validator) ValidEntry(e *DirectoryEntry) bool {
	if !ValidNameLength(e.NameLength) {
		return false
	}

	// Deleted records use the length only as a marker, their name buffer is not checked.
	if !e.IsDeleted() {
		for _, c := range e.NameBuffer {
			if !nameCharset[c] {
				return false
			}
		}
	}

	if !ValidAttributes(e.Attributes) {
		return false
	}

	// A zero first cluster is fine, deleted entries have been seen with it cleared.
	if e.FirstCluster > v.MaxClusters {
		return false
	}

	year := v.Now.Year()
	return e.CreationTime.Plausible(year) &&
		e.LastWriteTime.Plausible(year) &&
		e.LastAccessTime.Plausible(year)
}

// ValidNameLength rejects 0x00, 0x01 and 0xFF and anything longer than MaxNameLength,
// except the deleted marker.
func ValidNameLength(length byte) bool {
	switch {
	case length == DeletedMarker:
		return true
	case length == 0x00 || length == 0x01 || length == 0xFF:
		return false
	default:
		return length <= MaxNameLength
	}
}

// ValidAttributes accepts 0 and any combination of the defined attribute flags.
func ValidAttributes(attributes byte) bool {
	return attributes&^attrMask == 0
}
