package fatx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/aligator/gofatx/checkpoint"
)

// NoParent is the Parent value of entries without a parent.
const NoParent = -1

// DirectoryEntry is a decoded 64 byte directory record together with its location
// and its links inside a Forest.
type DirectoryEntry struct {
	NameLength     byte
	Attributes     byte
	NameBuffer     [NameBufferSize]byte
	FirstCluster   uint32
	FileSize       uint32
	CreationTime   TimeStamp
	LastWriteTime  TimeStamp
	LastAccessTime TimeStamp

	// Cluster is the cluster hosting the record.
	Cluster uint32
	// Offset is the partition relative byte offset of the record.
	Offset int64

	// Parent and Children are indices into the Forest owning the entry.
	Parent   int
	Children []int

	name        string
	nameDecoded bool
}

// DecodeDirectoryEntry decodes one record. Each 4 byte field is read in the byte order of
// platform on its own, the record is never swapped as a whole.
func DecodeDirectoryEntry(data []byte, platform Platform) (*DirectoryEntry, error) {
	if len(data) < DirentSize {
		return nil, checkpoint.Wrap(fmt.Errorf("record has %d bytes, want %d", len(data), DirentSize), ErrDecodeEntry)
	}

	header := direntHeader{}
	if err := binary.Read(bytes.NewReader(data[:DirentSize]), platform.ByteOrder(), &header); err != nil {
		return nil, checkpoint.Wrap(err, ErrDecodeEntry)
	}

	return &DirectoryEntry{
		NameLength:     header.NameLength,
		Attributes:     header.Attributes,
		NameBuffer:     header.Name,
		FirstCluster:   header.FirstCluster,
		FileSize:       header.FileSize,
		CreationTime:   NewTimeStamp(header.CreationTime, platform),
		LastWriteTime:  NewTimeStamp(header.LastWriteTime, platform),
		LastAccessTime: NewTimeStamp(header.LastAccessTime, platform),
		Parent:         NoParent,
	}, nil
}

// Encode writes the record back into its 64 byte on-disk representation.
func (e *DirectoryEntry) Encode(platform Platform) []byte {
	header := direntHeader{
		NameLength:     e.NameLength,
		Attributes:     e.Attributes,
		Name:           e.NameBuffer,
		FirstCluster:   e.FirstCluster,
		FileSize:       e.FileSize,
		CreationTime:   e.CreationTime.Raw,
		LastWriteTime:  e.LastWriteTime.Raw,
		LastAccessTime: e.LastAccessTime.Raw,
	}

	buf := bytes.NewBuffer(make([]byte, 0, DirentSize))
	// Writing a fixed size struct into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, platform.ByteOrder(), &header)
	return buf.Bytes()
}

func (e *DirectoryEntry) IsDeleted() bool {
	return e.NameLength == DeletedMarker
}

func (e *DirectoryEntry) IsDirectory() bool {
	return e.Attributes&AttrDirectory != 0
}

func (e *DirectoryEntry) IsReadOnly() bool { return e.Attributes&AttrReadOnly != 0 }
func (e *DirectoryEntry) IsHidden() bool   { return e.Attributes&AttrHidden != 0 }
func (e *DirectoryEntry) IsSystem() bool   { return e.Attributes&AttrSystem != 0 }

// Name decodes the name buffer on first use.
// Deleted records have no usable length, their name ends at the first 0xFF padding byte.
func (e *DirectoryEntry) Name() string {
	if e.nameDecoded {
		return e.name
	}

	var raw []byte
	if e.IsDeleted() {
		raw = e.NameBuffer[:]
		if end := bytes.IndexByte(raw, 0xFF); end >= 0 {
			raw = raw[:end]
		}
	} else {
		length := int(e.NameLength)
		if length > NameBufferSize {
			length = NameBufferSize
		}
		raw = e.NameBuffer[:length]
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = raw
	}

	e.name = string(decoded)
	e.nameDecoded = true
	return e.name
}

// SetName stores name in the name buffer padded with 0xFF and updates the name length.
// Names longer than MaxNameLength are cut.
func (e *DirectoryEntry) SetName(name string) {
	raw := []byte(name)
	if len(raw) > MaxNameLength {
		raw = raw[:MaxNameLength]
	}

	for i := range e.NameBuffer {
		e.NameBuffer[i] = 0xFF
	}
	copy(e.NameBuffer[:], raw)
	e.NameLength = byte(len(raw))
	e.nameDecoded = false
}

func (e *DirectoryEntry) String() string {
	kind := "file"
	if e.IsDirectory() {
		kind = "dir"
	}
	deleted := ""
	if e.IsDeleted() {
		deleted = " deleted"
	}
	return fmt.Sprintf("%s %q%s @0x%x cluster=%d first=%d size=%d", kind, e.Name(), deleted, e.Offset, e.Cluster, e.FirstCluster, e.FileSize)
}

// isEndMarker reports whether a name length terminates a directory stream.
func isEndMarker(nameLength byte) bool {
	return nameLength == endMarkerNever || nameLength == endMarkerUnused
}
