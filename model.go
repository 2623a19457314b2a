// File model contains the structs which match the direct structures of the FATX filesystem.

package fatx

const (
	// SuperblockMagic is "FATX" read as a little endian uint32.
	SuperblockMagic uint32 = 0x58544146

	SectorSize     = 0x200
	ReservedSize   = 0x1000
	PageSize       = 0x1000
	DirentSize     = 0x40
	NameBufferSize = 42
	MaxNameLength  = 0x2A

	// DeletedMarker replaces the name length of a deleted directory entry.
	DeletedMarker = 0xE5
	// Name length values which terminate a directory stream.
	endMarkerNever  = 0x00
	endMarkerUnused = 0xFF

	// fat16Threshold is the first reserved FAT16 value. Volumes with at least this many clusters use FAT32.
	fat16Threshold = 0xFFF0
)

// Directory entry attributes.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	attrMask = AttrReadOnly | AttrHidden | AttrSystem | AttrDirectory | AttrArchive
)

// Superblock is the 16 byte header at the start of every FATX partition.
// Each field is stored in the byte order of the platform.
type Superblock struct {
	Signature           uint32
	SerialNumber        uint32
	SectorsPerCluster   uint32
	RootDirFirstCluster uint32
}

// direntHeader is the 64 byte on-disk directory entry.
type direntHeader struct {
	NameLength     byte
	Attributes     byte
	Name           [NameBufferSize]byte
	FirstCluster   uint32
	FileSize       uint32
	CreationTime   uint32
	LastWriteTime  uint32
	LastAccessTime uint32
}
