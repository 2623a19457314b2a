package carver

import (
	"fmt"
	"path"
	"strings"

	"github.com/aligator/gofatx/checkpoint"
)

// Recognizer detects and measures one file format.
// Test must be cheap, it runs at every stride step. Parse is only called if Test matched.
// Parse returns an empty name if the format carries none, and a size of 0 if it cannot be determined.
type Recognizer interface {
	// Format is the short format name, e.g. "XBE".
	Format() string
	// Extension is used for generated file names.
	Extension() string
	Test(w *Window) bool
	Parse(w *Window) (name string, size int64, err error)
}

// Recognizers is the registry of all known formats in the order they are tried.
var Recognizers = []Recognizer{
	PE{},
	WAV{},
	XBE{},
	XEX{},
	XMV{},
	XPR{},
	PDB{},
	LIVE{},
}

// PE is a Windows portable executable.
type PE struct{}

var peMagic = []byte{0x4D, 0x5A, 0x90, 0x00}

const (
	peLfanewOffset = 0x3C
	peMaxSections  = 96
)

type coffHeader struct {
	Signature            [4]byte
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

type sectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

func (PE) Format() string    { return "PE" }
func (PE) Extension() string { return "exe" }

func (PE) Test(w *Window) bool {
	return w.HasPrefix(0, peMagic)
}

// Parse follows e_lfanew to the COFF header. The file ends with the raw data of the last section.
func (PE) Parse(w *Window) (string, int64, error) {
	lfanew, err := w.Uint32(peLfanewOffset)
	if err != nil {
		return "", 0, err
	}

	var coff coffHeader
	if err := w.Unpack(int64(lfanew), &coff); err != nil {
		return "", 0, err
	}
	if string(coff.Signature[:]) != "PE\x00\x00" {
		return "", 0, checkpoint.Wrap(fmt.Errorf("no PE signature at 0x%X", lfanew), ErrParse)
	}
	if coff.NumberOfSections == 0 || coff.NumberOfSections > peMaxSections {
		return "", 0, checkpoint.Wrap(fmt.Errorf("%d sections", coff.NumberOfSections), ErrParse)
	}

	// COFF header (with signature) is 24 bytes, the section table follows the optional header.
	last := int64(lfanew) + 24 + int64(coff.SizeOfOptionalHeader) + int64(coff.NumberOfSections-1)*40

	var section sectionHeader
	if err := w.Unpack(last, &section); err != nil {
		return "", 0, err
	}

	return "", int64(section.PointerToRawData) + int64(section.SizeOfRawData), nil
}

// WAV is a RIFF wave file.
type WAV struct{}

func (WAV) Format() string    { return "WAV" }
func (WAV) Extension() string { return "wav" }

func (WAV) Test(w *Window) bool {
	return w.HasPrefix(0, []byte("RIFF")) && w.HasPrefix(8, []byte("WAVEfmt"))
}

func (WAV) Parse(w *Window) (string, int64, error) {
	size, err := w.Uint32(4)
	if err != nil {
		return "", 0, err
	}
	return "", int64(size) + 8, nil
}

// XBE is an original Xbox executable.
type XBE struct{}

const (
	xbeHeaderOffset = 0x104
	xbeMaxName      = 0x100
)

type xbeHeader struct {
	BaseAddress             uint32
	SizeOfHeaders           uint32
	SizeOfImage             uint32
	SizeOfImageHeader       uint32
	TimeDate                uint32
	CertificateAddress      uint32
	NumberOfSections        uint32
	SectionHeadersAddress   uint32
	InitializationFlags     uint32
	EntryPoint              uint32
	TLSAddress              uint32
	PEStackCommit           uint32
	PEHeapReserve           uint32
	PEHeapCommit            uint32
	PEBaseAddress           uint32
	PESizeOfImage           uint32
	PEChecksum              uint32
	PETimeDate              uint32
	DebugPathNameAddress    uint32
	DebugFileNameAddress    uint32
	DebugUnicodeNameAddress uint32
}

func (XBE) Format() string    { return "XBE" }
func (XBE) Extension() string { return "xbe" }

func (XBE) Test(w *Window) bool {
	return w.HasPrefix(0, []byte("XBEH"))
}

// Parse reads the image size and the debug file name. The name is addressed in memory,
// so it is found at its address minus the base address.
func (x XBE) Parse(w *Window) (string, int64, error) {
	var header xbeHeader
	if err := w.Unpack(xbeHeaderOffset, &header); err != nil {
		return "", 0, err
	}

	if header.DebugFileNameAddress < header.BaseAddress {
		return "", 0, checkpoint.Wrap(fmt.Errorf("debug name at 0x%X before base 0x%X", header.DebugFileNameAddress, header.BaseAddress), ErrParse)
	}

	name, err := w.CString(int64(header.DebugFileNameAddress-header.BaseAddress), xbeMaxName)
	if err != nil {
		return "", 0, err
	}
	if name != "" {
		name = strings.TrimSuffix(name, path.Ext(name)) + "." + x.Extension()
	}

	return name, int64(header.SizeOfImage), nil
}

// XEX is an Xbox 360 executable. Its size is not determined.
type XEX struct{}

func (XEX) Format() string    { return "XEX" }
func (XEX) Extension() string { return "xex" }

func (XEX) Test(w *Window) bool {
	return w.HasPrefix(0, []byte("XEX2"))
}

func (XEX) Parse(*Window) (string, int64, error) {
	return "", 0, nil
}

// XMV is an Xbox movie. It is a chain of packets, each one starting with the size of the next one.
type XMV struct{}

const (
	xmvAlignment  = 0xFFF
	xmvMaxPackets = 1 << 20
)

func (XMV) Format() string    { return "XMV" }
func (XMV) Extension() string { return "xmv" }

func (XMV) Test(w *Window) bool {
	return w.HasPrefix(0xC, []byte("xobX"))
}

// Parse walks the packet chain. Every packet size must be 4 KiB aligned and at most the
// maximum packet size from the header, otherwise the match is rejected.
func (XMV) Parse(w *Window) (string, int64, error) {
	next, err := w.Uint32(0)
	if err != nil {
		return "", 0, err
	}
	size, err := w.Uint32(4)
	if err != nil {
		return "", 0, err
	}
	maxPacket, err := w.Uint32(8)
	if err != nil {
		return "", 0, err
	}

	if size == 0 || size&xmvAlignment != 0 {
		return "", 0, checkpoint.Wrap(fmt.Errorf("header packet of 0x%X bytes is not aligned", size), ErrParse)
	}

	total := int64(size)
	for packets := 0; next != 0; packets++ {
		if packets >= xmvMaxPackets {
			return "", 0, checkpoint.Wrap(fmt.Errorf("more than %d packets", xmvMaxPackets), ErrParse)
		}
		if next&xmvAlignment != 0 || next > maxPacket {
			return "", 0, checkpoint.Wrap(fmt.Errorf("packet of 0x%X bytes at 0x%X, max 0x%X", next, total, maxPacket), ErrParse)
		}
		if total+int64(next) > w.Remaining() {
			return "", 0, checkpoint.Wrap(fmt.Errorf("packet at 0x%X exceeds the range", total), ErrParse)
		}

		packet := next
		next, err = w.Uint32(total)
		if err != nil {
			return "", 0, err
		}
		total += int64(packet)
	}

	return "", total, nil
}

// XPR is an Xbox packed resource.
type XPR struct{}

func (XPR) Format() string    { return "XPR" }
func (XPR) Extension() string { return "xpr" }

func (XPR) Test(w *Window) bool {
	return w.HasPrefix(0, []byte("XPR0"))
}

func (XPR) Parse(w *Window) (string, int64, error) {
	size, err := w.Uint32(4)
	if err != nil {
		return "", 0, err
	}
	return "", int64(size), nil
}

// PDB is an MSF 7.00 program database.
type PDB struct{}

var pdbMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

func (PDB) Format() string    { return "PDB" }
func (PDB) Extension() string { return "pdb" }

func (PDB) Test(w *Window) bool {
	return w.HasPrefix(0, pdbMagic)
}

func (PDB) Parse(w *Window) (string, int64, error) {
	blockSize, err := w.Uint32(0x20)
	if err != nil {
		return "", 0, err
	}
	blocks, err := w.Uint32(0x28)
	if err != nil {
		return "", 0, err
	}
	return "", int64(blockSize) * int64(blocks), nil
}

// LIVE is an Xbox Live package. Its size is not determined.
type LIVE struct{}

func (LIVE) Format() string    { return "LIVE" }
func (LIVE) Extension() string { return "live" }

func (LIVE) Test(w *Window) bool {
	return w.HasPrefix(0, []byte("LIVE"))
}

func (LIVE) Parse(*Window) (string, int64, error) {
	return "", 0, nil
}
