package fatxtest

import (
	"encoding/binary"
)

// PDBMagic is the 32 byte header of an MSF 7.00 program database.
var PDBMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

// WAV returns a RIFF/WAVE file of exactly size bytes.
func WAV(size uint32) []byte {
	data := make([]byte, size)
	copy(data, "RIFF")
	binary.LittleEndian.PutUint32(data[4:], size-8)
	copy(data[8:], "WAVEfmt ")
	return data
}

// XBE returns an image of size bytes whose debug file name is debugName.
func XBE(debugName string, size uint32) []byte {
	const baseAddress = 0x10000
	const nameOffset = 0x180

	data := make([]byte, size)
	copy(data, "XBEH")
	binary.LittleEndian.PutUint32(data[0x104:], baseAddress)
	binary.LittleEndian.PutUint32(data[0x108:], size)
	binary.LittleEndian.PutUint32(data[0x10C:], size)
	binary.LittleEndian.PutUint32(data[0x150:], baseAddress+nameOffset)
	copy(data[nameOffset:], debugName)
	return data
}

// XPR returns a packed resource of size bytes.
func XPR(size uint32) []byte {
	data := make([]byte, size)
	copy(data, "XPR0")
	binary.LittleEndian.PutUint32(data[4:], size)
	return data
}

// PDB returns a program database of blockSize * blocks bytes.
func PDB(blockSize, blocks uint32) []byte {
	data := make([]byte, blockSize*blocks)
	copy(data, PDBMagic)
	binary.LittleEndian.PutUint32(data[0x20:], blockSize)
	binary.LittleEndian.PutUint32(data[0x28:], blocks)
	return data
}

// PE returns a portable executable with two sections. The last section ends at 0x500.
func PE() []byte {
	const lfanew = 0x80
	const optionalHeaderSize = 0xE0

	data := make([]byte, 0x500)
	copy(data, []byte{0x4D, 0x5A, 0x90, 0x00})
	binary.LittleEndian.PutUint32(data[0x3C:], lfanew)
	copy(data[lfanew:], "PE\x00\x00")
	binary.LittleEndian.PutUint16(data[lfanew+4:], 0x14C)
	binary.LittleEndian.PutUint16(data[lfanew+6:], 2)
	binary.LittleEndian.PutUint16(data[lfanew+20:], optionalHeaderSize)

	sections := lfanew + 24 + optionalHeaderSize
	copy(data[sections:], ".text")
	binary.LittleEndian.PutUint32(data[sections+16:], 0x200)
	binary.LittleEndian.PutUint32(data[sections+20:], 0x200)
	copy(data[sections+40:], ".data")
	binary.LittleEndian.PutUint32(data[sections+40+16:], 0x100)
	binary.LittleEndian.PutUint32(data[sections+40+20:], 0x400)
	return data
}

// XMV returns a movie made of a header packet of headerSize bytes followed by packets.
// Every packet size must be a multiple of 0x1000 and at most maxPacket.
func XMV(headerSize uint32, maxPacket uint32, packets ...uint32) []byte {
	total := headerSize
	for _, p := range packets {
		total += p
	}

	data := make([]byte, total)
	next := uint32(0)
	if len(packets) > 0 {
		next = packets[0]
	}
	binary.LittleEndian.PutUint32(data[0x0:], next)
	binary.LittleEndian.PutUint32(data[0x4:], headerSize)
	binary.LittleEndian.PutUint32(data[0x8:], maxPacket)
	copy(data[0xC:], "xobX")

	offset := headerSize
	for i := range packets {
		next = 0
		if i+1 < len(packets) {
			next = packets[i+1]
		}
		binary.LittleEndian.PutUint32(data[offset:], next)
		offset += packets[i]
	}
	return data
}
