package fatx

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Platform selects the console variant of a FATX volume.
// The variants differ in byte order and in the epoch of their timestamps.
type Platform int

const (
	// Xbox is the original console: little endian, timestamps count years from 2000.
	Xbox Platform = iota
	// Xbox360 is big endian, timestamps count years from 1980.
	Xbox360
)

func (p Platform) ByteOrder() binary.ByteOrder {
	if p == Xbox360 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Epoch returns the year represented by a year offset of 0.
func (p Platform) Epoch() int {
	if p == Xbox360 {
		return 1980
	}
	return 2000
}

func (p Platform) String() string {
	switch p {
	case Xbox:
		return "xbox"
	case Xbox360:
		return "xbox360"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// ParsePlatform accepts the names returned by Platform.String and the byte order aliases "le" and "be".
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xbox", "og", "le", "little":
		return Xbox, nil
	case "xbox360", "x360", "360", "be", "big":
		return Xbox360, nil
	}
	return 0, fmt.Errorf("unknown platform %q", name)
}
