package fatx

import (
	"bytes"
	"errors"
	"testing"
)

// rawEntry builds a record by hand, the name buffer is padded with 0xFF.
func rawEntry(platform Platform, nameLength, attributes byte, name string, first, size uint32) []byte {
	order := platform.ByteOrder()
	data := bytes.Repeat([]byte{0xFF}, DirentSize)
	data[0] = nameLength
	data[1] = attributes
	copy(data[2:], name)
	order.PutUint32(data[44:], first)
	order.PutUint32(data[48:], size)
	order.PutUint32(data[52:], 0x44F75EE6)
	order.PutUint32(data[56:], 0x44F75EE6)
	order.PutUint32(data[60:], 0x44F75EE6)
	return data
}

func TestDecodeDirectoryEntry(t *testing.T) {
	for _, platform := range []Platform{Xbox, Xbox360} {
		t.Run(platform.String(), func(t *testing.T) {
			e, err := DecodeDirectoryEntry(rawEntry(platform, 4, AttrDirectory, "test", 0x123, 0x456), platform)
			if err != nil {
				t.Fatalf("DecodeDirectoryEntry() error = %v", err)
			}

			if e.Name() != "test" {
				t.Errorf("Name() = %q, want %q", e.Name(), "test")
			}
			if e.FirstCluster != 0x123 || e.FileSize != 0x456 {
				t.Errorf("FirstCluster, FileSize = 0x%X, 0x%X, want 0x123, 0x456", e.FirstCluster, e.FileSize)
			}
			if !e.IsDirectory() || e.IsDeleted() {
				t.Errorf("IsDirectory, IsDeleted = %v, %v, want true, false", e.IsDirectory(), e.IsDeleted())
			}
			if e.CreationTime.Raw != 0x44F75EE6 || e.CreationTime.Platform != platform {
				t.Errorf("CreationTime = %+v, want raw 0x44F75EE6", e.CreationTime)
			}
			if e.Parent != NoParent {
				t.Errorf("Parent = %v, want NoParent", e.Parent)
			}
		})
	}
}

func TestDecodeDirectoryEntry_fieldsAreSwappedOnTheirOwn(t *testing.T) {
	data := rawEntry(Xbox360, 4, 0, "test", 0x123, 0x456)

	e, err := DecodeDirectoryEntry(data, Xbox)
	if err != nil {
		t.Fatal(err)
	}
	if e.FirstCluster != 0x23010000 || e.FileSize != 0x56040000 {
		t.Errorf("FirstCluster, FileSize = 0x%X, 0x%X, want byte swapped values", e.FirstCluster, e.FileSize)
	}
	if e.Name() != "test" {
		t.Errorf("Name() = %q, the name must not depend on the byte order", e.Name())
	}
}

func TestDecodeDirectoryEntry_short(t *testing.T) {
	if _, err := DecodeDirectoryEntry(make([]byte, DirentSize-1), Xbox); !errors.Is(err, ErrDecodeEntry) {
		t.Errorf("DecodeDirectoryEntry() error = %v, want %v", err, ErrDecodeEntry)
	}
}

func TestDirectoryEntry_Encode(t *testing.T) {
	for _, platform := range []Platform{Xbox, Xbox360} {
		data := rawEntry(platform, 7, AttrArchive, "old.wav", 5, 700)
		e, err := DecodeDirectoryEntry(data, platform)
		if err != nil {
			t.Fatal(err)
		}

		if got := e.Encode(platform); !bytes.Equal(got, data) {
			t.Errorf("%v: Encode() = %X, want %X", platform, got, data)
		}
	}
}

func TestDirectoryEntry_Name(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "name length limits the name",
			data: rawEntry(Xbox, 3, 0, "testing", 0, 0),
			want: "tes",
		},
		{
			name: "deleted name ends at the padding",
			data: rawEntry(Xbox, DeletedMarker, 0, "old.wav", 0, 0),
			want: "old.wav",
		},
		{
			name: "deleted name without padding",
			data: rawEntry(Xbox, DeletedMarker, 0, "abcdefghijklmnopqrstuvwxyz0123456789ABCDEF", 0, 0),
			want: "abcdefghijklmnopqrstuvwxyz0123456789ABCDEF",
		},
		{
			name: "windows-1252 characters",
			data: rawEntry(Xbox, 2, 0, "\xe9\x80", 0, 0),
			want: "é€",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := DecodeDirectoryEntry(tt.data, Xbox)
			if err != nil {
				t.Fatal(err)
			}
			if got := e.Name(); got != tt.want {
				t.Errorf("DirectoryEntry.Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectoryEntry_SetName(t *testing.T) {
	e := &DirectoryEntry{}
	e.SetName("first")
	_ = e.Name()
	e.SetName("second.bin")

	if e.NameLength != 10 || e.Name() != "second.bin" {
		t.Errorf("after SetName: NameLength = %v, Name() = %q", e.NameLength, e.Name())
	}
	if e.NameBuffer[10] != 0xFF || e.NameBuffer[NameBufferSize-1] != 0xFF {
		t.Errorf("name buffer is not padded with 0xFF: %X", e.NameBuffer)
	}
}

func Test_isEndMarker(t *testing.T) {
	for _, b := range []byte{0x00, 0xFF} {
		if !isEndMarker(b) {
			t.Errorf("isEndMarker(0x%02X) = false, want true", b)
		}
	}
	for _, b := range []byte{0x01, 0x04, DeletedMarker} {
		if isEndMarker(b) {
			t.Errorf("isEndMarker(0x%02X) = true, want false", b)
		}
	}
}
