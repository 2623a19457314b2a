package carver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-restruct/restruct"

	"github.com/aligator/gofatx/checkpoint"
)

// headSize is the number of bytes prefetched for every window. All magic checks fit into it.
const headSize = 0x40

// Window is a cursor at one candidate offset. Positions passed to its methods are
// relative to that offset. All multi byte values are little endian.
type Window struct {
	source io.ReaderAt
	offset int64
	// limit is the absolute end of the readable range.
	limit int64
	head  []byte
}

// NewWindow creates a window at offset of source. Reads never cross limit.
func NewWindow(source io.ReaderAt, offset, limit int64) (*Window, error) {
	w := &Window{
		source: source,
		offset: offset,
		limit:  limit,
	}

	size := int64(headSize)
	if offset+size > limit {
		size = limit - offset
	}
	if size < 0 {
		size = 0
	}

	head, err := w.read(0, size)
	if err != nil {
		return nil, err
	}
	w.head = head
	return w, nil
}

// Offset returns the absolute offset of the window.
func (w *Window) Offset() int64 {
	return w.offset
}

// Remaining returns the number of bytes between the window start and the end of the range.
func (w *Window) Remaining() int64 {
	return w.limit - w.offset
}

// HasPrefix reports whether magic is at position at. It only looks into the prefetched head.
func (w *Window) HasPrefix(at int, magic []byte) bool {
	if at < 0 || at+len(magic) > len(w.head) {
		return false
	}
	return bytes.Equal(w.head[at:at+len(magic)], magic)
}

// Bytes returns n bytes at position at.
func (w *Window) Bytes(at, n int64) ([]byte, error) {
	if at < 0 || n < 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes at position %d", n, at), ErrShortWindow)
	}
	if at+n <= int64(len(w.head)) {
		return w.head[at : at+n], nil
	}
	return w.read(at, n)
}

func (w *Window) read(at, n int64) ([]byte, error) {
	if at < 0 || n < 0 || w.offset+at+n > w.limit {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes at 0x%X", n, w.offset+at), ErrShortWindow)
	}

	data := make([]byte, n)
	read, err := w.source.ReadAt(data, w.offset+at)
	if int64(read) == n && err == io.EOF {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, checkpoint.Wrap(err, ErrShortWindow)
	}
	return data, nil
}

func (w *Window) Uint16(at int64) (uint16, error) {
	data, err := w.Bytes(at, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

func (w *Window) Uint32(at int64) (uint32, error) {
	data, err := w.Bytes(at, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// CString reads a zero terminated string of at most max bytes at position at.
// The string is cut at the end of the range.
func (w *Window) CString(at int64, max int64) (string, error) {
	if remaining := w.Remaining() - at; max > remaining {
		max = remaining
	}

	data, err := w.Bytes(at, max)
	if err != nil {
		return "", err
	}
	if end := bytes.IndexByte(data, 0); end >= 0 {
		data = data[:end]
	}
	return string(data), nil
}

// Unpack decodes the fixed size structure v at position at.
func (w *Window) Unpack(at int64, v interface{}) error {
	size, err := restruct.SizeOf(v)
	if err != nil {
		return checkpoint.From(err)
	}

	data, err := w.Bytes(at, int64(size))
	if err != nil {
		return err
	}
	return checkpoint.From(restruct.Unpack(data, binary.LittleEndian, v))
}
