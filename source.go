package fatx

import (
	"fmt"
	"io"
	"sync"

	"github.com/aligator/gofatx/checkpoint"
)

// Source is the byte range of exactly one partition.
// It turns a single seek cursor (e.g. an os.File or afero.File) into positioned reads.
// Seek and Read are serialized by a mutex so the scanner, the carver and
// file reads may share one Source.
type Source struct {
	mu     sync.Mutex
	reader io.ReadSeeker
	base   int64
	length int64
}

// NewSource creates a Source for the partition starting at base.
// A length <= 0 extends the partition to the end of the reader.
func NewSource(reader io.ReadSeeker, base, length int64) (*Source, error) {
	if base < 0 {
		return nil, fmt.Errorf("negative partition offset %d", base)
	}

	if length <= 0 {
		end, err := reader.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrReadSource)
		}
		length = end - base
		if length <= 0 {
			return nil, checkpoint.Wrap(fmt.Errorf("partition offset %d beyond end %d", base, end), ErrReadSource)
		}
	}

	return &Source{
		reader: reader,
		base:   base,
		length: length,
	}, nil
}

// Size returns the length of the partition.
func (s *Source) Size() int64 {
	return s.length
}

// ReadAt reads len(p) bytes at the partition relative offset off.
// Reads crossing the end of the partition are cut and return io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("negative offset %d", off), ErrReadSource)
	}
	if off >= s.length {
		return 0, io.EOF
	}

	want := p
	if remaining := s.length - off; int64(len(want)) > remaining {
		want = want[:remaining]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.reader.Seek(s.base+off, io.SeekStart); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadSource)
	}

	n, err := io.ReadFull(s.reader, want)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return n, io.EOF
		}
		return n, err
	}

	if len(want) < len(p) {
		return n, io.EOF
	}
	return n, nil
}
