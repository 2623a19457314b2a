package fatx

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestSource_ReadAt(t *testing.T) {
	data := []byte("0123456789abcdefghij")

	tests := []struct {
		name    string
		base    int64
		length  int64
		off     int64
		size    int
		want    string
		wantErr error
	}{
		{name: "whole reader", off: 2, size: 4, want: "2345"},
		{name: "partition at an offset", base: 10, off: 2, size: 4, want: "cdef"},
		{name: "partition with a length", base: 10, length: 4, off: 0, size: 4, want: "abcd"},
		{name: "read crossing the end", base: 10, length: 4, off: 2, size: 4, want: "cd", wantErr: io.EOF},
		{name: "read behind the end", base: 10, length: 4, off: 4, size: 4, want: "", wantErr: io.EOF},
		{name: "negative offset", off: -1, size: 4, want: "", wantErr: ErrReadSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSource(bytes.NewReader(data), tt.base, tt.length)
			if err != nil {
				t.Fatalf("NewSource() error = %v", err)
			}

			p := make([]byte, tt.size)
			n, err := s.ReadAt(p, tt.off)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Source.ReadAt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := string(p[:n]); got != tt.want {
				t.Errorf("Source.ReadAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSource(t *testing.T) {
	reader := bytes.NewReader(make([]byte, 100))

	s, err := NewSource(reader, 40, 0)
	if err != nil || s.Size() != 60 {
		t.Errorf("NewSource() = %v, %v, want size 60", s, err)
	}

	if _, err := NewSource(reader, 100, 0); !errors.Is(err, ErrReadSource) {
		t.Errorf("NewSource() behind the end error = %v, want %v", err, ErrReadSource)
	}
	if _, err := NewSource(reader, -1, 0); err == nil {
		t.Errorf("NewSource() with a negative offset must fail")
	}
}
