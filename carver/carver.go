// Package carver recovers files without any surviving directory entry by recognizing
// format signatures in the raw bytes of a partition.
//
// The carver tests every registered Recognizer at fixed stride steps. After a step it always
// advances by exactly one stride, never by the size of a found file, so two files closer
// together than the stride cannot both be found.
package carver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/checkpoint"
)

// These errors may occur while carving.
var (
	ErrShortWindow = errors.New("window exceeds the carved range")
	ErrParse       = errors.New("could not parse signature")
	ErrStride      = errors.New("invalid stride")
	ErrRange       = errors.New("invalid carve range")
)

// Fixed strides. StrideCluster is resolved to the cluster size of the volume.
const (
	StrideByte      int64 = 1
	StrideParagraph int64 = 16
	StrideSector    int64 = 512
	StridePage      int64 = 4096
	StrideCluster   int64 = 0
)

// ParseStride parses one of "1", "16", "512", "4096" or "cluster".
// "cluster" returns bytesPerCluster.
func ParseStride(value string, bytesPerCluster int64) (int64, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "cluster" {
		if bytesPerCluster <= 0 {
			return 0, checkpoint.Wrap(fmt.Errorf("cluster size %d", bytesPerCluster), ErrStride)
		}
		return bytesPerCluster, nil
	}

	stride, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrStride)
	}

	switch stride {
	case StrideByte, StrideParagraph, StrideSector, StridePage:
		return stride, nil
	}
	return 0, checkpoint.Wrap(fmt.Errorf("%d is not one of 1, 16, 512, 4096 or cluster", stride), ErrStride)
}

// Match is one carved file.
type Match struct {
	Offset int64
	// Size is 0 if the format does not tell its size.
	Size   int64
	Name   string
	Format string
}

// Options configure a Carver.
type Options struct {
	// Recognizers replaces the default registry if not nil.
	Recognizers []Recognizer
	Progress    fatx.ProgressFunc
	Logger      logrus.FieldLogger
}

// Carver scans a byte range of source for known signatures.
type Carver struct {
	source      io.ReaderAt
	size        int64
	recognizers []Recognizer
	progress    fatx.ProgressFunc
	log         logrus.FieldLogger
}

// New creates a carver over the first size bytes of source.
func New(source io.ReaderAt, size int64, opts Options) *Carver {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	recognizers := opts.Recognizers
	if recognizers == nil {
		recognizers = Recognizers
	}

	return &Carver{
		source:      source,
		size:        size,
		recognizers: recognizers,
		progress:    opts.Progress,
		log:         log,
	}
}

// NewForVolume creates a carver over the whole partition of volume.
func NewForVolume(volume *fatx.Volume, opts Options) *Carver {
	if opts.Logger == nil {
		opts.Logger = volume.Logger()
	}
	return New(volume.Source(), volume.Source().Size(), opts)
}

// Carve tests the offsets start, start+stride, ... below end. end <= 0 means the end of the source.
// ctx is checked once per step. On cancellation the matches found so far are returned with the context error.
func (c *Carver) Carve(ctx context.Context, start, end, stride int64) ([]Match, error) {
	if end <= 0 || end > c.size {
		end = c.size
	}
	if stride <= 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("stride %d", stride), ErrStride)
	}
	if start < 0 || start > end {
		return nil, checkpoint.Wrap(fmt.Errorf("0x%X - 0x%X", start, end), ErrRange)
	}

	log := c.log.WithFields(logrus.Fields{"start": start, "end": end, "stride": stride})
	log.Info("carving")

	var matches []Match
	total := (end - start + stride - 1) / stride
	step := int64(0)
	for offset := start; offset < end; offset += stride {
		if err := ctx.Err(); err != nil {
			log.WithField("offset", offset).Info("carving cancelled")
			return matches, checkpoint.From(err)
		}

		if match, ok := c.carveAt(offset, end); ok {
			matches = append(matches, match)
		}

		step++
		if c.progress != nil {
			c.progress(step, total)
		}
	}

	log.WithField("matches", len(matches)).Info("carving finished")
	return matches, nil
}

// carveAt tries the recognizers in order. The first one whose Test matches decides the offset.
func (c *Carver) carveAt(offset, end int64) (Match, bool) {
	w, err := NewWindow(c.source, offset, end)
	if err != nil {
		c.log.WithField("offset", offset).WithError(err).Warn("could not read window")
		return Match{}, false
	}

	for _, r := range c.recognizers {
		if !r.Test(w) {
			continue
		}

		log := c.log.WithFields(logrus.Fields{"offset": offset, "format": r.Format()})
		name, size, err := parse(r, w)
		if err != nil {
			log.WithError(err).Warn("discarding signature")
			return Match{}, false
		}

		if name == "" {
			name = fmt.Sprintf("%08X.%s", offset, r.Extension())
		}
		log.WithFields(logrus.Fields{"name": name, "size": size}).Debug("found signature")

		return Match{
			Offset: offset,
			Size:   size,
			Name:   name,
			Format: r.Format(),
		}, true
	}

	return Match{}, false
}

// parse converts a panic inside a recognizer into ErrParse.
func parse(r Recognizer, w *Window) (name string, size int64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = checkpoint.Wrap(fmt.Errorf("%s: %v", r.Format(), p), ErrParse)
		}
	}()

	return r.Parse(w)
}
