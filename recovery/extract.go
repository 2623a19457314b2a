package recovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	fatx "github.com/aligator/gofatx"
	"github.com/aligator/gofatx/checkpoint"
)

// These errors may occur while extracting files.
var (
	ErrExtract   = errors.New("could not extract file")
	ErrWriteFile = errors.New("could not write to the destination")
	ErrNoFile    = errors.New("no such recovered file")
)

// clusterReader is the part of a volume the extractor reads file contents from.
type clusterReader interface {
	Read(cluster uint32) ([]byte, error)
	BytesPerCluster() int64
}

// ExtractOptions configure an Extractor.
type ExtractOptions struct {
	// MaxRank limits ExtractAll to files ranked at most MaxRank.
	MaxRank  Rank
	Progress fatx.ProgressFunc
	Logger   logrus.FieldLogger
}

// Extractor writes recovered files and carved byte ranges into an afero.Fs.
// Failed writes return errors for which checkpoint.IsRetryable is true, the same
// call can simply be repeated.
type Extractor struct {
	clusters clusterReader
	source   io.ReaderAt
	dest     afero.Fs
	opts     ExtractOptions
	log      logrus.FieldLogger
}

// NewExtractor creates an extractor reading from volume and writing into dest.
func NewExtractor(volume *fatx.Volume, dest afero.Fs, opts ExtractOptions) *Extractor {
	return newExtractor(volume.Clusters(), volume.Source(), dest, opts)
}

func newExtractor(clusters clusterReader, source io.ReaderAt, dest afero.Fs, opts ExtractOptions) *Extractor {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Extractor{
		clusters: clusters,
		source:   source,
		dest:     dest,
		opts:     opts,
		log:      log,
	}
}

// Extract writes the file at index of ranker below dir, using the path of its parents.
// Directories are created, files are filled from their cluster list and cut to their file size.
// It returns the written path.
func (x *Extractor) Extract(ranker *Ranker, index int, dir string) (string, error) {
	file := ranker.File(index)
	if file == nil {
		return "", checkpoint.Wrap(fmt.Errorf("index %d", index), ErrNoFile)
	}

	target := path.Join(dir, x.relativePath(ranker, index))
	if file.Entry.IsDirectory() {
		if err := x.dest.MkdirAll(target, 0755); err != nil {
			return "", checkpoint.Retryable(err, ErrWriteFile)
		}
		return target, nil
	}

	if err := x.dest.MkdirAll(path.Dir(target), 0755); err != nil {
		return "", checkpoint.Retryable(err, ErrWriteFile)
	}

	out, err := x.dest.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", checkpoint.Retryable(err, ErrWriteFile)
	}
	defer out.Close()

	remaining := int64(file.Entry.FileSize)
	for _, cluster := range file.Clusters {
		if remaining <= 0 {
			break
		}

		data, err := x.clusters.Read(cluster)
		if err != nil {
			return "", checkpoint.Wrap(err, ErrExtract)
		}
		if int64(len(data)) > remaining {
			data = data[:remaining]
		}

		if _, err := out.Write(data); err != nil {
			return "", checkpoint.Retryable(err, ErrWriteFile)
		}
		remaining -= int64(len(data))
	}

	if remaining > 0 {
		x.log.WithFields(logrus.Fields{
			"offset":  file.Offset(),
			"missing": remaining,
		}).Warn("cluster list shorter than file size")
	}

	return target, nil
}

// ExtractAll writes every file ranked at most MaxRank below dir. Blocklisted files are skipped.
// ctx is checked once per file. The first error stops the extraction.
func (x *Extractor) ExtractAll(ctx context.Context, ranker *Ranker, dir string) (int, error) {
	files := ranker.Files()
	written := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return written, checkpoint.From(err)
		}

		if f.Rank <= x.opts.MaxRank && !f.Excluded {
			target, err := x.Extract(ranker, i, dir)
			if err != nil {
				return written, err
			}
			written++
			x.log.WithFields(logrus.Fields{
				"rank": f.Rank.String(),
				"path": target,
			}).Debug("extracted")
		}

		if x.opts.Progress != nil {
			x.opts.Progress(int64(i+1), int64(len(files)))
		}
	}

	x.log.WithField("files", written).Info("extraction finished")
	return written, nil
}

// ExtractRange copies size bytes at the partition offset into dir/name. It is used for carved files.
func (x *Extractor) ExtractRange(offset, size int64, dir, name string) (string, error) {
	target := path.Join(dir, sanitize(name))
	if err := x.dest.MkdirAll(dir, 0755); err != nil {
		return "", checkpoint.Retryable(err, ErrWriteFile)
	}

	out, err := x.dest.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", checkpoint.Retryable(err, ErrWriteFile)
	}
	defer out.Close()

	section := io.NewSectionReader(x.source, offset, size)
	if _, err := io.Copy(out, section); err != nil {
		return "", checkpoint.Retryable(err, ErrWriteFile)
	}

	return target, nil
}

// relativePath builds the path of index inside the extraction folder.
// Every element is sanitized and suffixed with the record offset, so records with the same
// name (e.g. a live and a deleted file) never overwrite each other.
func (x *Extractor) relativePath(ranker *Ranker, index int) string {
	var parts []string
	seen := make(map[int]bool)
	for i := index; i != fatx.NoParent && !seen[i]; i = ranker.File(i).Parent {
		seen[i] = true
		f := ranker.File(i)
		name := sanitize(f.Name())
		if !f.trusted() {
			name = fmt.Sprintf("%s.%08X", name, f.Offset())
		}
		parts = append([]string{name}, parts...)
	}
	return path.Join(parts...)
}

// sanitize makes name usable as a single path element.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
