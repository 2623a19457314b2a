package fatx

import (
	"errors"
	"io"
	"io/fs"

	"github.com/spf13/afero"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs wraps the afero FATX implementation to be compatible with fs.FS.
type GoFs struct {
	*Fs
}

// NewGoFS mounts the partition in reader as fs.FS compatible filesystem.
func NewGoFS(reader io.ReadSeeker, opts Options) (*GoFs, error) {
	fatxFs, err := New(reader, opts)
	if err != nil {
		return nil, err
	}

	return &GoFs{fatxFs}, nil
}

// NewIOFS mounts the partition in reader and wraps it by afero.IOFS.
func NewIOFS(reader io.ReadSeeker, opts Options) (afero.IOFS, error) {
	fatxFs, err := New(reader, opts)
	if err != nil {
		return afero.IOFS{}, err
	}

	return afero.NewIOFS(fatxFs), nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
