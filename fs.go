package fatx

import (
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/aligator/gofatx/checkpoint"
)

// Fs is a read-only afero.Fs over the live directory tree of a mounted Volume.
// Deleted entries are not visible. All mutating calls fail with ErrReadOnly.
type Fs struct {
	volume *Volume
}

// New opens the partition in reader and mounts it.
func New(reader io.ReadSeeker, opts Options) (*Fs, error) {
	source, err := NewSource(reader, 0, 0)
	if err != nil {
		return nil, err
	}

	volume, err := Mount(source, opts)
	if err != nil {
		return nil, err
	}

	return NewFs(volume), nil
}

// NewFs creates the filesystem view of an already mounted volume.
func NewFs(volume *Volume) *Fs {
	return &Fs{volume: volume}
}

func (fs *Fs) Volume() *Volume {
	return fs.volume
}

// readFileAt reads up to readSize bytes at offset of the file starting at cluster
// by following its FAT chain. It returns io.EOF together with the data if the end of the file was reached.
func (fs *Fs) readFileAt(cluster uint32, fileSize int64, offset int64, readSize int64) ([]byte, error) {
	if offset >= fileSize {
		return nil, io.EOF
	}

	var eof error
	if offset+readSize > fileSize {
		readSize = fileSize - offset
		eof = io.EOF
	}

	chain, err := fs.volume.fat.Chain(cluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadFile)
	}

	bytesPerCluster := fs.volume.Geometry.BytesPerCluster
	result := make([]byte, 0, readSize)
	for index := offset / bytesPerCluster; int64(len(result)) < readSize; index++ {
		if index >= int64(len(chain)) {
			// The chain is shorter than the file size claims.
			return result, checkpoint.Wrap(io.ErrUnexpectedEOF, ErrReadFile)
		}

		data, err := fs.volume.clusters.Read(chain[index])
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return result, checkpoint.Wrap(err, ErrReadFile)
		}

		start := int64(0)
		if len(result) == 0 {
			start = offset % bytesPerCluster
		}
		end := start + readSize - int64(len(result))
		if end > bytesPerCluster {
			end = bytesPerCluster
		}
		result = append(result, data[start:end]...)
	}

	return result, eof
}

func (fs *Fs) readRoot() ([]*DirectoryEntry, error) {
	return fs.visible(fs.volume.tree.Roots()), nil
}

func (fs *Fs) readDir(index int) ([]*DirectoryEntry, error) {
	entry := fs.volume.tree.Entry(index)
	if entry == nil {
		return nil, checkpoint.Wrap(ErrFileNotFound, ErrReadDir)
	}
	return fs.visible(entry.Children), nil
}

func (fs *Fs) visible(indices []int) []*DirectoryEntry {
	var result []*DirectoryEntry
	for _, i := range indices {
		if e := fs.volume.tree.Entry(i); !e.IsDeleted() {
			result = append(result, e)
		}
	}
	return result
}

// lookup resolves a slash separated path to a forest index. The root is NoParent.
func (fs *Fs) lookup(name string) (int, error) {
	name = strings.Trim(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return NoParent, nil
	}

	current := fs.volume.tree.Roots()
	index := NoParent
	for _, part := range strings.Split(name, "/") {
		found := NoParent
		for _, i := range current {
			e := fs.volume.tree.Entry(i)
			if !e.IsDeleted() && e.Name() == part {
				found = i
				break
			}
		}
		if found == NoParent {
			return NoParent, os.ErrNotExist
		}

		index = found
		current = fs.volume.tree.Entry(found).Children
	}

	return index, nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	index, err := fs.lookup(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	if index == NoParent {
		return &File{
			fs:          fs,
			path:        "",
			index:       NoParent,
			isDirectory: true,
			stat:        rootFileInfo{},
		}, nil
	}

	entry := fs.volume.tree.Entry(index)
	return &File{
		fs:           fs,
		path:         name,
		index:        index,
		isDirectory:  entry.IsDirectory(),
		isReadOnly:   entry.IsReadOnly(),
		isHidden:     entry.IsHidden(),
		isSystem:     entry.IsSystem(),
		firstCluster: entry.FirstCluster,
		stat:         entry.FileInfo(),
	}, nil
}

func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrReadOnly}
	}
	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	return f.Stat()
}

func (fs *Fs) Name() string {
	return "FATX"
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "create", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: path, Err: ErrReadOnly}
}

func (fs *Fs) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) RemoveAll(path string) error {
	return &os.PathError{Op: "remove", Path: path, Err: ErrReadOnly}
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: ErrReadOnly}
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return &os.PathError{Op: "chown", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: ErrReadOnly}
}
