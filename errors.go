package fatx

import "errors"

// These errors may occur while mounting or reading a volume.
var (
	ErrFormat       = errors.New("not a FATX volume")
	ErrOutOfRange   = errors.New("cluster out of range")
	ErrReadCluster  = errors.New("could not read cluster")
	ErrReadFat      = errors.New("could not read the file allocation table")
	ErrReadSource   = errors.New("could not read from the source")
	ErrDecodeEntry  = errors.New("could not decode directory entry")
	ErrIndexTree    = errors.New("could not index the directory tree")
	ErrReadOnly     = errors.New("FATX volumes are read-only")
	ErrReadFile     = errors.New("could not read file completely")
	ErrSeekFile     = errors.New("could not seek inside of the file")
	ErrReadDir      = errors.New("could not read the directory")
	ErrFileNotFound = errors.New("file not found")
)
