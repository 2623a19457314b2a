// Package checkpoint decorates errors with the file and line where they passed through,
// which gives something close to a stacktrace when the final error is printed.
// Every error attached to a checkpoint can still be matched by errors.Is and errors.As.
//
// Errors may additionally be marked as retryable. The extraction code uses this for
// failed writes to the destination, so a host can prompt the user and run the same
// write again.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err by a new checkpoint which only adds caller information.
// It returns nil if err == nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	if err == nil {
		return nil
	}

	return newCheckpoint(err, nil, false)
}

// Wrap adds a checkpoint to prev and attaches err as the description of that checkpoint.
// Returns nil if prev == nil, so it can be used directly on return values:
//  var ErrReadCluster = errors.New("could not read cluster")
//
//  func read() error {
//  	err := source.ReadAt(buf, off)
//  	return checkpoint.Wrap(err, ErrReadCluster)
//  }
// Both errors.Is(err, ErrReadCluster) and errors.Is(err, <the cause>) hold afterwards.
func Wrap(prev, err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if prev == io.EOF {
		return io.EOF
	}

	if prev == nil {
		return nil
	}

	return newCheckpoint(err, prev, false)
}

// Retryable works like Wrap but additionally marks the result so that IsRetryable reports true.
// A nil prev returns nil.
func Retryable(prev, err error) error {
	if prev == nil {
		return nil
	}

	return newCheckpoint(err, prev, true)
}

// IsRetryable reports whether any checkpoint in the chain of err was created by Retryable.
func IsRetryable(err error) bool {
	var cp *checkpoint
	for err != nil {
		if errors.As(err, &cp) {
			if cp.retryable {
				return true
			}
			err = cp.prev
			continue
		}
		return false
	}
	return false
}

func newCheckpoint(err, prev error, retryable bool) *checkpoint {
	// Skip newCheckpoint itself and the exported helper.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:       err,
		prev:      prev,
		retryable: retryable,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err       error
	prev      error
	retryable bool

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	location := "unknown"
	if e.callerOk {
		location = fmt.Sprintf("%s:%d", e.file, e.line)
	}

	// From creates checkpoints without a description.
	if e.prev == nil {
		return fmt.Sprintf("File: %s\n\t%v", location, e.err)
	}

	// Use different formatting for the prev error if it was not also a checkpoint.
	prevErrString := e.prev.Error()
	if _, ok := e.prev.(*checkpoint); !ok {
		prevErrString = "File: unknown\n\t" + strings.ReplaceAll(prevErrString, "\n", "\n\t")
	}

	return fmt.Sprintf("File: %s\n\t%v\n%v", location, e.err, prevErrString)
}

func (e *checkpoint) Unwrap() error {
	if e.prev == nil {
		return e.err
	}
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
