package main

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableFile indicates the file could not be opened, seeked or read.
	ErrUnreadableFile = errors.New("unreadable file")
	// ErrUnsupportedFormat indicates the magic bytes match neither a table nor a view.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrTruncatedRecord indicates a fixed-size record was cut short.
	ErrTruncatedRecord = errors.New("truncated record")
	// ErrUnresolvedCharset indicates a charset id could not be resolved. Never fatal.
	ErrUnresolvedCharset = errors.New("unresolved charset")
	// ErrUnsupportedEngineForPatch indicates the engine cannot be swapped for MEMORY.
	ErrUnsupportedEngineForPatch = errors.New("unsupported engine for patch")
)

// DecodeError carries the file, decode stage and file offset of a failure.
type DecodeError struct {
	Path   string
	Stage  string
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: %v", e.Path, e.Stage, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
