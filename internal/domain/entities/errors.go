package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChunkConfig is returned for chunk settings that cannot advance.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrDirectoryNotFound means there is nothing to ingest. Ingestion treats it as zero work.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrEmptyQuery is returned when a query has no searchable content.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNotFound is returned by tools for missing files.
	ErrNotFound = errors.New("not found")

	// ErrPathOutsideRoot is returned when a path escapes the documents root.
	ErrPathOutsideRoot = errors.New("path outside documents root")

	// ErrHostNotAllowed is returned by fetch for hosts outside the allow list.
	ErrHostNotAllowed = errors.New("host not allowed")

	// ErrToolUnavailable is returned for a tool directive when the tool is not configured.
	ErrToolUnavailable = errors.New("tool not available")
)

// FileError records a document that could not be read. It never aborts ingestion.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// MarshalText lets reports carry the message in JSON output.
func (e FileError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// StorageError wraps a failure of the storage engine. It is fatal to the current operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
