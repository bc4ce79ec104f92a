package archive

import (
	"errors"
	"io"
)

var (
	// ErrNotArchive is returned by OpenFile when the file is not a valid
	// zip archive.
	ErrNotArchive = errors.New("not a valid archive")

	// ErrUnsupportedMethod is returned when an entry uses a compression
	// method other than store or deflate.
	ErrUnsupportedMethod = errors.New("unsupported compression method")

	// ErrStaleEntry is returned when reading an entry stream after the
	// reader has moved past that entry.
	ErrStaleEntry = errors.New("entry stream used after advancing to the next entry")
)

// Reader enumerates the entries of one container.
type Reader interface {
	// Next returns the next non-directory entry. It returns io.EOF when
	// there are no more entries.
	Next() (*Entry, error)

	// Close releases the reader. It does not close the underlying file or
	// stream, which belong to the caller.
	Close() error
}

// Entry is one named file inside a container.
type Entry struct {
	// Name is the entry path inside its container using the platform
	// separator, e.g. com/foo/Bar.class.
	Name string

	open func() (io.ReadCloser, error)
}

// Ext returns the entry's extension, see Ext.
func (e *Entry) Ext() string {
	return Ext(e.Name)
}

// Open returns the entry's content. The stream must be closed before the
// owning Reader's Next is called again.
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.open()
}
