package archive

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// fileReader walks the central directory of a random access container.
type fileReader struct {
	files []*zip.File
	next  int
}

// OpenFile opens a container backed by random access storage of the given
// size, typically an open file.
//
// The central directory is read immediately: an input that is not a zip
// archive fails here with an error wrapping ErrNotArchive, and an I/O failure
// while reading it is returned as is.
func OpenFile(r io.ReaderAt, size int64) (Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		// Newer zip readers return a usable reader together with a
		// warning about insecure entry names; names are never used to
		// touch the filesystem here.
		if zr == nil {
			if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) {
				return nil, fmt.Errorf("%w: %w", ErrNotArchive, err)
			}
			return nil, err
		}
	}
	return &fileReader{files: zr.File}, nil
}

// Next implements Reader.
func (r *fileReader) Next() (*Entry, error) {
	for r.next < len(r.files) {
		f := r.files[r.next]
		r.next++

		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		return &Entry{
			Name: filepath.FromSlash(f.Name),
			open: f.Open,
		}, nil
	}
	return nil, io.EOF
}

// Close implements Reader.
func (r *fileReader) Close() error {
	r.files = nil
	return nil
}
