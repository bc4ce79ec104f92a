package archive

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

const (
	localHeaderSig    = 0x04034b50
	dataDescriptorSig = 0x08074b50

	// localHeaderLen is the fixed part of a local file header after the
	// signature.
	localHeaderLen = 26

	methodStore   = 0
	methodDeflate = 8

	flagDataDescriptor = 0x8

	zip64Marker = 0xFFFFFFFF
)

// streamReader walks the local file headers of a zip stream in order.
type streamReader struct {
	br  *bufio.Reader
	cur *streamEntry
	gen int
	err error
}

// streamEntry tracks the data of the entry currently being read.
type streamEntry struct {
	data       io.Reader
	inflater   io.ReadCloser
	descriptor bool
	openErr    error
}

// OpenStream reads a container from a sequential stream, such as the content
// of an entry of another container.
//
// The stream is not validated up front. Enumeration ends at the first bytes
// that are not a local file header, so input that is not a zip archive
// yields no entries.
func OpenStream(r io.Reader) Reader {
	return &streamReader{br: bufio.NewReader(r)}
}

// Next implements Reader.
func (s *streamReader) Next() (*Entry, error) {
	if s.err != nil {
		return nil, s.err
	}

	for {
		if err := s.finishEntry(); err != nil {
			s.err = err
			return nil, err
		}

		name, entry, err := s.readLocalHeader()
		if err != nil {
			s.err = err
			return nil, err
		}
		s.cur = entry
		s.gen++

		if strings.HasSuffix(name, "/") {
			continue
		}

		gen := s.gen
		return &Entry{
			Name: filepath.FromSlash(name),
			open: func() (io.ReadCloser, error) {
				if entry.openErr != nil {
					return nil, entry.openErr
				}
				return &entryStream{s: s, gen: gen, r: entry.data}, nil
			},
		}, nil
	}
}

// Close implements Reader.
func (s *streamReader) Close() error {
	if s.cur != nil && s.cur.inflater != nil {
		_ = s.cur.inflater.Close() //nolint:errcheck // flate readers never fail to close
	}
	s.cur = nil
	s.gen++
	if s.err == nil {
		s.err = io.EOF
	}
	return nil
}

// readLocalHeader reads the next local file header. Anything other than a
// complete header with a valid signature ends the enumeration with io.EOF.
func (s *streamReader) readLocalHeader() (string, *streamEntry, error) {
	var sig [4]byte
	if _, err := io.ReadFull(s.br, sig[:]); err != nil {
		return "", nil, io.EOF
	}
	if binary.LittleEndian.Uint32(sig[:]) != localHeaderSig {
		return "", nil, io.EOF
	}

	var hdr [localHeaderLen]byte
	if _, err := io.ReadFull(s.br, hdr[:]); err != nil {
		return "", nil, io.EOF
	}

	flags := binary.LittleEndian.Uint16(hdr[2:4])
	method := binary.LittleEndian.Uint16(hdr[4:6])
	compressedSize := binary.LittleEndian.Uint32(hdr[14:18])
	nameLen := int(binary.LittleEndian.Uint16(hdr[22:24]))
	extraLen := int64(binary.LittleEndian.Uint16(hdr[24:26]))

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(s.br, nameBuf); err != nil {
		return "", nil, fmt.Errorf("failed to read entry name: %w", noEOF(err))
	}
	if _, err := io.CopyN(io.Discard, s.br, extraLen); err != nil {
		return "", nil, fmt.Errorf("failed to read extra field of %s: %w", nameBuf, noEOF(err))
	}
	name := string(nameBuf)

	entry := &streamEntry{descriptor: flags&flagDataDescriptor != 0}

	switch method {
	case methodDeflate:
		// bufio.Reader is an io.ByteReader, so the inflater stops exactly
		// at the end of the deflate stream.
		entry.inflater = flate.NewReader(s.br)
		entry.data = entry.inflater
	case methodStore:
		if entry.descriptor || compressedSize == zip64Marker {
			return "", nil, fmt.Errorf("%w: stored entry %s without a known size", ErrUnsupportedMethod, name)
		}
		entry.data = io.LimitReader(s.br, int64(compressedSize))
	default:
		if entry.descriptor || compressedSize == zip64Marker {
			return "", nil, fmt.Errorf("%w: method %d in %s", ErrUnsupportedMethod, method, name)
		}
		entry.data = io.LimitReader(s.br, int64(compressedSize))
		entry.openErr = fmt.Errorf("%w: method %d in %s", ErrUnsupportedMethod, method, name)
	}

	return name, entry, nil
}

// finishEntry skips whatever the caller left unread of the current entry,
// including a trailing data descriptor.
func (s *streamReader) finishEntry() error {
	cur := s.cur
	if cur == nil {
		return nil
	}
	s.cur = nil

	if _, err := io.Copy(io.Discard, cur.data); err != nil {
		return fmt.Errorf("failed to skip entry data: %w", noEOF(err))
	}
	if cur.inflater != nil {
		_ = cur.inflater.Close() //nolint:errcheck // flate readers never fail to close
	}

	if !cur.descriptor {
		return nil
	}

	// The descriptor signature is optional: crc32, compressed size and
	// uncompressed size follow either way.
	var buf [12]byte
	if _, err := io.ReadFull(s.br, buf[:4]); err != nil {
		return fmt.Errorf("failed to read data descriptor: %w", noEOF(err))
	}
	n := 8
	if binary.LittleEndian.Uint32(buf[:4]) == dataDescriptorSig {
		n = 12
	}
	if _, err := io.ReadFull(s.br, buf[:n]); err != nil {
		return fmt.Errorf("failed to read data descriptor: %w", noEOF(err))
	}
	return nil
}

// entryStream hands out the current entry's data and refuses reads once
// the reader has moved on.
type entryStream struct {
	s      *streamReader
	gen    int
	r      io.Reader
	closed bool
}

// Read implements io.Reader.
func (e *entryStream) Read(p []byte) (int, error) {
	if e.closed || e.gen != e.s.gen {
		return 0, ErrStaleEntry
	}
	return e.r.Read(p)
}

// Close implements io.Closer. The data left unread is skipped by the next
// call to Next.
func (e *entryStream) Close() error {
	e.closed = true
	return nil
}

// noEOF turns a plain EOF in the middle of a structure into
// io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
