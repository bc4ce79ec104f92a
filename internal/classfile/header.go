package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the number of bytes ReadVersion consumes.
const HeaderSize = 8

// Magic is the class file magic number. ReadVersion does not enforce it.
const Magic uint32 = 0xCAFEBABE

// ReadVersion reads the class file header from r and classifies it.
//
// The magic number is read and discarded, followed by the big-endian minor
// and major versions. Input shorter than HeaderSize yields an error wrapping
// io.EOF or io.ErrUnexpectedEOF; bytes after the header are left unread.
func ReadVersion(r io.Reader) (Version, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Version{}, fmt.Errorf("failed to read class header: %w", err)
	}

	minor := binary.BigEndian.Uint16(header[4:6])
	major := binary.BigEndian.Uint16(header[6:8])

	return Classify(major, minor), nil
}
