// Package scg implements a reference stream compressed group codec: a packet
// file holding a fixed header followed by the packet's package directory.
package scg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic bytes identifying a packet header.
var Magic = [4]byte{'S', 'C', 'G', 'P'}

const (
	// HeaderSize is the fixed binary size of a packet header.
	HeaderSize = 32

	// Version written by Encode.
	Version = 1

	// FormatFlagOffset is the byte offset of the container format flag.
	FormatFlagOffset = 0x10
)

// ErrInvalidMagic is returned for data that does not start with a packet header.
var ErrInvalidMagic = errors.New("invalid packet magic")

// Header is the packet header. All fields are little-endian.
type Header struct {
	Magic         [4]byte // +0x00
	Version       uint32  // +0x04
	Composite     uint32  // +0x08: 1 when the packet is a composite group
	_             uint32  // +0x0c
	FormatFlag    uint32  // +0x10: 2 on Android, 4 on iOS
	_             uint32  // +0x14
	PayloadLength uint64  // +0x18
}

// IsComposite reports whether the composite bit is set.
func (h *Header) IsComposite() bool {
	return h.Composite != 0
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: expected %x, got %x", ErrInvalidMagic, Magic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("unsupported packet version %d", h.Version)
	}
	return nil
}

// EncodeTo writes the header to buf, which must hold HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	clear(buf[:HeaderSize])
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Composite)
	binary.LittleEndian.PutUint32(buf[16:20], h.FormatFlag)
	binary.LittleEndian.PutUint64(buf[24:32], h.PayloadLength)
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Composite = binary.LittleEndian.Uint32(buf[8:12])
	h.FormatFlag = binary.LittleEndian.Uint32(buf[16:20])
	h.PayloadLength = binary.LittleEndian.Uint64(buf[24:32])
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(r io.Reader) (*Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := &Header{}
	h.DecodeFrom(buf[:])
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// ReadHeaderFile reads the header of the packet at path.
func ReadHeaderFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}
