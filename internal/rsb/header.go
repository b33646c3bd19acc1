// Package rsb implements a reference resource stream bundle codec. A bundle is
// a fixed header followed by the unpacked bundle directory: the manifest and
// one packet file per listed packet.
package rsb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic bytes identifying a bundle header.
var Magic = [4]byte{'1', 'b', 's', 'r'}

const (
	// HeaderSize is the fixed binary size of a bundle header.
	HeaderSize = 24

	// Version written by Pack.
	Version = 4
)

// Errors returned when reading a bundle.
var (
	ErrInvalidMagic     = errors.New("invalid bundle magic")
	ErrPlatformMismatch = errors.New("bundle was built for another platform")
)

// Header is the bundle header. All fields are little-endian.
type Header struct {
	Magic                 [4]byte // +0x00
	Version               uint32  // +0x04
	TextureFormatCategory uint32  // +0x08
	PacketCount           uint32  // +0x0c
	PayloadLength         uint64  // +0x10
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: expected %x, got %x", ErrInvalidMagic, Magic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("unsupported bundle version %d", h.Version)
	}
	if h.PayloadLength == 0 {
		return fmt.Errorf("payload length is zero")
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.TextureFormatCategory)
	binary.LittleEndian.PutUint32(buf[12:16], h.PacketCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.PayloadLength)
	return buf, nil
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.TextureFormatCategory = binary.LittleEndian.Uint32(data[8:12])
	h.PacketCount = binary.LittleEndian.Uint32(data[12:16])
	h.PayloadLength = binary.LittleEndian.Uint64(data[16:24])
	return h.Validate()
}

// ReadHeader reads the header at the start of r.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := &Header{}
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return h, nil
}
