package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/kozinec/codec"
	"github.com/hupe1980/kozinec/internal/hash"
)

const (
	// Magic identifies model files.
	Magic = "SKM1"
	// Version is the current format version.
	Version uint16 = 1

	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 32
	// TrailerSize is the payload checksum length in bytes.
	TrailerSize = 4

	// MaxPayloadSize bounds the decoded payload to reject corrupt lengths
	// before allocating.
	MaxPayloadSize = 1 << 34
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrTruncated      = errors.New("truncated model file")
	// ErrCorrupt is returned when header sizes are inconsistent with the
	// stored payload.
	ErrCorrupt = errors.New("corrupt model file")
)

// Header is the decoded fixed-size file header.
type Header struct {
	Version     uint16
	Codec       codec.ID
	Compression Compression
	RawSize     uint64
	StoredSize  uint64
}

// MarshalBinary encodes h with its checksum.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Codec)
	buf[7] = byte(h.Compression)
	binary.LittleEndian.PutUint64(buf[8:16], h.RawSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.StoredSize)
	binary.LittleEndian.PutUint32(buf[28:32], hash.CRC32C(buf[:28]))
	return buf, nil
}

// UnmarshalBinary decodes and verifies a header.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes", ErrTruncated, len(buf))
	}
	if string(buf[0:4]) != Magic {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, buf[0:4])
	}
	if err := verify(buf[:28], binary.LittleEndian.Uint32(buf[28:32])); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	h.Codec = codec.ID(buf[6])
	h.Compression = Compression(buf[7])
	h.RawSize = binary.LittleEndian.Uint64(buf[8:16])
	h.StoredSize = binary.LittleEndian.Uint64(buf[16:24])

	if h.RawSize > MaxPayloadSize || h.StoredSize > MaxPayloadSize {
		return fmt.Errorf("%w: payload size %d/%d exceeds limit", ErrTruncated, h.RawSize, h.StoredSize)
	}
	return nil
}
