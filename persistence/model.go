package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/kozinec/blobstore"
	"github.com/hupe1980/kozinec/codec"
	"github.com/hupe1980/kozinec/internal/hash"
	"github.com/hupe1980/kozinec/model"
)

// Options configures model encoding.
type Options struct {
	Codec       codec.Codec
	Compression Compression
}

// Option mutates Options.
type Option func(*Options)

// WithCodec selects the payload codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithCompression selects the payload compression. Defaults to zstd.
func WithCompression(c Compression) Option {
	return func(o *Options) { o.Compression = c }
}

func applyOptions(optFns []Option) Options {
	opts := Options{Codec: codec.Default, Compression: CompressionZSTD}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return opts
}

// Marshal encodes m into the model file format.
func Marshal(m *model.Model, optFns ...Option) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opts := applyOptions(optFns)

	raw, err := opts.Codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model with %s: %w", opts.Codec.Name(), err)
	}

	stored, used, err := compress(raw, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress model with %s: %w", opts.Compression, err)
	}

	hdr, _ := Header{
		Version:     Version,
		Codec:       opts.Codec.ID(),
		Compression: used,
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(stored)),
	}.MarshalBinary()

	out := make([]byte, 0, HeaderSize+len(stored)+TrailerSize)
	out = append(out, hdr...)
	out = append(out, stored...)
	out = binary.LittleEndian.AppendUint32(out, hash.CRC32C(stored))
	return out, nil
}

// Unmarshal decodes and validates a model file.
func Unmarshal(data []byte) (*model.Model, error) {
	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	end := uint64(HeaderSize) + h.StoredSize
	if uint64(len(data)) < end+TrailerSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, len(data), end+TrailerSize)
	}

	stored := data[HeaderSize:end]
	if err := verify(stored, binary.LittleEndian.Uint32(data[end:end+TrailerSize])); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	c, err := codec.ByID(h.Codec)
	if err != nil {
		return nil, err
	}

	raw, err := decompress(stored, h.Compression, int(h.RawSize))
	if err != nil {
		return nil, fmt.Errorf("decompress model with %s: %w", h.Compression, err)
	}

	var m model.Model
	if err := c.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode model with %s: %w", c.Name(), err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode writes m to w.
func Encode(w io.Writer, m *model.Model, optFns ...Option) error {
	data, err := Marshal(m, optFns...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a model from r.
func Decode(r io.Reader) (*model.Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Save writes m to store under name.
func Save(ctx context.Context, store blobstore.Store, name string, m *model.Model, optFns ...Option) error {
	data, err := Marshal(m, optFns...)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("save model %s: %w", name, err)
	}
	return nil
}

// Load reads the model stored under name.
func Load(ctx context.Context, store blobstore.Store, name string) (*model.Model, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	return m, nil
}
