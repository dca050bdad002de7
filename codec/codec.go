// Package codec selects how model payloads are serialized.
//
// Persisted models record the codec ID in their header, so changing Default
// never breaks decoding of existing files.
package codec

import "fmt"

// ID is the on-disk identifier of a codec.
type ID uint8

const (
	// IDJSON identifies the encoding/json codec.
	IDJSON ID = 1
	// IDGoJSON identifies the goccy/go-json codec.
	IDGoJSON ID = 2
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
	ID() ID
}

// Default is the codec used for newly written models.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// ByID returns a built-in codec by its header identifier.
func ByID(id ID) (Codec, error) {
	switch id {
	case IDJSON:
		return JSON{}, nil
	case IDGoJSON:
		return GoJSON{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown id %d", id)
	}
}
