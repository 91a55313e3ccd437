// Package codec encodes archive manifests and stored plans.
//
// Persisted records carry the codec name so a reader can pick the codec that
// wrote them. Changing the default only affects newly written records.
package codec

import "fmt"

// Codec encodes and decodes values. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is used when no codec is configured.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal marshals v with c, or Default when c is nil, and panics on
// error. It is meant for tests and static values.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
