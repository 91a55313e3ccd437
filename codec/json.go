package codec

import "encoding/json"

// JSON is the standard library codec, kept for readers that must not depend
// on go-json.
type JSON struct{}

// Marshal encodes v.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }
