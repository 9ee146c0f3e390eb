package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// JSON is stable and portable for the engine's record types (coordinates,
// payload variants, artifacts, LUCA records). Implement Codec and pass it via
// engine options if another wire format is needed.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
//
// Persisted artifacts are self-describing (they record the codec name), so
// changing Default never breaks opening existing data.
var Default Codec = JSON{}
