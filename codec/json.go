package codec

import "encoding/json"

// JSON is the application/json codec.
type JSON struct{}

// MediaType returns "application/json".
func (JSON) MediaType() string { return MediaJSON }

// Aliases returns the other media types handled as JSON.
func (JSON) Aliases() []string { return []string{"text/json"} }

// Encode marshals v with encoding/json.
func (JSON) Encode(v any) ([]byte, error) { return json.Marshal(v) }

// Decode unmarshals data into v.
func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
