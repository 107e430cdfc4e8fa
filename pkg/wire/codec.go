package wire

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes a value to JSON bytes.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON bytes into a value.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// EncodeEnvelope encodes an envelope to JSON bytes.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, fmt.Errorf("envelope has no type")
	}
	return json.Marshal(env)
}

// DecodeEnvelope decodes JSON bytes into an envelope. The payload is
// left as decoded JSON (map/slice/scalar); handlers interpret it.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope has no type")
	}
	return &env, nil
}

// PayloadMap returns the envelope payload as a JSON object, or an empty
// map when the payload is absent or not an object. Inbound handlers use
// this to pick fields out of otherwise opaque payloads.
func (e *Envelope) PayloadMap() map[string]any {
	if m, ok := e.Payload.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
