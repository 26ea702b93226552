package jsonx

import (
	"bytes"
	"encoding/json"

	"github.com/clinia/dataapi/errorx"
)

// Normalize re-encodes a JSON value with object keys sorted and insignificant whitespace dropped,
// so that equal documents compare equal byte for byte. Numbers keep their original text.
func Normalize[T ~string | ~[]byte](in T) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(in)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errorx.InvalidArgumentErrorf("invalid json: %v", err)
	}
	if dec.More() {
		return nil, errorx.InvalidArgumentErrorf("invalid json: trailing data after the first value")
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, errorx.InternalErrorf("failed to encode normalized json: %v", err)
	}
	return out, nil
}

// MustNormalize is Normalize for fixtures and tests. It panics on invalid JSON.
func MustNormalize[T ~string | ~[]byte](in T) json.RawMessage {
	out, err := Normalize(in)
	if err != nil {
		panic(err)
	}
	return out
}
