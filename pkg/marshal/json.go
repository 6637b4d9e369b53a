package marshal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeJSON parses data into the raw form marshallers consume. Numbers are
// kept as json.Number so that ids survive without float rounding.
func DecodeJSON(data []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("malformed JSON: trailing data")
	}
	return raw, nil
}

func ExtractJSON[T any](m Marshaller[T], data []byte) (T, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return m.Extract(raw)
}

func PackJSON[T any](m Marshaller[T], value T) ([]byte, error) {
	return json.Marshal(m.Pack(value))
}
