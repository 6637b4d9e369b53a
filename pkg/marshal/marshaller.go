// Package marshal converts between JSON-compatible raw values (what
// encoding/json produces when decoding into interface{}) and typed values,
// validating on the way in.
package marshal

import (
	"errors"
	"fmt"
	"strings"
)

// Marshaller is a paired decode/encode transform. Extract validates raw and
// returns the typed value. Pack is the inverse and never fails for values
// that Extract could have produced.
type Marshaller[T any] interface {
	Extract(raw interface{}) (T, error)
	Pack(value T) interface{}
}

// ExtractError is returned when a raw value does not satisfy a marshaller.
// Path locates the offending value inside nested objects and arrays.
type ExtractError struct {
	Path    string
	Message string
}

func NewExtractError(message string) *ExtractError {
	return &ExtractError{Message: message}
}

func (e *ExtractError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// atPath re-roots an extract error under segment. Other errors pass through.
func atPath(segment string, err error) error {
	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		return err
	}
	path := segment
	switch {
	case extractErr.Path == "":
	case strings.HasPrefix(extractErr.Path, "["):
		path += extractErr.Path
	default:
		path += "." + extractErr.Path
	}
	return &ExtractError{Path: path, Message: extractErr.Message}
}

// absentAware is implemented by marshallers that accept a missing value.
type absentAware interface {
	acceptsAbsent() bool
}

func acceptsAbsent(m interface{}) bool {
	aware, ok := m.(absentAware)
	return ok && aware.acceptsAbsent()
}
