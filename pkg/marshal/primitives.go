package marshal

import (
	"encoding/json"
	"math"
	"net/url"
	"time"

	"golang.org/x/text/language"
)

// Filter validates (and may only reject, never rewrite) a string.
type Filter func(s string) (string, error)

type stringMarshaller struct {
	filter Filter
}

// String accepts any JSON string.
func String() Marshaller[string] {
	return &stringMarshaller{}
}

// FilteredString accepts JSON strings that pass filter.
func FilteredString(filter Filter) Marshaller[string] {
	return &stringMarshaller{filter: filter}
}

func (m *stringMarshaller) Extract(raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", NewExtractError("Expected a string")
	}
	if m.filter == nil {
		return s, nil
	}
	return m.filter(s)
}

func (m *stringMarshaller) Pack(value string) interface{} {
	return value
}

// SecureWebUri accepts absolute https URIs with a host.
func SecureWebUri() Marshaller[string] {
	return FilteredString(func(s string) (string, error) {
		uri, err := url.Parse(s)
		if err != nil || uri.Scheme != "https" || uri.Host == "" {
			return "", NewExtractError("Expected a secure web URI")
		}
		return s, nil
	})
}

// LanguageTag accepts well-formed BCP 47 language tags.
func LanguageTag() Marshaller[string] {
	return FilteredString(func(s string) (string, error) {
		if _, err := language.Parse(s); err != nil {
			return "", NewExtractError("Expected a language tag")
		}
		return s, nil
	})
}

type idMarshaller struct{}

// Id accepts strictly positive integers.
func Id() Marshaller[int64] {
	return idMarshaller{}
}

func (idMarshaller) Extract(raw interface{}) (int64, error) {
	id, ok := toInt64(raw)
	if !ok {
		return 0, NewExtractError("Expected an integer")
	}
	if id <= 0 {
		return 0, NewExtractError("Expected a positive id")
	}
	return id, nil
}

func (idMarshaller) Pack(value int64) interface{} {
	return value
}

type boolMarshaller struct{}

func Bool() Marshaller[bool] {
	return boolMarshaller{}
}

func (boolMarshaller) Extract(raw interface{}) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, NewExtractError("Expected a boolean")
	}
	return b, nil
}

func (boolMarshaller) Pack(value bool) interface{} {
	return value
}

type timeMarshaller struct{}

// Time accepts RFC 3339 timestamps and packs them in UTC.
func Time() Marshaller[time.Time] {
	return timeMarshaller{}
}

func (timeMarshaller) Extract(raw interface{}) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, NewExtractError("Expected a string")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, NewExtractError("Expected an RFC 3339 timestamp")
	}
	return t, nil
}

func (timeMarshaller) Pack(value time.Time) interface{} {
	return value.UTC().Format(time.RFC3339Nano)
}

// Null is the only value of a slot that must be null on the wire.
type Null struct{}

type nullMarshaller struct{}

func NullValue() Marshaller[Null] {
	return nullMarshaller{}
}

func (nullMarshaller) Extract(raw interface{}) (Null, error) {
	if raw != nil {
		return Null{}, NewExtractError("Expected null")
	}
	return Null{}, nil
}

func (nullMarshaller) Pack(Null) interface{} {
	return nil
}

func (nullMarshaller) acceptsAbsent() bool {
	return true
}

func toInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
