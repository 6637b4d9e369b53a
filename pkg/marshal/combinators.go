package marshal

import "fmt"

type enumMarshaller[T ~int] struct {
	names  map[T]string
	byName map[string]T
}

// EnumOf accepts the declared variants, either as their integer value or as
// their name. Variants always pack to their integer value.
func EnumOf[T ~int](variants map[T]string) Marshaller[T] {
	byName := make(map[string]T, len(variants))
	for value, name := range variants {
		byName[name] = value
	}
	return &enumMarshaller[T]{names: variants, byName: byName}
}

func (m *enumMarshaller[T]) Extract(raw interface{}) (T, error) {
	if name, ok := raw.(string); ok {
		if value, found := m.byName[name]; found {
			return value, nil
		}
		return 0, NewExtractError("Invalid enum value")
	}
	n, ok := toInt64(raw)
	if !ok {
		return 0, NewExtractError("Invalid enum value")
	}
	value := T(n)
	if _, found := m.names[value]; !found || int64(value) != n {
		return 0, NewExtractError("Invalid enum value")
	}
	return value, nil
}

func (m *enumMarshaller[T]) Pack(value T) interface{} {
	return int(value)
}

// Optional is either a present value or absent.
type Optional[T any] struct {
	value   T
	present bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

func (o Optional[T]) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

type optionalMarshaller[T any] struct {
	inner Marshaller[T]
}

// OptionalOf maps null (or a missing object key) to None and defers
// everything else to inner.
func OptionalOf[T any](inner Marshaller[T]) Marshaller[Optional[T]] {
	return &optionalMarshaller[T]{inner: inner}
}

func (m *optionalMarshaller[T]) Extract(raw interface{}) (Optional[T], error) {
	if raw == nil {
		return None[T](), nil
	}
	value, err := m.inner.Extract(raw)
	if err != nil {
		return None[T](), err
	}
	return Some(value), nil
}

func (m *optionalMarshaller[T]) Pack(value Optional[T]) interface{} {
	if inner, ok := value.Get(); ok {
		return m.inner.Pack(inner)
	}
	return nil
}

func (m *optionalMarshaller[T]) acceptsAbsent() bool {
	return true
}

type arrayMarshaller[T any] struct {
	inner Marshaller[T]
}

// ArrayOf applies inner to every element, preserving order. Extraction stops
// at the first invalid element.
func ArrayOf[T any](inner Marshaller[T]) Marshaller[[]T] {
	return &arrayMarshaller[T]{inner: inner}
}

func (m *arrayMarshaller[T]) Extract(raw interface{}) ([]T, error) {
	elements, ok := raw.([]interface{})
	if !ok {
		return nil, NewExtractError("Expected an array")
	}
	values := make([]T, 0, len(elements))
	for i, element := range elements {
		value, err := m.inner.Extract(element)
		if err != nil {
			return nil, atPath(fmt.Sprintf("[%d]", i), err)
		}
		values = append(values, value)
	}
	return values, nil
}

func (m *arrayMarshaller[T]) Pack(values []T) interface{} {
	packed := make([]interface{}, len(values))
	for i, value := range values {
		packed[i] = m.inner.Pack(value)
	}
	return packed
}
