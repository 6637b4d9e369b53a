package marshal

// Field binds one JSON key of an object to a location inside T.
type Field[T any] struct {
	name     string
	optional bool
	extract  func(raw interface{}, target *T) error
	pack     func(source *T) interface{}
}

func (f Field[T]) Name() string {
	return f.name
}

// FieldOf declares that key name holds a value governed by m and stored at
// the location returned by at.
func FieldOf[T, F any](name string, m Marshaller[F], at func(*T) *F) Field[T] {
	return Field[T]{
		name:     name,
		optional: acceptsAbsent(m),
		extract: func(raw interface{}, target *T) error {
			value, err := m.Extract(raw)
			if err != nil {
				return err
			}
			*at(target) = value
			return nil
		},
		pack: func(source *T) interface{} {
			return m.Pack(*at(source))
		},
	}
}

// Lift re-targets the fields of an embedded record E onto its container T.
func Lift[T, E any](at func(*T) *E, fields ...Field[E]) []Field[T] {
	lifted := make([]Field[T], 0, len(fields))
	for _, field := range fields {
		field := field
		lifted = append(lifted, Field[T]{
			name:     field.name,
			optional: field.optional,
			extract: func(raw interface{}, target *T) error {
				return field.extract(raw, at(target))
			},
			pack: func(source *T) interface{} {
				return field.pack(at(source))
			},
		})
	}
	return lifted
}

// Object is the marshaller of a record described by an ordered field schema.
type Object[T any] struct {
	fields []Field[T]
}

// MarshalFrom builds the marshaller for a record from its schema.
func MarshalFrom[T any](fields ...Field[T]) *Object[T] {
	return &Object[T]{fields: fields}
}

// Fields exposes the schema so that containing records can Lift it.
func (o *Object[T]) Fields() []Field[T] {
	fields := make([]Field[T], len(o.fields))
	copy(fields, o.fields)
	return fields
}

func (o *Object[T]) Extract(raw interface{}) (T, error) {
	var value T
	object, ok := raw.(map[string]interface{})
	if !ok {
		return value, NewExtractError("Expected an object")
	}
	for _, field := range o.fields {
		fieldRaw, found := object[field.name]
		if !found && !field.optional {
			return value, &ExtractError{Path: field.name, Message: "Missing field"}
		}
		if err := field.extract(fieldRaw, &value); err != nil {
			return value, atPath(field.name, err)
		}
	}
	return value, nil
}

func (o *Object[T]) Pack(value T) interface{} {
	packed := make(map[string]interface{}, len(o.fields))
	for _, field := range o.fields {
		packed[field.name] = field.pack(&value)
	}
	return packed
}
