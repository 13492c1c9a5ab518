package schema

// Value is a validated attribute value. Once a bag has passed validation every
// value is one of the three variants below, so downstream code (filtering,
// serialization) switches over a closed set instead of re-inspecting runtime
// types.
type Value interface {
	// Type returns the field type the value satisfies.
	Type() FieldType
	// Raw returns the underlying scalar, suitable for JSON storage.
	Raw() any
}

// StringValue holds a string attribute value.
type StringValue string

// NumberValue holds a numeric attribute value. Integers and floats are both
// carried as float64, matching what JSON decoding produces.
type NumberValue float64

// BoolValue holds a boolean attribute value.
type BoolValue bool

func (v StringValue) Type() FieldType { return TypeString }
func (v NumberValue) Type() FieldType { return TypeNumber }
func (v BoolValue) Type() FieldType   { return TypeBoolean }

func (v StringValue) Raw() any { return string(v) }
func (v NumberValue) Raw() any { return float64(v) }
func (v BoolValue) Raw() any   { return bool(v) }

// Bag is a validated attribute bag.
type Bag map[string]Value

// RawMap converts the bag back to the plain map shape it was submitted and is
// stored as. Validation never rewrites values, so this round-trips exactly.
func (b Bag) RawMap() map[string]any {
	if b == nil {
		return nil
	}
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = v.Raw()
	}
	return out
}

// valueOf wraps a decoded JSON scalar in its Value variant. The second return
// is false for slices, maps, nil and any other non-scalar.
func valueOf(raw any) (Value, bool) {
	switch v := raw.(type) {
	case string:
		return StringValue(v), true
	case bool:
		return BoolValue(v), true
	case float64:
		return NumberValue(v), true
	case float32:
		return NumberValue(v), true
	case int:
		return NumberValue(v), true
	case int32:
		return NumberValue(v), true
	case int64:
		return NumberValue(v), true
	}
	return nil, false
}
