package authkit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ValueKind identifies the shape held by a property Value.
type ValueKind string

const (
	ValueKindString ValueKind = "string"
	ValueKindNumber ValueKind = "number"
	ValueKindBool   ValueKind = "bool"
	ValueKindList   ValueKind = "list"
	ValueKindMap    ValueKind = "map"
)

// Value is the payload of a property entry: a tagged union over a small
// fixed set of serializable shapes rather than an open "any" type, so
// equality and storage round-tripping are well-defined.
//
// The canonical serialization is the natural JSON form: strings, numbers,
// booleans, arrays, and objects with sorted keys. Numbers are carried as
// float64, matching what JSON can represent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	obj  map[string]Value
}

// StringValue creates a string Value.
func StringValue(s string) Value {
	return Value{kind: ValueKindString, str: s}
}

// NumberValue creates a numeric Value.
func NumberValue(n float64) Value {
	return Value{kind: ValueKindNumber, num: n}
}

// BoolValue creates a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: ValueKindBool, b: b}
}

// ListValue creates an ordered list Value.
func ListValue(items ...Value) Value {
	return Value{kind: ValueKindList, list: items}
}

// MapValue creates a string-keyed map Value.
func MapValue(entries map[string]Value) Value {
	return Value{kind: ValueKindMap, obj: entries}
}

// Kind returns the shape of the value. The zero Value has an empty kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsZero reports whether the value is the uninitialized zero Value.
func (v Value) IsZero() bool {
	return v.kind == ""
}

// AsString returns the string payload and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == ValueKindString
}

// AsNumber returns the numeric payload and whether the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == ValueKindNumber
}

// AsBool returns the boolean payload and whether the value is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == ValueKindBool
}

// AsList returns the list payload and whether the value is a list.
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == ValueKindList
}

// AsMap returns the map payload and whether the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	return v.obj, v.kind == ValueKindMap
}

// Equal reports deep equality between two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueKindString:
		return v.str == o.str
	case ValueKindNumber:
		return v.num == o.num
	case ValueKindBool:
		return v.b == o.b
	case ValueKindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case ValueKindMap:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, vv := range v.obj {
			ov, ok := o.obj[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	// Two zero values are equal.
	return true
}

// MarshalJSON emits the canonical JSON form. encoding/json sorts object
// keys, which keeps the map serialization canonical.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueKindString:
		return json.Marshal(v.str)
	case ValueKindNumber:
		return json.Marshal(v.num)
	case ValueKindBool:
		return json.Marshal(v.b)
	case ValueKindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case ValueKindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, NewError(ErrValidation, "cannot serialize zero property value")
}

// UnmarshalJSON infers the kind from the JSON shape. JSON null is rejected:
// absence of a property is expressed by deleting it, not by a null payload.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewError(ErrValidation, "malformed property value").WithCause(err)
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			parsed, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, parsed)
		}
		return ListValue(items...), nil
	case map[string]any:
		entries := make(map[string]Value, len(t))
		for k, item := range t {
			parsed, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			entries[k] = parsed
		}
		return MapValue(entries), nil
	case nil:
		return Value{}, NewError(ErrValidation, "null is not a valid property value")
	}
	return Value{}, NewError(ErrValidation, fmt.Sprintf("unsupported property value type %T", raw))
}

// Value implements driver.Valuer so a Value can be stored in a jsonb column.
func (v Value) Value() (driver.Value, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Scan implements sql.Scanner for reading a jsonb column back.
func (v *Value) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*v = Value{}
		return nil
	case []byte:
		return v.UnmarshalJSON(t)
	case string:
		return v.UnmarshalJSON([]byte(t))
	}
	return NewError(ErrStorage, fmt.Sprintf("cannot scan %T into property value", src))
}
