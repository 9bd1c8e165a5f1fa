package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

// tagged is the wire form used by MarshalTagged and UnmarshalTagged. Every
// node names its variant, so a string holding "42" can never be confused
// with the integer 42.
type tagged struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

type rawTagged struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalTagged returns the tagged JSON encoding of v.
func MarshalTagged(v Value) ([]byte, error) {
	t, err := toTagged(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

func toTagged(v Value) (tagged, error) {
	if v == nil {
		return tagged{Type: NullKind.String()}, nil
	}
	t := tagged{Type: v.Kind().String()}
	switch v := v.(type) {
	case Null:
	case Bool:
		t.Value = bool(v)
	case Int:
		t.Value = int64(v)
	case Float:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return tagged{}, fmt.Errorf("maml: unsupported float value %v", float64(v))
		}
		t.Value = float64(v)
	case String:
		t.Value = string(v)
	case Array:
		elems := make([]tagged, len(v))
		for i, el := range v {
			et, err := toTagged(el)
			if err != nil {
				return tagged{}, err
			}
			elems[i] = et
		}
		t.Value = elems
	case Object:
		members := make(map[string]tagged, len(v))
		for k, el := range v {
			et, err := toTagged(el)
			if err != nil {
				return tagged{}, err
			}
			members[k] = et
		}
		t.Value = members
	}
	return t, nil
}

// UnmarshalTagged decodes a document produced by MarshalTagged.
func UnmarshalTagged(data []byte) (Value, error) {
	var rt rawTagged
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("maml: invalid tagged value: %w", err)
	}
	return fromTagged(rt)
}

func fromTagged(rt rawTagged) (Value, error) {
	if rt.Type != NullKind.String() && len(rt.Value) == 0 {
		return nil, fmt.Errorf("maml: tagged %s value is missing its value", rt.Type)
	}
	switch rt.Type {
	case "null":
		return Null{}, nil
	case "bool":
		var b bool
		return decodeTagged(rt, &b, func() Value { return Bool(b) })
	case "int":
		var i int64
		return decodeTagged(rt, &i, func() Value { return Int(i) })
	case "float":
		var f float64
		return decodeTagged(rt, &f, func() Value { return Float(f) })
	case "string":
		var s string
		return decodeTagged(rt, &s, func() Value { return String(s) })
	case "array":
		var elems []rawTagged
		if err := json.Unmarshal(rt.Value, &elems); err != nil {
			return nil, fmt.Errorf("maml: invalid tagged array: %w", err)
		}
		arr := make(Array, len(elems))
		for i, el := range elems {
			v, err := fromTagged(el)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case "object":
		var members map[string]rawTagged
		if err := json.Unmarshal(rt.Value, &members); err != nil {
			return nil, fmt.Errorf("maml: invalid tagged object: %w", err)
		}
		obj := make(Object, len(members))
		for k, el := range members {
			v, err := fromTagged(el)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("maml: unknown tagged value type %q", rt.Type)
	}
}

func decodeTagged(rt rawTagged, dst any, build func() Value) (Value, error) {
	if err := json.Unmarshal(rt.Value, dst); err != nil {
		return nil, fmt.Errorf("maml: invalid tagged %s: %w", rt.Type, err)
	}
	return build(), nil
}

// ToJSON returns the conventional JSON encoding of v. Floats always carry a
// fraction or exponent and object members are sorted by key.
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool, Int:
		buf.WriteString(v.String())
	case Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("maml: unsupported float value %v", f)
		}
		buf.WriteString(FormatFloat(f))
	case String:
		return writeJSONString(buf, string(v))
	case Array:
		buf.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(v)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// Interface converts v to plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func Interface(v Value) any {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Array:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = Interface(el)
		}
		return out
	case Object:
		out := make(map[string]any, len(v))
		for k, el := range v {
			out[k] = Interface(el)
		}
		return out
	}
	return nil
}

// FromInterface is the inverse of Interface. It also accepts int and a
// Value, which is returned unchanged.
func FromInterface(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []any:
		arr := make(Array, len(x))
		for i, el := range x {
			v, err := FromInterface(el)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(x))
		for k, el := range x {
			v, err := FromInterface(el)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	}
	return nil, fmt.Errorf("maml: cannot convert %T to a value", x)
}
