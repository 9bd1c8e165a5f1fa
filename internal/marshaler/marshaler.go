// Package marshaler converts Go values into MAML value trees.
package marshaler

import (
	"bytes"
	"encoding"
	"fmt"
	"math"
	"reflect"

	"github.com/mamlkit/go-maml/internal/lexer"
	"github.com/mamlkit/go-maml/internal/mapper"
	"github.com/mamlkit/go-maml/internal/parser"
	"github.com/mamlkit/go-maml/value"
)

// Marshaler is implemented by types that render themselves as MAML text.
type Marshaler interface {
	MarshalMAML() ([]byte, error)
}

// CustomError reports a failing or invalid MarshalMAML method.
type CustomError struct {
	Type reflect.Type
	Err  error
}

func (e *CustomError) Error() string {
	return "maml: error calling MarshalMAML for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *CustomError) Unwrap() error { return e.Err }

var (
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	valueType         = reflect.TypeFor[value.Value]()
)

// Marshal converts v into a value tree. Containers nested deeper than
// maxDepth and reference cycles are reported as errors.
func Marshal(v any, maxDepth int) (value.Value, error) {
	m := &marshaler{
		maxDepth: maxDepth,
		seen:     make(map[any]struct{}),
	}
	return m.marshal(reflect.ValueOf(v))
}

type marshaler struct {
	depth    int
	maxDepth int

	// seen holds the pointers, maps and slices on the current path.
	seen map[any]struct{}
}

// isEmptyValue reports whether v is empty for the purpose of omitempty:
// false, 0, a nil pointer, a nil interface value, and any empty array,
// slice, map, or string.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func (m *marshaler) marshal(v reflect.Value) (value.Value, error) { //nolint:gocyclo
	if !v.IsValid() {
		return value.Null{}, nil
	}

	if v.Type().Implements(valueType) && v.CanInterface() {
		if v.Kind() == reflect.Interface && v.IsNil() {
			return value.Null{}, nil
		}
		return v.Interface().(value.Value), nil
	}

	// Custom marshalers may be declared on the value or on a pointer to it.
	if node, ok, err := m.marshalCustom(v); ok {
		return node, err
	}

	// Follow pointers and interfaces to find the concrete value.
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Kind() == reflect.Pointer {
			leave, err := m.enter(v)
			if err != nil {
				return nil, err
			}
			defer leave()
		}
		v = v.Elem()
		if v.Type().Implements(valueType) && v.CanInterface() {
			return v.Interface().(value.Value), nil
		}
		if node, ok, err := m.marshalCustom(v); ok {
			return node, err
		}
	}

	switch v.Kind() {
	case reflect.String:
		return value.String(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("maml: cannot marshal %s %d into MAML (overflows int64)", v.Type(), u)
		}
		return value.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(v.Float()), nil
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.Slice:
		if v.IsNil() {
			return value.Null{}, nil
		}
		leave, err := m.enter(v)
		if err != nil {
			return nil, err
		}
		defer leave()
		return m.marshalArray(v)
	case reflect.Array:
		return m.marshalArray(v)
	case reflect.Map:
		if v.IsNil() {
			return value.Null{}, nil
		}
		leave, err := m.enter(v)
		if err != nil {
			return nil, err
		}
		defer leave()
		return m.marshalMap(v)
	case reflect.Struct:
		return m.marshalStruct(v)
	}
	return nil, fmt.Errorf("maml: unsupported type for marshaling: %s", v.Type())
}

// enter records that v, a pointer, map or slice, is on the current path.
func (m *marshaler) enter(v reflect.Value) (func(), error) {
	var key any
	switch v.Kind() {
	case reflect.Slice:
		// A slice is identified by its backing array and length.
		key = struct {
			ptr uintptr
			len int
		}{v.Pointer(), v.Len()}
	default:
		key = v.Pointer()
	}
	if _, ok := m.seen[key]; ok {
		return nil, fmt.Errorf("maml: encountered a cycle via %s", v.Type())
	}
	m.seen[key] = struct{}{}
	return func() { delete(m.seen, key) }, nil
}

func (m *marshaler) descend() (func(), error) {
	m.depth++
	if m.depth > m.maxDepth {
		m.depth--
		return nil, fmt.Errorf("maml: reached max recursion depth of %d", m.maxDepth)
	}
	return func() { m.depth-- }, nil
}

// marshalCustom applies a Marshaler or encoding.TextMarshaler implemented
// by v or by a pointer to it. ok reports whether one was found.
func (m *marshaler) marshalCustom(v reflect.Value) (node value.Value, ok bool, err error) {
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}
	target := v
	if v.Kind() != reflect.Pointer && !v.Type().Implements(marshalerType) && !v.Type().Implements(textMarshalerType) {
		pt := reflect.PointerTo(v.Type())
		if !pt.Implements(marshalerType) && !pt.Implements(textMarshalerType) {
			return nil, false, nil
		}
		if v.CanAddr() {
			target = v.Addr()
		} else {
			// Non-addressable values are copied so pointer methods can run.
			target = reflect.New(v.Type())
			target.Elem().Set(v)
		}
	}
	if !target.CanInterface() {
		return nil, false, nil
	}

	switch u := target.Interface().(type) {
	case Marshaler:
		node, err := parseCustom(target.Type(), u)
		return node, true, err
	case encoding.TextMarshaler:
		text, err := u.MarshalText()
		if err != nil {
			return nil, true, &CustomError{Type: target.Type(), Err: err}
		}
		return value.String(text), true, nil
	}
	return nil, false, nil
}

// parseCustom runs a MarshalMAML method and parses its output back into a
// value so it can be placed into the tree being built.
func parseCustom(t reflect.Type, u Marshaler) (value.Value, error) {
	b, err := u.MarshalMAML()
	if err != nil {
		return nil, &CustomError{Type: t, Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		// Empty output stands for null.
		return value.Null{}, nil
	}

	toks, err := lexer.Tokenize(b)
	if err != nil {
		return nil, &CustomError{Type: t, Err: fmt.Errorf("invalid MAML output: %w", err)}
	}
	p := parser.New(toks)
	node := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &CustomError{Type: t, Err: fmt.Errorf("invalid MAML output: %w", errs)}
	}
	return node, nil
}

func (m *marshaler) marshalArray(v reflect.Value) (value.Value, error) {
	leave, err := m.descend()
	if err != nil {
		return nil, err
	}
	defer leave()

	arr := make(value.Array, v.Len())
	for i := range v.Len() {
		el, err := m.marshal(v.Index(i))
		if err != nil {
			return nil, err
		}
		arr[i] = el
	}
	return arr, nil
}

func (m *marshaler) marshalMap(v reflect.Value) (value.Value, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("maml: map key type must be a string, got %s", v.Type().Key())
	}
	leave, err := m.descend()
	if err != nil {
		return nil, err
	}
	defer leave()

	obj := make(value.Object, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		el, err := m.marshal(iter.Value())
		if err != nil {
			return nil, err
		}
		obj[iter.Key().String()] = el
	}
	return obj, nil
}

func (m *marshaler) marshalStruct(v reflect.Value) (value.Value, error) {
	leave, err := m.descend()
	if err != nil {
		return nil, err
	}
	defer leave()

	fields := mapper.CachedFields(v.Type())
	obj := make(value.Object, len(fields.List))
	for i := range fields.List {
		f := &fields.List[i]
		fv, ok := f.Get(v)
		if !ok {
			continue
		}
		if f.OmitEmpty && isEmptyValue(fv) {
			continue
		}
		el, err := m.marshal(fv)
		if err != nil {
			return nil, err
		}
		obj[f.Name] = el
	}
	return obj, nil
}
