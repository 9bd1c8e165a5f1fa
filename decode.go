package maml

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"reflect"
	"slices"

	"github.com/mamlkit/go-maml/internal/formatter"
	"github.com/mamlkit/go-maml/internal/mapper"
	"github.com/mamlkit/go-maml/value"
)

// Decoder reads and decodes MAML values from an input stream.
type Decoder struct {
	r    io.Reader
	name string
	opts []Option
}

// NewDecoder returns a new decoder that reads from r.
//
// The decoder may buffer data from r as necessary. It is the caller's
// responsibility to call Close on r if required.
//
// Functional options can be provided to configure the decoding process,
// such as setting a maximum nesting depth with the MaxDepth option.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, name: defaultName, opts: opts}
}

// SetName sets the source name used in syntax error reports.
func (d *Decoder) SetName(name string) {
	d.name = name
}

// Decode reads the next MAML-encoded value from its input and stores it in
// the value pointed to by v. If v is nil or not a pointer, Decode returns
// an error.
//
// See the documentation for Unmarshal for details about the conversion of MAML
// into a Go value.
//
// If the input contains syntax errors, Decode returns a *SyntaxError.
//
// Note: This is a non-streaming implementation. It reads the entire
// reader into memory first before parsing.
func (d *Decoder) Decode(out any) error {
	if d.r == nil {
		return fmt.Errorf("maml: Decode(nil reader)")
	}
	o, err := newOptions(d.opts)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	doc, err := parse(d.name, data, o)
	if err != nil {
		return err
	}
	return decodeDocument(doc, out, o)
}

var (
	valueType           = reflect.TypeFor[value.Value]()
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// decodeDocument maps a parsed document onto the Go value v points to.
func decodeDocument(doc value.Value, v any, o *options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("maml: Unmarshal(non-pointer %T or nil)", v)
	}
	ds := &decodeState{logger: o.logger}
	return ds.mapValue(doc, rv.Elem())
}

type decodeState struct {
	logger *slog.Logger
}

// noun names the variant of v the way error messages refer to it.
func noun(v value.Value) string {
	switch v.(type) {
	case value.Null:
		return "null"
	case value.Bool:
		return "boolean"
	case value.Int:
		return "integer"
	case value.Float:
		return "float"
	case value.String:
		return "string"
	case value.Array:
		return "array"
	case value.Object:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func mismatch(v value.Value, rv reflect.Value) error {
	return fmt.Errorf("maml: cannot unmarshal %s into Go value of type %s", noun(v), rv.Type())
}

func (ds *decodeState) mapValue(v value.Value, rv reflect.Value) error { //nolint:gocyclo
	if v == nil {
		v = value.Null{}
	}

	// Value trees are stored as they are.
	if rv.Type().Implements(valueType) && reflect.TypeOf(v).AssignableTo(rv.Type()) {
		if !rv.CanSet() {
			return fmt.Errorf("maml: cannot set value of type %s", rv.Type())
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	if _, isNull := v.(value.Null); isNull {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	// Attempt to use a custom unmarshaler if available.
	handled, err := ds.tryCustomUnmarshal(v, rv)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
		if rv.Type() == valueType {
			return ds.mapValue(v, rv)
		}
		if handled, err := ds.tryCustomUnmarshal(v, rv); handled || err != nil {
			return err
		}
	}

	if rv.Kind() == reflect.Interface {
		return ds.mapInterface(v, rv)
	}
	if !rv.CanSet() {
		return fmt.Errorf("maml: cannot set value of type %s", rv.Type())
	}

	switch node := v.(type) {
	case value.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case value.String:
		if rv.Kind() != reflect.String {
			return mismatch(v, rv)
		}
		rv.SetString(string(node))
		return nil
	case value.Int:
		return mapInt(node, rv)
	case value.Float:
		return mapFloat(node, rv)
	case value.Bool:
		if rv.Kind() != reflect.Bool {
			return mismatch(v, rv)
		}
		rv.SetBool(bool(node))
		return nil
	case value.Array:
		switch rv.Kind() {
		case reflect.Slice:
			return ds.mapSlice(node, rv)
		case reflect.Array:
			return ds.mapArray(node, rv)
		default:
			return mismatch(v, rv)
		}
	case value.Object:
		switch rv.Kind() {
		case reflect.Struct:
			return ds.mapStruct(node, rv)
		case reflect.Map:
			return ds.mapMap(node, rv)
		default:
			return mismatch(v, rv)
		}
	default:
		return fmt.Errorf("maml: cannot unmarshal %T", node)
	}
}

// tryCustomUnmarshal attempts to use a custom unmarshaler (maml.Unmarshaler or
// encoding.TextUnmarshaler) on the given reflect.Value. It returns true if a
// custom unmarshaler was found and used, in which case the caller should not
// proceed with default unmarshaling.
func (ds *decodeState) tryCustomUnmarshal(v value.Value, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if pv.Type().Implements(unmarshalerType) {
		var buf bytes.Buffer
		compact := 0
		if err := formatter.New(&buf, &compact).Format(v); err != nil {
			return true, fmt.Errorf("maml: failed to re-marshal value for custom unmarshaler: %w", err)
		}
		if err := pv.Interface().(Unmarshaler).UnmarshalMAML(buf.Bytes()); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if pv.Type().Implements(textUnmarshalerType) {
		s, isString := v.(value.String)
		if !isString {
			// TextUnmarshaler can only be used on string values.
			return false, nil
		}
		if err := pv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func mapInt(i value.Int, rv reflect.Value) error {
	n := int64(i)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.OverflowInt(n) {
			return fmt.Errorf("maml: integer value %d overflows Go value of type %s", n, rv.Type())
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("maml: integer value %d overflows Go value of type %s", n, rv.Type())
		}
		rv.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(float64(n))
		return nil
	default:
		return mismatch(i, rv)
	}
}

func mapFloat(f value.Float, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if rv.OverflowFloat(float64(f)) {
			return fmt.Errorf("maml: float value %f overflows Go value of type %s", float64(f), rv.Type())
		}
		rv.SetFloat(float64(f))
		return nil
	default:
		return mismatch(f, rv)
	}
}

func (ds *decodeState) mapSlice(a value.Array, rv reflect.Value) error {
	newSlice := reflect.MakeSlice(rv.Type(), len(a), len(a))
	for i, el := range a {
		if err := ds.mapValue(el, newSlice.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(newSlice)
	return nil
}

func (ds *decodeState) mapArray(a value.Array, rv reflect.Value) error {
	if rv.Len() != len(a) {
		return fmt.Errorf("maml: cannot unmarshal array of length %d into Go array of length %d", len(a), rv.Len())
	}
	for i, el := range a {
		if err := ds.mapValue(el, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapMap(obj value.Object, rv reflect.Value) error {
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("maml: cannot unmarshal object into map with non-string key type %s", mapType.Key())
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(mapType, len(obj)))
	} else {
		rv.Clear()
	}
	elemType := mapType.Elem()
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		newVal := reflect.New(elemType).Elem()
		if err := ds.mapValue(obj[k], newVal); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(k).Convert(mapType.Key()), newVal)
	}
	return nil
}

func (ds *decodeState) mapStruct(obj value.Object, rv reflect.Value) error {
	fields := mapper.CachedFields(rv.Type())
	// Sorted keys make the outcome independent of map order when several
	// keys fold onto the same field.
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		f, ok := fields.Lookup(k)
		if !ok {
			ds.logger.Debug("maml: ignoring unknown key", "key", k, "type", rv.Type().String())
			continue
		}
		fieldVal, err := f.Settable(rv)
		if err != nil {
			return err
		}
		if !fieldVal.CanSet() {
			continue
		}
		if err := ds.mapValue(obj[k], fieldVal); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapInterface(v value.Value, rv reflect.Value) error {
	if rv.NumMethod() != 0 {
		return fmt.Errorf("maml: cannot unmarshal into non-empty interface %s", rv.Type())
	}
	x := value.Interface(v)
	if x == nil {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	rv.Set(reflect.ValueOf(x))
	return nil
}
