// Package value defines the tree produced by parsing a MAML document.
//
// A Value is one of Null, Bool, Int, Float, String, Array or Object. The set
// is closed: no other type implements Value.
package value

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go4.org/mem"

	"github.com/mamlkit/go-maml/internal/escape"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	ArrayKind
	ObjectKind
)

var kindNames = [...]string{
	NullKind:   "null",
	BoolKind:   "bool",
	IntKind:    "int",
	FloatKind:  "float",
	StringKind: "string",
	ArrayKind:  "array",
	ObjectKind: "object",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Value is a node of a parsed MAML document.
type Value interface {
	// Kind reports the variant of the value.
	Kind() Kind
	// String returns the compact MAML text of the value.
	String() string

	value()
}

// Null is the MAML null value.
type Null struct{}

// Bool is a MAML boolean.
type Bool bool

// Int is a MAML integer.
type Int int64

// Float is a MAML floating point number.
type Float float64

// String is a MAML string.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Object maps keys to values. Keys are unique; member order carries no
// meaning.
type Object map[string]Value

func (Null) Kind() Kind   { return NullKind }
func (Bool) Kind() Kind   { return BoolKind }
func (Int) Kind() Kind    { return IntKind }
func (Float) Kind() Kind  { return FloatKind }
func (String) Kind() Kind { return StringKind }
func (Array) Kind() Kind  { return ArrayKind }
func (Object) Kind() Kind { return ObjectKind }

func (Null) value()   {}
func (Bool) value()   {}
func (Int) value()    {}
func (Float) value()  {}
func (String) value() {}
func (Array) value()  {}
func (Object) value() {}

func (Null) String() string    { return "null" }
func (b Bool) String() string  { return strconv.FormatBool(bool(b)) }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string { return FormatFloat(float64(f)) }
func (s String) String() string {
	return `"` + string(escape.Quote(mem.S(string(s)))) + `"`
}

func (a Array) String() string {
	elems := make([]string, len(a))
	for i, el := range a {
		elems[i] = str(el)
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// String renders members sorted by key so the output is deterministic.
func (o Object) String() string {
	pairs := make([]string, 0, len(o))
	for _, k := range slices.Sorted(maps.Keys(o)) {
		pairs = append(pairs, String(k).String()+": "+str(o[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// str is String that tolerates nil elements.
func str(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// FormatFloat formats f so that it reads back as a float: the result always
// carries a fraction or an exponent.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") { // NaN and Inf included
		return s
	}
	return s + ".0"
}

// Equal reports whether a and b are structurally equal. Int and Float
// values are never equal to each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Array:
		b := b.(Array)
		return slices.EqualFunc(a, b, Equal)
	case Object:
		b := b.(Object)
		return maps.EqualFunc(a, b, Equal)
	default:
		return a == b
	}
}
