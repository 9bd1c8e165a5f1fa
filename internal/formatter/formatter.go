// Package formatter writes value trees as MAML text.
package formatter

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mamlkit/go-maml/internal/lexer"
	"github.com/mamlkit/go-maml/value"
)

const (
	// DefaultIndent is the number of spaces per level used when New is
	// given no indentation.
	DefaultIndent = 2

	tripleQuote = `"""`
)

// Option configures a Formatter.
type Option func(*Formatter)

// WithInlineStrings keeps multi-line strings as quoted strings with escaped
// newlines instead of raw strings.
func WithInlineStrings() Option {
	return func(f *Formatter) { f.inlineStrings = true }
}

// Formatter writes a value tree to an output stream.
//
// With a positive indentation, containers are written one member per line
// and strings containing newlines become raw strings where possible. With
// zero indentation the output is compact and fits on a single line. Object
// members are always written in key order.
type Formatter struct {
	w             io.Writer
	indent        string
	depth         int
	inlineStrings bool
}

// New returns a new formatter that writes to w. indentSpaces selects the
// indentation; nil means DefaultIndent.
func New(w io.Writer, indentSpaces *int, opts ...Option) *Formatter {
	spaces := DefaultIndent
	if indentSpaces != nil {
		spaces = *indentSpaces
	}
	f := &Formatter{w: w}
	if spaces > 0 {
		f.indent = strings.Repeat(" ", spaces)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format writes the MAML representation of v.
func (f *Formatter) Format(v value.Value) error {
	return f.writeValue(v)
}

func (f *Formatter) write(s string) error {
	_, err := io.WriteString(f.w, s)
	return err
}

func (f *Formatter) writeIndent() error {
	if f.indent == "" {
		return nil
	}
	return f.write(strings.Repeat(f.indent, f.depth))
}

func (f *Formatter) writeValue(v value.Value) error {
	switch v := v.(type) {
	case nil, value.Null:
		return f.write("null")
	case value.Bool, value.Int:
		return f.write(v.String())
	case value.Float:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return fmt.Errorf("maml: unsupported float value %v", float64(v))
		}
		return f.write(value.FormatFloat(float64(v)))
	case value.String:
		return f.writeString(string(v))
	case value.Array:
		return f.writeArray(v)
	case value.Object:
		return f.writeObject(v)
	default:
		return fmt.Errorf("maml: unsupported value type for formatting: %T", v)
	}
}

func (f *Formatter) writeString(s string) error {
	if f.inlineStrings || f.indent == "" || !rawSafe(s) {
		return f.write(quote(s))
	}
	return f.write(tripleQuote + "\n" + s + tripleQuote)
}

// rawSafe reports whether s reads back unchanged from a raw string that
// starts with a newline: it must span lines, hold no closing delimiter and
// not end in a quote that would merge with it.
func rawSafe(s string) bool {
	return strings.ContainsRune(s, '\n') &&
		!strings.Contains(s, tripleQuote) &&
		!strings.HasSuffix(s, `"`) &&
		utf8.ValidString(s)
}

func quote(s string) string {
	return value.String(s).String()
}

func formatKey(k string) string {
	if lexer.IsBareKey(k) {
		return k
	}
	return quote(k)
}

func (f *Formatter) writeArray(arr value.Array) error {
	if err := f.write("["); err != nil {
		return err
	}
	if len(arr) > 0 {
		if f.indent != "" {
			if err := f.writePrettyArray(arr); err != nil {
				return err
			}
		} else if err := f.writeCompactArray(arr); err != nil {
			return err
		}
	}
	return f.write("]")
}

func (f *Formatter) writePrettyArray(arr value.Array) error {
	f.depth++
	for _, el := range arr {
		if err := f.write("\n"); err != nil {
			return err
		}
		if err := f.writeIndent(); err != nil {
			return err
		}
		if err := f.writeValue(el); err != nil {
			return err
		}
	}
	f.depth--
	if err := f.write("\n"); err != nil {
		return err
	}
	return f.writeIndent()
}

func (f *Formatter) writeCompactArray(arr value.Array) error {
	for i, el := range arr {
		if i > 0 {
			if err := f.write(","); err != nil {
				return err
			}
		}
		if err := f.writeValue(el); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) writeObject(obj value.Object) error {
	if err := f.write("{"); err != nil {
		return err
	}
	if len(obj) > 0 {
		keys := slices.Sorted(maps.Keys(obj))
		if f.indent != "" {
			if err := f.writePrettyObject(obj, keys); err != nil {
				return err
			}
		} else if err := f.writeCompactObject(obj, keys); err != nil {
			return err
		}
	}
	return f.write("}")
}

func (f *Formatter) writePrettyObject(obj value.Object, keys []string) error {
	f.depth++
	for _, k := range keys {
		if err := f.write("\n"); err != nil {
			return err
		}
		if err := f.writeIndent(); err != nil {
			return err
		}
		if err := f.write(formatKey(k) + ": "); err != nil {
			return err
		}
		if err := f.writeValue(obj[k]); err != nil {
			return err
		}
	}
	f.depth--
	if err := f.write("\n"); err != nil {
		return err
	}
	return f.writeIndent()
}

func (f *Formatter) writeCompactObject(obj value.Object, keys []string) error {
	for i, k := range keys {
		if i > 0 {
			if err := f.write(","); err != nil {
				return err
			}
		}
		if err := f.write(formatKey(k) + ":"); err != nil {
			return err
		}
		if err := f.writeValue(obj[k]); err != nil {
			return err
		}
	}
	return nil
}
