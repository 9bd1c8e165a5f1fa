package maml

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	mamlerrors "github.com/mamlkit/go-maml/errors"
	"github.com/mamlkit/go-maml/internal/lexer"
	"github.com/mamlkit/go-maml/internal/parser"
	"github.com/mamlkit/go-maml/internal/report"
	"github.com/mamlkit/go-maml/value"
)

// defaultName is the source name used in reports when none is given.
const defaultName = "<input>"

// Marshaler is the interface implemented by types that
// can marshal themselves into valid MAML.
type Marshaler interface {
	MarshalMAML() ([]byte, error)
}

// Unmarshaler is the interface implemented by types that can unmarshal a
// MAML description of themselves. The input is the compact MAML text of a
// single value.
type Unmarshaler interface {
	UnmarshalMAML([]byte) error
}

// Parse parses a MAML document into a value tree.
//
// If the document is malformed, Parse returns a nil value and a
// *SyntaxError listing every problem found. Errors inside an array or object
// do not stop parsing of the values that follow it, so one call reports as
// many problems as possible.
func Parse(data []byte, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parse(defaultName, data, o)
}

// ParseWithDiagnostics parses data like Parse but writes a report of any
// errors to the diagnostic output instead of returning them. name is the
// source name shown in the report, typically a file name. The boolean
// result reports whether parsing succeeded.
func ParseWithDiagnostics(name string, data []byte, opts ...Option) (value.Value, bool) {
	o, err := newOptions(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, false
	}
	v, err := parse(name, data, o)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			_ = report.Render(o.diagnostics, name, data, slices.Clone(se.Errors))
		} else {
			fmt.Fprintln(o.diagnostics, err)
		}
		return nil, false
	}
	return v, true
}

// MustParse is like Parse but panics if the document cannot be parsed.
func MustParse(data []byte, opts ...Option) value.Value {
	v, err := Parse(data, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func parse(name string, data []byte, o *options) (value.Value, error) {
	toks, err := lexer.Tokenize(data)
	if err != nil {
		var pe mamlerrors.ParseError
		if !errors.As(err, &pe) {
			return nil, err
		}
		o.logger.Debug("maml: tokenizing failed", "name", name, "pos", pe.Pos, "reason", pe.Reason.String())
		return nil, newSyntaxError(name, data, mamlerrors.ParseErrors{pe})
	}

	p := parser.New(toks, o.parserOptions()...)
	v := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		o.logger.Debug("maml: parsing failed", "name", name, "errors", len(errs))
		return nil, newSyntaxError(name, data, errs)
	}
	return v, nil
}

func newSyntaxError(name string, data []byte, errs mamlerrors.ParseErrors) *SyntaxError {
	errs = slices.Clone(errs)
	report.Locate(data, errs)
	return &SyntaxError{Name: name, Source: data, Errors: errs}
}

// Marshal returns the MAML encoding of v.
//
// Structs become objects keyed by field name or by the name in the field's
// "maml" tag. Fields tagged "-" are skipped and fields tagged "omitempty"
// are left out when empty. Object keys are written in sorted order.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, opts...)
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the MAML-encoded data and stores the result
// in the value pointed to by v.
//
// If data is malformed, Unmarshal returns a *SyntaxError. Object keys are
// matched to struct fields by exact name first and then case-insensitively.
// Keys without a matching field are ignored.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	doc, err := parse(defaultName, data, o)
	if err != nil {
		return err
	}
	return decodeDocument(doc, v, o)
}
