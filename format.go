package maml

import (
	"bytes"

	"github.com/mamlkit/go-maml/internal/formatter"
	"github.com/mamlkit/go-maml/value"
)

// FormatValue returns the MAML text of a value tree. Object members are
// written in key order, so equal trees always format identically. Parsing
// the result yields a tree equal to v.
func FormatValue(v value.Value, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := formatter.New(&buf, o.indent, o.formatterOptions()...).Format(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format parses a MAML document and writes it back in canonical form.
// Comments are not preserved.
func Format(src []byte, opts ...Option) ([]byte, error) {
	v, err := Parse(src, opts...)
	if err != nil {
		return nil, err
	}
	return FormatValue(v, opts...)
}
