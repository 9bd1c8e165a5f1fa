package maml

import (
	"errors"
	"io"

	"github.com/mamlkit/go-maml/internal/formatter"
	"github.com/mamlkit/go-maml/internal/marshaler"
)

// Encoder writes MAML values to an output stream.
type Encoder struct {
	w    io.Writer
	opts []Option
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the MAML encoding of v to the stream.
func (e *Encoder) Encode(v any) error {
	o, err := newOptions(e.opts)
	if err != nil {
		return err
	}

	node, err := marshaler.Marshal(v, o.maxDepth)
	if err != nil {
		var ce *marshaler.CustomError
		if errors.As(err, &ce) {
			return &MarshalerError{Type: ce.Type, Err: ce.Err}
		}
		return err
	}

	o.logger.Debug("maml: encoding value", "kind", node.Kind().String())
	return formatter.New(e.w, o.indent, o.formatterOptions()...).Format(node)
}
