package maml

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mamlkit/go-maml/internal/formatter"
	"github.com/mamlkit/go-maml/internal/parser"
)

// Option configures parsing, decoding, encoding and formatting. Options
// that do not apply to an operation are ignored by it.
type Option func(*options) error

type options struct {
	indent        *int
	inlineStrings bool
	maxDepth      int
	diagnostics   io.Writer
	logger        *slog.Logger
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		maxDepth:    parser.DefaultMaxDepth,
		diagnostics: os.Stderr,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) parserOptions() []parser.Option {
	return []parser.Option{parser.WithMaxDepth(o.maxDepth), parser.WithLogger(o.logger)}
}

func (o *options) formatterOptions() []formatter.Option {
	if o.inlineStrings {
		return []formatter.Option{formatter.WithInlineStrings()}
	}
	return nil
}

// Indent sets the number of spaces used for each indentation level when
// writing MAML. Zero produces compact single-line output. The default is 2.
func Indent(spaces int) Option {
	return func(o *options) error {
		if spaces < 0 {
			return fmt.Errorf("maml: indent spaces cannot be negative")
		}
		o.indent = &spaces
		return nil
	}
}

// InlineStrings writes multi-line strings as quoted strings with escaped
// newlines instead of raw """ strings.
func InlineStrings() Option {
	return func(o *options) error {
		o.inlineStrings = true
		return nil
	}
}

// MaxDepth sets how deeply arrays and objects may nest, both in parsed
// documents and in Go values being marshaled. This helps prevent stack
// overflows on hostile input.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("maml: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}

// DiagnosticOutput sets where ParseWithDiagnostics writes its reports.
// The default is os.Stderr.
func DiagnosticOutput(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			return fmt.Errorf("maml: diagnostic output cannot be nil")
		}
		o.diagnostics = w
		return nil
	}
}

// Logger sets the logger that receives debug events from the parser, such
// as recovered errors and overridden duplicate keys.
func Logger(l *slog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return fmt.Errorf("maml: logger cannot be nil")
		}
		o.logger = l
		return nil
	}
}
