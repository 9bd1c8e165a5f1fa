// Command maml parses a MAML document, reports any errors against the
// source, and prints the document as MAML, JSON, tagged JSON or YAML.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/mamlkit/go-maml"
	"github.com/mamlkit/go-maml/value"
)

// cli defines the command-line interface.
type cli struct {
	File     string `arg:"" optional:"" default:"-" help:"MAML file to read, or - for standard input."`
	Output   string `short:"o" enum:"maml,json,tagged,yaml" default:"maml" help:"Output format (${enum})."`
	Indent   int    `short:"i" default:"2" help:"Spaces per indentation level for MAML and YAML output. 0 writes compact MAML and JSON."`
	MaxDepth int    `name:"max-depth" default:"1000" help:"Maximum nesting depth of arrays and objects."`
	Check    bool   `short:"c" help:"Only check the document; print nothing on success."`
	Debug    bool   `short:"d" help:"Enable debug logging."`
}

// Validate is called by kong after flags are parsed.
func (c *cli) Validate() error {
	if c.Indent < 0 {
		return errors.New("--indent cannot be negative")
	}
	if c.MaxDepth <= 0 {
		return errors.New("--max-depth must be a positive integer")
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command with the given arguments and streams and
// returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var c cli
	exitCode := -1
	parser, err := kong.New(&c,
		kong.Name("maml"),
		kong.Description("Parse a MAML document and print it in the chosen format."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "maml: %v\n", err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		parser.FatalIfErrorf(err)
		return 1
	}
	if exitCode >= 0 {
		// --help was handled by kong.
		return exitCode
	}

	logger := slog.New(slog.DiscardHandler)
	if c.Debug {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	name, data, err := readInput(c.File, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "maml: %v\n", err)
		return 1
	}
	logger.Debug("read input", "name", name, "bytes", len(data))

	v, ok := maml.ParseWithDiagnostics(name, data,
		maml.MaxDepth(c.MaxDepth),
		maml.DiagnosticOutput(stderr),
		maml.Logger(logger),
	)
	if !ok {
		return 1
	}
	if c.Check {
		return 0
	}

	out, err := render(v, c.Output, c.Indent)
	if err != nil {
		fmt.Fprintf(stderr, "maml: %v\n", err)
		return 1
	}
	out = append(bytes.TrimRight(out, "\n"), '\n')
	if _, err := stdout.Write(out); err != nil {
		fmt.Fprintf(stderr, "maml: %v\n", errors.Wrap(err, "writing output"))
		return 1
	}
	return 0
}

func readInput(file string, stdin io.Reader) (name string, data []byte, err error) {
	if file == "-" {
		data, err = io.ReadAll(stdin)
		return "<stdin>", data, errors.Wrap(err, "reading standard input")
	}
	data, err = os.ReadFile(file)
	return file, data, errors.Wrapf(err, "reading %s", file)
}

// render converts v to the named output format.
func render(v value.Value, format string, indent int) ([]byte, error) {
	switch format {
	case "json":
		b, err := value.ToJSON(v)
		if err != nil {
			return nil, errors.Wrap(err, "encoding JSON")
		}
		return prettyJSON(b, indent)
	case "tagged":
		b, err := value.MarshalTagged(v)
		if err != nil {
			return nil, errors.Wrap(err, "encoding tagged JSON")
		}
		return prettyJSON(b, indent)
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(max(indent, 2))
		if err := enc.Encode(value.Interface(v)); err != nil {
			return nil, errors.Wrap(err, "encoding YAML")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "encoding YAML")
		}
		return buf.Bytes(), nil
	default:
		return maml.FormatValue(v, maml.Indent(indent))
	}
}

// prettyJSON lays out compact JSON one member per line unless indent is 0.
func prettyJSON(b []byte, indent int) ([]byte, error) {
	if indent == 0 {
		return b, nil
	}
	jv, err := hujson.Parse(b)
	if err != nil {
		return nil, errors.Wrap(err, "formatting JSON")
	}
	jv.Format()
	return jv.Pack(), nil
}
