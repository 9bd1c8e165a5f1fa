package formatter_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mamlkit/go-maml/internal/formatter"
	"github.com/mamlkit/go-maml/value"
	"github.com/stretchr/testify/require"
)

// Centralized test cases to be used across different format settings.
var testCases = []struct {
	name             string
	node             value.Value
	expectedCompact  string
	expectedIndented string // 2 spaces
}{
	{
		name:             "String",
		node:             value.String("hello world"),
		expectedCompact:  `"hello world"`,
		expectedIndented: `"hello world"`,
	},
	{
		name:             "Integer",
		node:             value.Int(-123),
		expectedCompact:  "-123",
		expectedIndented: "-123",
	},
	{
		name:             "Whole float",
		node:             value.Float(2),
		expectedCompact:  "2.0",
		expectedIndented: "2.0",
	},
	{
		name:             "Null",
		node:             nil,
		expectedCompact:  "null",
		expectedIndented: "null",
	},
	{
		name:             "Empty Array",
		node:             value.Array{},
		expectedCompact:  "[]",
		expectedIndented: "[]",
	},
	{
		name:             "Array with scalars",
		node:             value.Array{value.Int(1), value.String("two"), value.Bool(false)},
		expectedCompact:  `[1,"two",false]`,
		expectedIndented: "[\n  1\n  \"two\"\n  false\n]",
	},
	{
		name:             "Empty Object",
		node:             value.Object{},
		expectedCompact:  "{}",
		expectedIndented: "{}",
	},
	{
		name: "Object keys are sorted and quoted when needed",
		node: value.Object{
			"key2":   value.Int(123),
			"key1":   value.String("value1"),
			"a b":    value.Null{},
			"true":   value.Bool(true),
			"42":     value.Int(42),
			"-1":     value.Int(-1),
			"_x-y":   value.Float(0.5),
			"":       value.String(""),
			"café":   value.Int(1),
		},
		expectedCompact: `{"":"","-1":-1,42:42,_x-y:0.5,"a b":null,"café":1,key1:"value1",key2:123,"true":true}`,
		expectedIndented: "{\n" +
			"  \"\": \"\"\n" +
			"  \"-1\": -1\n" +
			"  42: 42\n" +
			"  _x-y: 0.5\n" +
			"  \"a b\": null\n" +
			"  \"café\": 1\n" +
			"  key1: \"value1\"\n" +
			"  key2: 123\n" +
			"  \"true\": true\n" +
			"}",
	},
	{
		name: "Nested Object and Array",
		node: value.Object{
			"data": value.Array{
				value.Object{"id": value.Int(1), "status": value.String("ok")},
				value.Int(2),
			},
		},
		expectedCompact:  `{data:[{id:1,status:"ok"},2]}`,
		expectedIndented: "{\n  data: [\n    {\n      id: 1\n      status: \"ok\"\n    }\n    2\n  ]\n}",
	},
}

func TestFormatter_Indentation(t *testing.T) {
	t.Run("Default Indent (2 spaces)", func(t *testing.T) {
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				var buf bytes.Buffer
				f := formatter.New(&buf, nil)
				err := f.Format(tc.node)
				require.NoError(t, err)
				require.Equal(t, tc.expectedIndented, buf.String())
			})
		}
	})

	t.Run("Compact Output (indent 0)", func(t *testing.T) {
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				var buf bytes.Buffer
				zero := 0
				f := formatter.New(&buf, &zero)
				err := f.Format(tc.node)
				require.NoError(t, err)
				require.Equal(t, tc.expectedCompact, buf.String())
			})
		}
	})

	t.Run("Custom Indent (4 spaces)", func(t *testing.T) {
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				var buf bytes.Buffer
				four := 4
				f := formatter.New(&buf, &four)
				expected := strings.ReplaceAll(tc.expectedIndented, "  ", "    ")
				err := f.Format(tc.node)
				require.NoError(t, err)
				require.Equal(t, expected, buf.String())
			})
		}
	})
}

func TestFormatter_Strings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		inline   bool
		expected string
	}{
		{"multi-line becomes raw", "line 1\nline 2\n", false, "\"\"\"\nline 1\nline 2\n\"\"\""},
		{"leading newline survives", "\nstarts blank", false, "\"\"\"\n\nstarts blank\"\"\""},
		{"inline option", "a\nb", true, `"a\nb"`},
		{"contains delimiter", "a\n\"\"\" b", false, `"a\n\"\"\" b"`},
		{"ends with quote", "a\n\"", false, `"a\n\""`},
		{"escapes", "tab\there \\ \"q\" \x01", false, `"tab\there \\ \"q\" \u{1}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			var opts []formatter.Option
			if tt.inline {
				opts = append(opts, formatter.WithInlineStrings())
			}
			require.NoError(t, formatter.New(&buf, nil, opts...).Format(value.String(tt.input)))
			require.Equal(t, tt.expected, buf.String())
		})
	}

	t.Run("compact output never uses raw strings", func(t *testing.T) {
		var buf bytes.Buffer
		zero := 0
		require.NoError(t, formatter.New(&buf, &zero).Format(value.Array{value.String("a\nb")}))
		require.Equal(t, `["a\nb"]`, buf.String())
	})
}

func TestFormatter_Errors(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		var buf bytes.Buffer
		err := formatter.New(&buf, nil).Format(value.Object{"x": value.Array{value.Float(f)}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported float value")
	}

	werr := errors.New("disk full")
	err := formatter.New(failingWriter{werr}, nil).Format(value.Array{value.Int(1)})
	require.ErrorIs(t, err, werr)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }
