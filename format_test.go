package maml_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mamlkit/go-maml"
	"github.com/mamlkit/go-maml/value"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	tree := value.Object{
		"string": value.String("hello"),
		"nested": value.Object{"a": value.Int(1)},
		"array":  value.Array{value.Bool(true), value.Null{}},
		"text":   value.String("line 1\nline 2"),
	}

	testCases := []struct {
		name     string
		opts     []maml.Option
		expected string
	}{
		{
			name:     "Compact Mode",
			opts:     []maml.Option{maml.Indent(0)},
			expected: `{array:[true,null],nested:{a:1},string:"hello",text:"line 1\nline 2"}`,
		},
		{
			name:     "Default Indent",
			expected: "{\n  array: [\n    true\n    null\n  ]\n  nested: {\n    a: 1\n  }\n  string: \"hello\"\n  text: \"\"\"\nline 1\nline 2\"\"\"\n}",
		},
		{
			name:     "Inline Strings",
			opts:     []maml.Option{maml.Indent(1), maml.InlineStrings()},
			expected: "{\n array: [\n  true\n  null\n ]\n nested: {\n  a: 1\n }\n string: \"hello\"\n text: \"line 1\\nline 2\"\n}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := maml.FormatValue(tree, tc.opts...)
			require.NoError(t, err)
			require.Equal(t, tc.expected, string(out))
		})
	}

	t.Run("Invalid options", func(t *testing.T) {
		_, err := maml.FormatValue(tree, maml.Indent(-2))
		require.EqualError(t, err, "maml: indent spaces cannot be negative")
	})

	t.Run("Non-finite float", func(t *testing.T) {
		_, err := maml.FormatValue(value.Array{value.Float(math.Inf(1))})
		require.Error(t, err)
	})
}

func TestFormat(t *testing.T) {
	src := []byte(`
		# comments are dropped
		{ b: [1, 2,], a: """
raw"""
		}
	`)
	out, err := maml.Format(src, maml.Indent(0))
	require.NoError(t, err)
	require.Equal(t, `{a:"raw",b:[1,2]}`, string(out))

	_, err = maml.Format([]byte(`{ a: }`))
	var se *maml.SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestRoundTrip(t *testing.T) {
	trees := []value.Value{
		value.Null{},
		value.Bool(false),
		value.Int(math.MinInt64),
		value.Int(math.MaxInt64),
		value.Float(0),
		value.Float(-2.5e-300),
		value.Float(1e21),
		value.Float(math.SmallestNonzeroFloat64),
		value.String(""),
		value.String("\x00\x1f\x7f \\ \" \t é 😀"),
		value.String("\nstarts with a newline"),
		value.String("raw\r\nwith crlf\n"),
		value.String("ends with quote\n\""),
		value.String(`contains """ delimiter` + "\n"),
		value.Array{},
		value.Object{},
		value.Array{value.Array{value.Array{}}, value.Object{"": value.Null{}}},
		value.Object{
			"007":    value.Int(7),
			"42":     value.Int(42),
			"-1":     value.Int(-1),
			"1.5":    value.Float(1.5),
			"null":   value.Null{},
			"a b":    value.String("c"),
			"nested": value.Object{"list": value.Array{value.Int(1), value.Float(1)}},
		},
	}

	for _, indent := range []int{0, 2, 4} {
		for _, want := range trees {
			text, err := maml.FormatValue(want, maml.Indent(indent))
			require.NoError(t, err)

			got, err := maml.Parse(text)
			require.NoError(t, err, "formatted text:\n%s", text)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip of %s with indent %d (-want +got):\n%s", want, indent, diff)
			}
		}
	}
}
