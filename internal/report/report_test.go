package report_test

import (
	"bytes"
	"strings"
	"testing"

	mamlerrors "github.com/mamlkit/go-maml/errors"
	"github.com/mamlkit/go-maml/internal/report"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	src := "{\r\n  ключ: 1\n\tb: [\n}"
	errs := mamlerrors.ParseErrors{
		{Pos: 0},
		{Pos: strings.Index(src, "1")},
		{Pos: strings.Index(src, "[")},
		{Pos: len(src)},
		{Pos: len(src) + 10},
	}
	report.Locate([]byte(src), errs)

	type lc struct{ Line, Column int }
	var got []lc
	for _, e := range errs {
		got = append(got, lc{e.Line, e.Column})
	}
	require.Equal(t, []lc{{1, 1}, {2, 9}, {3, 5}, {4, 2}, {4, 2}}, got)
}

func TestRender(t *testing.T) {
	src := "{\n  list: [1, , 2]\n}\n"
	pos := strings.Index(src, ", ,") + 2
	errs := mamlerrors.ParseErrors{{
		Pos:      pos,
		End:      strings.Index(src, "]") + 1,
		Reason:   mamlerrors.ExpectedOneOf,
		Expected: []string{"value", `"]"`},
		Found:    `","`,
	}}

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, "config.maml", []byte(src), errs))

	expected := `error: expected one of value, "]", found ","
 --> config.maml:2:13
  |
2 |   list: [1, , 2]
  |             ^^^^ expected one of
`
	require.Equal(t, expected, buf.String())
	require.Equal(t, 2, errs[0].Line)
	require.Equal(t, 13, errs[0].Column)
}

func TestRenderMultiple(t *testing.T) {
	src := strings.Repeat("\n", 11) + "\t\"abc"
	errs := mamlerrors.ParseErrors{
		{Pos: 12, End: len(src), Reason: mamlerrors.Unterminated, Message: "unterminated string"},
		{Pos: 0, End: 0, Reason: mamlerrors.UnexpectedToken, Found: "newline"},
	}

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, "<input>", []byte(src), errs))

	expected := "error: unterminated string\n" +
		"  --> <input>:12:2\n" +
		"   |\n" +
		"12 | \t\"abc\n" +
		"   | \t^^^^ unterminated literal\n" +
		"\n" +
		"error: unexpected newline\n" +
		"  --> <input>:1:1\n" +
		"   |\n" +
		" 1 | \n" +
		"   | ^ unexpected token\n"
	require.Equal(t, expected, buf.String())
}
