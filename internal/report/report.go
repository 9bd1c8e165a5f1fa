// Package report renders parse errors as annotated excerpts of the source.
package report

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"go4.org/mem"

	mamlerrors "github.com/mamlkit/go-maml/errors"
)

// lineIndex records the byte offset at which each line of a source starts.
type lineIndex struct {
	src    mem.RO
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	ix := &lineIndex{src: mem.B(src), starts: []int{0}}
	for off := 0; ; {
		i := mem.IndexByte(ix.src.SliceFrom(off), '\n')
		if i < 0 {
			break
		}
		off += i + 1
		ix.starts = append(ix.starts, off)
	}
	return ix
}

// position returns the 0-based line of byte offset pos and the byte offset
// where that line starts. Offsets past the end clamp to the end.
func (ix *lineIndex) position(pos int) (line, start int) {
	pos = min(max(pos, 0), ix.src.Len())
	line, found := slices.BinarySearch(ix.starts, pos)
	if !found {
		line--
	}
	return line, ix.starts[line]
}

// text returns line n without its terminator.
func (ix *lineIndex) text(n int) mem.RO {
	end := ix.src.Len()
	if n+1 < len(ix.starts) {
		end = ix.starts[n+1] - 1
	}
	s := ix.src.Slice(ix.starts[n], end)
	if s.Len() > 0 && s.At(s.Len()-1) == '\r' {
		s = s.SliceTo(s.Len() - 1)
	}
	return s
}

func runeCount(s mem.RO) int {
	n := 0
	for s.Len() > 0 {
		_, size := mem.DecodeRune(s)
		s = s.SliceFrom(size)
		n++
	}
	return n
}

// Locate fills in the 1-based Line and Column of each error from its byte
// offset. Columns count runes, not bytes.
func Locate(src []byte, errs mamlerrors.ParseErrors) {
	ix := newLineIndex(src)
	for i := range errs {
		line, start := ix.position(errs[i].Pos)
		pos := min(max(errs[i].Pos, start), ix.src.Len())
		errs[i].Line = line + 1
		errs[i].Column = runeCount(ix.src.Slice(start, pos)) + 1
	}
}

// Render writes one report per error to w. Each report names the file and
// position, quotes the offending line and underlines the error span:
//
//	error: expected one of value, "]", found ","
//	 --> config.maml:1:5
//	  |
//	1 | [1, , 2]
//	  |     ^^^^ expected one of
//
// Spans reaching past the end of their first line are underlined to the end
// of that line. Render fills in Line and Column like Locate.
func Render(w io.Writer, name string, src []byte, errs mamlerrors.ParseErrors) error {
	Locate(src, errs)
	ix := newLineIndex(src)

	width := 1
	for _, e := range errs {
		width = max(width, len(strconv.Itoa(e.Line)))
	}
	gutter := strings.Repeat(" ", width)

	bw := bufio.NewWriter(w)
	for i, e := range errs {
		if i > 0 {
			bw.WriteByte('\n')
		}
		line, start := ix.position(e.Pos)
		text := ix.text(line)

		fmt.Fprintf(bw, "error: %s\n", e.Text())
		fmt.Fprintf(bw, "%s--> %s:%d:%d\n", gutter, name, e.Line, e.Column)
		fmt.Fprintf(bw, "%s |\n", gutter)
		fmt.Fprintf(bw, "%*d | %s\n", width, e.Line, text.StringCopy())

		from := min(max(e.Pos-start, 0), text.Len())
		to := min(max(e.End-start, from), text.Len())
		fmt.Fprintf(bw, "%s | %s%s %s\n",
			gutter,
			padding(text.SliceTo(from)),
			strings.Repeat("^", max(runeCount(text.Slice(from, to)), 1)),
			e.Reason,
		)
	}
	return bw.Flush()
}

// padding returns blank space as wide as prefix, keeping tabs so the
// underline lines up with the quoted source.
func padding(prefix mem.RO) string {
	var sb strings.Builder
	for prefix.Len() > 0 {
		r, size := mem.DecodeRune(prefix)
		prefix = prefix.SliceFrom(size)
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
