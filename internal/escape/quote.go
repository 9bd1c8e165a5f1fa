package escape

import (
	"strconv"
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

// Quote encodes a string for inclusion between the double quotes of a MAML
// quoted string. Unquote(Quote(s)) == s for every valid UTF-8 input.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len()+2)
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		switch {
		case r == utf8.RuneError && n == 1:
			// Invalid UTF-8 cannot appear in a MAML string; substitute.
			buf = append(buf, `\u{fffd}`...)
		case r < ' ':
			if b := controlEsc[r]; b != 0 {
				buf = append(buf, '\\', b)
			} else {
				buf = appendCodePoint(buf, r)
			}
		case r == 0x7f:
			buf = appendCodePoint(buf, r)
		case r == '\\' || r == '"':
			buf = append(buf, '\\', byte(r))
		default:
			buf = mem.Append(buf, src.SliceTo(n))
		}
		src = src.SliceFrom(n)
	}
	return buf
}

func appendCodePoint(buf []byte, r rune) []byte {
	buf = append(buf, `\u{`...)
	buf = strconv.AppendInt(buf, int64(r), 16)
	return append(buf, '}')
}
