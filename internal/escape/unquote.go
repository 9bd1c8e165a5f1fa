// Package escape handles quoting and unquoting of MAML quoted strings.
package escape

import (
	"fmt"
	"unicode/utf8"

	"go4.org/mem"
)

// Error reports a malformed escape sequence. Offset and Len locate the
// sequence within the input passed to Unquote.
type Error struct {
	Offset int
	Len    int
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

// maxHexDigits is the longest accepted \u{...} body.
const maxHexDigits = 6

// Unquote decodes the body of a MAML quoted string. The input must have the
// enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. Unquote
// reports an *Error for an incomplete or unknown escape, for non-hex digits
// inside \u{}, and for code points that are not Unicode scalar values.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dec = mem.Append(dec, src)
		return dec, nil
	}

	base := 0 // offset of src within the original input
	for {
		dec = mem.Append(dec, src.SliceTo(i))
		start := base + i

		src = src.SliceFrom(i + 1)
		base = start + 1
		if src.Len() == 0 {
			return nil, &Error{Offset: start, Len: 1, Msg: "incomplete escape sequence"}
		}

		r, size := mem.DecodeRune(src)
		if size == 0 {
			size = 1
		}
		src = src.SliceFrom(size)
		base += size
		switch r {
		case '"', '\\', '/':
			dec = append(dec, byte(r))
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			cp, n, err := parseCodePoint(src)
			if err != nil {
				return nil, &Error{Offset: start, Len: 2 + n, Msg: err.Error()}
			}
			dec = utf8.AppendRune(dec, cp)
			src = src.SliceFrom(n)
			base += n
		default:
			return nil, &Error{Offset: start, Len: 1 + size, Msg: fmt.Sprintf("invalid escape sequence \\%c", r)}
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			return dec, nil
		}
	}
}

// parseCodePoint decodes the "{XXXXXX}" part of a \u escape at the start of
// src. It returns the rune and the number of bytes consumed.
func parseCodePoint(src mem.RO) (rune, int, error) {
	if src.Len() == 0 || src.At(0) != '{' {
		return 0, 0, fmt.Errorf("expected '{' after \\u")
	}
	end := mem.IndexByte(src, '}')
	if end < 0 {
		return 0, src.Len(), fmt.Errorf("incomplete unicode escape, missing '}'")
	}
	digits := src.Slice(1, end)
	if digits.Len() == 0 || digits.Len() > maxHexDigits {
		return 0, end + 1, fmt.Errorf("unicode escape must have 1 to %d hex digits", maxHexDigits)
	}
	v, err := parseHex(digits)
	if err != nil {
		return 0, end + 1, err
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 0, end + 1, fmt.Errorf("invalid unicode scalar value U+%X", v)
	}
	return r, end + 1, nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q in unicode escape", b)
		}
	}
	return v, nil
}
