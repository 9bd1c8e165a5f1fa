package lexer

import (
	"fmt"
	"unicode/utf8"

	"go4.org/mem"

	mamlerrors "github.com/mamlkit/go-maml/errors"
	"github.com/mamlkit/go-maml/internal/escape"
	"github.com/mamlkit/go-maml/internal/token"
)

const tripleQuote = `"""`

var punctuation = map[byte]token.Type{
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACK,
	']': token.RBRACK,
	',': token.COMMA,
	':': token.COLON,
}

// Lexer holds the state for tokenizing MAML source.
type Lexer struct {
	input mem.RO
	pos   int // offset of the next unread byte
}

// New creates and returns a new Lexer.
func New(input []byte) *Lexer {
	return &Lexer{input: mem.B(input)}
}

// Tokenize returns every token of input, ending with an EOF token. It stops
// at the first lexical error; no partial token sequence is returned.
func Tokenize(input []byte) ([]token.Token, error) {
	l := New(input)
	toks := make([]token.Token, 0, len(input)/4+1)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// IsBareKey reports whether s can be written as an unquoted object key and
// read back as the same key.
func IsBareKey(s string) bool {
	tok, err := New([]byte(s)).NextToken()
	if err != nil || tok.End != len(s) {
		return false
	}
	return tok.Type == token.KEY || (tok.Type == token.INT && s[0] != '-')
}

// NextToken scans the input and returns the next token. The returned error,
// if any, is an errors.ParseError; the lexer must not be used after that.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespaceAndComments()

	start := l.pos
	if start >= l.input.Len() {
		return token.Token{Type: token.EOF, Span: token.Span{Pos: start, End: start}}, nil
	}

	ch := l.input.At(start)
	if typ, ok := punctuation[ch]; ok {
		l.pos++
		return l.token(typ, start), nil
	}
	switch ch {
	case '\n':
		l.pos++
		return l.token(token.NEWLINE, start), nil
	case '\r':
		if l.peek(1) == '\n' {
			l.pos += 2
			return l.token(token.NEWLINE, start), nil
		}
		return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, start, start+1, "carriage return not followed by newline")
	case '"':
		if mem.HasPrefix(l.input.SliceFrom(start), mem.S(tripleQuote)) {
			return l.readRawString()
		}
		return l.readString()
	}
	return l.readWord()
}

func (l *Lexer) token(typ token.Type, start int) token.Token {
	return token.Token{
		Type:    typ,
		Literal: l.input.Slice(start, l.pos).StringCopy(),
		Span:    token.Span{Pos: start, End: l.pos},
	}
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n >= l.input.Len() {
		return 0
	}
	return l.input.At(l.pos + n)
}

func (l *Lexer) errorf(reason mamlerrors.Reason, pos, end int, format string, args ...any) error {
	return mamlerrors.ParseError{
		Pos:     pos,
		End:     end,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < l.input.Len() {
		switch l.input.At(l.pos) {
		case ' ', '\t':
			l.pos++
		case '#':
			// The terminating newline stays in the input as a separator.
			rest := l.input.SliceFrom(l.pos)
			if i := mem.IndexByte(rest, '\n'); i >= 0 {
				l.pos += i
			} else {
				l.pos = l.input.Len()
			}
		default:
			return
		}
	}
}

// readWord scans keywords, numbers and keys. All candidate rules are matched
// at the current position; the longest match wins and ties go to the earlier
// rule in the order keyword, float, int, key.
func (l *Lexer) readWord() (token.Token, error) {
	start := l.pos
	rest := l.input.SliceFrom(start)

	intLen, floatLen := matchNumber(rest)
	keyLen := max(matchIdent(rest), matchDigits(rest))
	best := max(intLen, floatLen, keyLen)

	if best == 0 {
		r, size := mem.DecodeRune(rest)
		if r == utf8.RuneError && size <= 1 {
			return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, start, start+1, "invalid UTF-8 byte 0x%02x", rest.At(0))
		}
		return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, start, start+size, "unexpected character %q", r)
	}

	l.pos = start + best
	switch best {
	case floatLen:
		return l.token(token.FLOAT, start), nil
	case intLen:
		return l.token(token.INT, start), nil
	}
	tok := l.token(token.KEY, start)
	tok.Type = token.LookupIdent(tok.Literal)
	return tok, nil
}

func (l *Lexer) readString() (token.Token, error) {
	start := l.pos
	i := start + 1
	for {
		if i >= l.input.Len() {
			return token.Token{}, l.errorf(mamlerrors.Unterminated, start, i, "unterminated string")
		}
		b := l.input.At(i)
		switch {
		case b == '"':
			return l.finishString(start, i)
		case b == '\\':
			i += 2
		case b == '\n':
			return token.Token{}, l.errorf(mamlerrors.Unterminated, start, i, "unterminated string")
		case (b < 0x20 && b != '\t') || b == 0x7f:
			return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, i, i+1, "unescaped control character U+%04X in string", b)
		default:
			i++
		}
	}
}

// finishString decodes the quoted string spanning [start, closing].
func (l *Lexer) finishString(start, closing int) (token.Token, error) {
	dec, err := escape.Unquote(l.input.Slice(start+1, closing))
	if err != nil {
		e, ok := err.(*escape.Error)
		if !ok {
			return token.Token{}, l.errorf(mamlerrors.MalformedEscape, start, closing+1, "%v", err)
		}
		pos := start + 1 + e.Offset
		return token.Token{}, l.errorf(mamlerrors.MalformedEscape, pos, pos+e.Len, "%s", e.Msg)
	}
	if !utf8.Valid(dec) {
		return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, start, closing+1, "invalid UTF-8 in string")
	}
	l.pos = closing + 1
	return token.Token{
		Type:    token.STRING,
		Literal: string(dec),
		Span:    token.Span{Pos: start, End: l.pos},
	}, nil
}

// readRawString scans a triple-quoted string. The content ends at the first
// `"""`, so a raw string can never contain that sequence.
func (l *Lexer) readRawString() (token.Token, error) {
	start := l.pos
	body := l.input.SliceFrom(start + len(tripleQuote))
	end := mem.Index(body, mem.S(tripleQuote))
	if end < 0 {
		return token.Token{}, l.errorf(mamlerrors.Unterminated, start, l.input.Len(), "unterminated raw string")
	}

	content := body.SliceTo(end)
	switch {
	case mem.HasPrefix(content, mem.S("\r\n")):
		content = content.SliceFrom(2)
	case mem.HasPrefix(content, mem.S("\n")):
		content = content.SliceFrom(1)
	}

	lit := content.StringCopy()
	l.pos = start + len(tripleQuote) + end + len(tripleQuote)
	if !utf8.ValidString(lit) {
		return token.Token{}, l.errorf(mamlerrors.UnexpectedChar, start, l.pos, "invalid UTF-8 in raw string")
	}
	return token.Token{
		Type:    token.RAWSTRING,
		Literal: lit,
		Span:    token.Span{Pos: start, End: l.pos},
	}, nil
}

// matchNumber returns the lengths of the longest Int and Float matches at
// the start of s, or zero when the rule does not match.
func matchNumber(s mem.RO) (intLen, floatLen int) {
	i := 0
	if i < s.Len() && s.At(i) == '-' {
		i++
	}
	switch {
	case i < s.Len() && s.At(i) == '0':
		i++
	case i < s.Len() && isNonZeroDigit(s.At(i)):
		i = skipDigits(s, i+1)
	default:
		return 0, 0
	}
	intLen = i

	if i+1 < s.Len() && s.At(i) == '.' && isDigit(s.At(i+1)) {
		j := skipDigits(s, i+2)
		floatLen = matchExponent(s, j)
	} else if j := matchExponent(s, i); j > i {
		floatLen = j
	}
	return intLen, floatLen
}

// matchExponent returns the end of an exponent starting at i, or i if there
// is none.
func matchExponent(s mem.RO, i int) int {
	if i >= s.Len() || (s.At(i) != 'e' && s.At(i) != 'E') {
		return i
	}
	j := i + 1
	if j < s.Len() && (s.At(j) == '+' || s.At(j) == '-') {
		j++
	}
	if j >= s.Len() || !isDigit(s.At(j)) {
		return i
	}
	return skipDigits(s, j)
}

func matchIdent(s mem.RO) int {
	if s.Len() == 0 || !isIdentStart(s.At(0)) {
		return 0
	}
	i := 1
	for i < s.Len() && (isIdentStart(s.At(i)) || isDigit(s.At(i))) {
		i++
	}
	return i
}

func matchDigits(s mem.RO) int {
	return skipDigits(s, 0)
}

func skipDigits(s mem.RO, i int) int {
	for i < s.Len() && isDigit(s.At(i)) {
		i++
	}
	return i
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func isNonZeroDigit(b byte) bool {
	return '1' <= b && b <= '9'
}

func isIdentStart(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || b == '_' || b == '-'
}
