package token

import "strconv"

// Type is the type of a token.
type Type string

// Span is a half-open byte range [Pos, End) into the source.
type Span struct {
	Pos int
	End int
}

// Token represents a lexical token.
//
// For STRING, RAWSTRING and KEY tokens Literal holds the decoded text. For
// INT and FLOAT tokens it holds the source text; conversion happens in the
// parser so that range errors are reported as parse errors.
type Token struct {
	Type    Type
	Literal string
	Span
}

const (
	// Special tokens
	EOF Type = "EOF" // End of input

	// Literals
	KEY       Type = "KEY"       // a, key-name, 007
	INT       Type = "INT"       // 12345
	FLOAT     Type = "FLOAT"     // 123.45, 1e10
	STRING    Type = "STRING"    // "hello world"
	RAWSTRING Type = "RAWSTRING" // """hello world"""

	// Delimiters
	LBRACE Type = "{"
	RBRACE Type = "}"
	LBRACK Type = "["
	RBRACK Type = "]"
	COMMA  Type = ","
	COLON  Type = ":"

	// Keywords
	TRUE  Type = "TRUE"
	FALSE Type = "FALSE"
	NULL  Type = "NULL"

	NEWLINE Type = "NEWLINE" // \n
)

var keywords = map[string]Type{
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

// LookupIdent checks the keywords table for an identifier.
// If the identifier is a keyword, it returns the keyword's token type.
// Otherwise, it returns KEY.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return KEY
}

// Name returns the phrase used for a token type in diagnostics.
func (t Type) Name() string {
	switch t {
	case EOF:
		return "end of input"
	case KEY:
		return "key"
	case INT:
		return "integer"
	case FLOAT:
		return "float"
	case STRING:
		return "string"
	case RAWSTRING:
		return "raw string"
	case TRUE:
		return "true"
	case FALSE:
		return "false"
	case NULL:
		return "null"
	case NEWLINE:
		return "newline"
	}
	return strconv.Quote(string(t))
}

// Describe returns a short description of the token including its text
// where that helps the reader, e.g. `integer 42` or `"]"`.
func (t Token) Describe() string {
	switch t.Type {
	case KEY:
		return "key " + strconv.Quote(t.Literal)
	case INT, FLOAT:
		return t.Type.Name() + " " + t.Literal
	case STRING, RAWSTRING:
		return t.Type.Name() + " " + strconv.Quote(t.Literal)
	}
	return t.Type.Name()
}
