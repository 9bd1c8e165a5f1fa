package parser

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	mamlerrors "github.com/mamlkit/go-maml/errors"
	"github.com/mamlkit/go-maml/internal/token"
	"github.com/mamlkit/go-maml/value"
)

// DefaultMaxDepth is the nesting limit for arrays and objects used when no
// WithMaxDepth option is given.
const DefaultMaxDepth = 1000

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth limits how deeply arrays and objects may nest. Containers
// beyond the limit are skipped without recursion and reported as errors.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		p.maxDepth = n
	}
}

// WithLogger sets the logger used for debug output about recovery.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser holds the state of the parser.
type Parser struct {
	tokens []token.Token
	pos    int
	errors mamlerrors.ParseErrors

	curToken token.Token

	depth    int
	maxDepth int
	logger   *slog.Logger
}

// New creates a new parser over a token sequence produced by the lexer. The
// sequence is expected to end with an EOF token.
func New(tokens []token.Token, opts ...Option) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}
		tokens = append(slices.Clip(tokens), token.Token{Type: token.EOF, Span: token.Span{Pos: end, End: end}})
	}
	p := &Parser{
		tokens:   tokens,
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.curToken = p.tokens[0]
	return p
}

// Errors returns the errors encountered during parsing.
func (p *Parser) Errors() mamlerrors.ParseErrors {
	return p.errors
}

// Parse parses the document and returns its root value. It returns nil if
// any error was recorded, including errors that were recovered from.
func (p *Parser) Parse() value.Value {
	p.skip(token.NEWLINE)

	v, ok := p.parseValue()
	if ok {
		p.skip(token.NEWLINE)
		if !p.curTokenIs(token.EOF) {
			p.addError(mamlerrors.ParseError{
				Reason:  mamlerrors.UnexpectedToken,
				Found:   p.curToken.Describe(),
				Message: fmt.Sprintf("unexpected %s after the top-level value", p.curToken.Describe()),
			}, p.curToken.Span)
		}
	}

	if len(p.errors) > 0 {
		return nil
	}
	return v
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
}

// The contract for all parse functions is that they are entered with
// p.curToken being the first token of the construct. On success they return
// with p.curToken pointing to the token after the construct. On failure an
// error has been recorded and p.curToken is the offending token.

// parseValue parses any value. closer, when set, is the delimiter that would
// also have been acceptable at this position and is only used for the error
// message.
func (p *Parser) parseValue(closer ...token.Type) (value.Value, bool) {
	tok := p.curToken
	switch tok.Type {
	case token.NULL:
		p.nextToken()
		return value.Null{}, true
	case token.TRUE, token.FALSE:
		p.nextToken()
		return value.Bool(tok.Type == token.TRUE), true
	case token.INT:
		return p.parseIntegerLiteral(), true
	case token.FLOAT:
		return p.parseFloatLiteral(), true
	case token.STRING, token.RAWSTRING:
		p.nextToken()
		return value.String(tok.Literal), true
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	}

	expected := []string{"value"}
	for _, c := range closer {
		expected = append(expected, c.Name())
	}
	p.expectError(expected...)
	return nil, false
}

func (p *Parser) parseIntegerLiteral() value.Value {
	tok := p.curToken
	p.nextToken()
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError(mamlerrors.ParseError{
			Reason:  mamlerrors.IntegerOverflow,
			Found:   tok.Describe(),
			Message: fmt.Sprintf("integer literal %s overflows a 64-bit integer", tok.Literal),
		}, tok.Span)
		return value.Null{}
	}
	return value.Int(n)
}

func (p *Parser) parseFloatLiteral() value.Value {
	tok := p.curToken
	p.nextToken()
	f, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil && math.IsInf(f, 0) {
		p.addError(mamlerrors.ParseError{
			Reason:  mamlerrors.FloatOverflow,
			Found:   tok.Describe(),
			Message: fmt.Sprintf("float literal %s is out of range", tok.Literal),
		}, tok.Span)
		return value.Null{}
	}
	return value.Float(f)
}

func (p *Parser) parseArrayLiteral() (value.Value, bool) {
	arr := value.Array{}
	clean, ok := p.parseContainer(token.RBRACK, func() bool {
		v, ok := p.parseValue(token.RBRACK)
		if ok {
			arr = append(arr, v)
		}
		return ok
	})
	if !clean {
		return value.Array{}, ok
	}
	return arr, true
}

func (p *Parser) parseObjectLiteral() (value.Value, bool) {
	obj := value.Object{}
	clean, ok := p.parseContainer(token.RBRACE, func() bool {
		return p.parseMember(obj)
	})
	if !clean {
		return value.Object{}, ok
	}
	return obj, true
}

// parseContainer parses the body of an array or object whose opening
// delimiter is the current token. clean reports that the body was well
// formed; ok reports that the container was at least closed, possibly after
// recovery, so the caller can substitute an empty container and go on.
func (p *Parser) parseContainer(closer token.Type, parseElement func() bool) (clean, ok bool) {
	open := p.curToken
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		idx := p.addError(mamlerrors.ParseError{
			Reason:  mamlerrors.NestingTooDeep,
			Found:   open.Describe(),
			Message: fmt.Sprintf("nesting exceeds the maximum depth of %d", p.maxDepth),
		}, open.Span)
		p.nextToken()
		return false, p.recover(closer, idx)
	}

	p.nextToken() // Consume the opening delimiter
	p.skip(token.NEWLINE)
	if p.curTokenIs(closer) {
		p.nextToken()
		return true, true
	}

	for {
		if !parseElement() {
			return false, p.recover(closer, len(p.errors)-1)
		}
		hadSep := p.skipSeparator()
		if p.curTokenIs(closer) {
			p.nextToken()
			return true, true
		}
		if !hadSep {
			idx := p.expectError(token.COMMA.Name(), token.NEWLINE.Name(), closer.Name())
			return false, p.recover(closer, idx)
		}
	}
}

// parseMember parses `key: value` and stores it in obj. A repeated key
// replaces the earlier value.
func (p *Parser) parseMember(obj value.Object) bool {
	key, ok := p.parseObjectKey()
	if !ok {
		return false
	}

	if !p.curTokenIs(token.COLON) {
		p.expectError(token.COLON.Name())
		return false
	}
	p.nextToken() // Consume ':'

	v, ok := p.parseValue()
	if !ok {
		return false
	}
	if _, dup := obj[key]; dup {
		p.logger.Debug("duplicate key, last value wins", slog.String("key", key), slog.Int("pos", p.curToken.Pos))
	}
	obj[key] = v
	return true
}

func (p *Parser) parseObjectKey() (string, bool) {
	tok := p.curToken
	switch tok.Type {
	case token.STRING, token.KEY:
		p.nextToken()
		return tok.Literal, true
	case token.INT:
		// A bare digit sequence is a key; signed integers are not.
		if !strings.HasPrefix(tok.Literal, "-") {
			p.nextToken()
			return tok.Literal, true
		}
	}
	p.expectError(token.KEY.Name(), token.RBRACE.Name())
	return "", false
}

// skipSeparator consumes one separator run: any newlines with at most one
// comma among them. It reports whether anything was consumed.
func (p *Parser) skipSeparator() bool {
	start := p.pos
	p.skip(token.NEWLINE)
	if p.curTokenIs(token.COMMA) {
		p.nextToken()
		p.skip(token.NEWLINE)
	}
	return p.pos != start
}

// recover skips forward to the delimiter closing the current container,
// balancing nested brackets and braces on the way. It extends error idx to
// cover the skipped region. It returns false, without consuming it, if the
// input ends or a closer of the wrong kind is found at depth zero.
func (p *Parser) recover(closer token.Type, idx int) bool {
	depth := 0
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.LBRACK, token.LBRACE:
			depth++
		case token.RBRACK, token.RBRACE:
			if depth == 0 {
				if !p.curTokenIs(closer) {
					return false
				}
				if idx >= 0 && idx < len(p.errors) {
					p.errors[idx].End = p.curToken.End
				}
				p.logger.Debug("recovered malformed container",
					slog.String("closer", string(closer)),
					slog.Int("end", p.curToken.End),
				)
				p.nextToken()
				return true
			}
			depth--
		}
		p.nextToken()
	}
	return false
}

func (p *Parser) skip(types ...token.Type) {
	for slices.Contains(types, p.curToken.Type) {
		p.nextToken()
	}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

// expectError records an ExpectedOneOf error at the current token and
// returns its index.
func (p *Parser) expectError(expected ...string) int {
	return p.addError(mamlerrors.ParseError{
		Reason:   mamlerrors.ExpectedOneOf,
		Expected: expected,
		Found:    p.curToken.Describe(),
	}, p.curToken.Span)
}

func (p *Parser) addError(e mamlerrors.ParseError, span token.Span) int {
	e.Pos, e.End = span.Pos, span.End
	p.errors = append(p.errors, e)
	return len(p.errors) - 1
}
