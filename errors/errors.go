// Package errors defines the structured diagnostics produced while
// tokenizing and parsing MAML.
package errors

import (
	"fmt"
	"strings"
)

// Reason classifies a ParseError.
type Reason int

const (
	// UnexpectedChar reports a byte sequence that matches no lexical rule.
	UnexpectedChar Reason = iota + 1
	// Unterminated reports a string or raw string with no closing quote.
	Unterminated
	// MalformedEscape reports an invalid escape sequence in a quoted string.
	MalformedEscape
	// UnexpectedToken reports a token that cannot appear where it was found.
	UnexpectedToken
	// ExpectedOneOf reports a token that is not among the Expected set.
	ExpectedOneOf
	// IntegerOverflow reports an integer literal outside the int64 range.
	IntegerOverflow
	// FloatOverflow reports a float literal outside the float64 range.
	FloatOverflow
	// NestingTooDeep reports arrays and objects nested beyond the limit.
	NestingTooDeep
)

var reasonNames = [...]string{
	UnexpectedChar:  "unexpected character",
	Unterminated:    "unterminated literal",
	MalformedEscape: "malformed escape",
	UnexpectedToken: "unexpected token",
	ExpectedOneOf:   "expected one of",
	IntegerOverflow: "integer overflow",
	FloatOverflow:   "float overflow",
	NestingTooDeep:  "nesting too deep",
}

func (r Reason) String() string {
	if r <= 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonNames[r]
}

// ParseError represents a single error that occurred during parsing.
// Pos and End are a half-open byte range into the source. Line and Column
// are 1-based and are filled in once the source is known.
type ParseError struct {
	Pos    int
	End    int
	Line   int
	Column int

	Reason   Reason
	Expected []string // for ExpectedOneOf
	Found    string   // description of the offending token, if any
	Message  string   // optional detail
}

// IsLexical reports whether the error was raised by the tokenizer.
func (e ParseError) IsLexical() bool {
	switch e.Reason {
	case UnexpectedChar, Unterminated, MalformedEscape:
		return true
	}
	return false
}

// Text returns the error description without position information.
func (e ParseError) Text() string {
	switch e.Reason {
	case ExpectedOneOf:
		s := "expected " + describeSet(e.Expected)
		if e.Found != "" {
			s += ", found " + e.Found
		}
		return s
	case UnexpectedToken:
		if e.Message != "" {
			return e.Message
		}
		return "unexpected " + e.Found
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Reason.String()
}

func (e ParseError) Error() string {
	return fmt.Sprintf("maml: parsing error at line %d, column %d: %s", e.Line, e.Column, e.Text())
}

func describeSet(set []string) string {
	switch len(set) {
	case 0:
		return "something else"
	case 1:
		return set[0]
	}
	return "one of " + strings.Join(set, ", ")
}

// ParseErrors is a slice of ParseError that implements the error interface.
// This allows returning all syntax errors found during parsing at once.
type ParseErrors []ParseError

func (p ParseErrors) Error() string {
	if len(p) == 0 {
		return ""
	}
	if len(p) == 1 {
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0].Error(), len(p)-1)
}
