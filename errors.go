package maml

import (
	"reflect"
	"slices"
	"strings"

	mamlerrors "github.com/mamlkit/go-maml/errors"
	"github.com/mamlkit/go-maml/internal/report"
)

// A SyntaxError describes MAML text that could not be parsed. Its message is
// the full diagnostic report, one annotated excerpt per error.
type SyntaxError struct {
	Name   string // source name shown in the report
	Source []byte
	Errors mamlerrors.ParseErrors
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	if err := report.Render(&sb, e.Name, e.Source, slices.Clone(e.Errors)); err != nil {
		return e.Errors.Error()
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Unwrap returns the underlying parse errors.
func (e *SyntaxError) Unwrap() error { return e.Errors }

// A MarshalerError represents an error from calling a MarshalMAML method.
type MarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *MarshalerError) Error() string {
	return "maml: error calling MarshalMAML for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *MarshalerError) Unwrap() error { return e.Err }

// An UnmarshalerError represents an error from calling an UnmarshalMAML or
// UnmarshalText method.
type UnmarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *UnmarshalerError) Error() string {
	return "maml: error calling unmarshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *UnmarshalerError) Unwrap() error { return e.Err }
