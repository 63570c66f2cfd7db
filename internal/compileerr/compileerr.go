// Package compileerr defines the single error type surfaced by every stage
// of the compiler pipeline, per the {message, loc, kind} diagnostic contract.
package compileerr

import "fmt"

// Kind classifies a CompileError by the pipeline stage that raised it.
type Kind int

const (
	KindUnknown Kind = iota
	KindLexical
	KindSyntax
	KindDeclaration
	KindType
	KindMutability
	KindControlFlow
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindDeclaration:
		return "declaration"
	case KindType:
		return "type"
	case KindMutability:
		return "mutability"
	case KindControlFlow:
		return "control-flow"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Loc is a 1-indexed source position.
type Loc struct {
	Row int
	Col int
}

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d", l.Row, l.Col)
}

// CompileError is the typed error carried out of every stage: lexer,
// parser, and semantic analyzer. It wraps an optional underlying error for
// use with errors.Is/errors.As: a technical message plus an optional
// wrapped cause.
type CompileError struct {
	Kind    Kind
	Message string
	Loc     Loc
	wrap    error
}

func (e *CompileError) Error() string {
	if e.Loc.Row == 0 && e.Loc.Col == 0 {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Loc, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.wrap
}

// New returns a CompileError of the given kind at loc.
func New(kind Kind, loc Loc, format string, a ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Loc:     loc,
	}
}

// Wrap returns a CompileError of the given kind at loc that wraps cause.
func Wrap(cause error, kind Kind, loc Loc, format string, a ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Loc:     loc,
		wrap:    cause,
	}
}
