package calc

import (
	"errors"
	"fmt"
)

// Class groups error kinds by the pipeline stage that produced them.
type Class uint8

const (
	ClassLex Class = iota + 1
	ClassParse
	ClassEval
)

func (c Class) String() string {
	switch c {
	case ClassLex:
		return "lex error"
	case ClassParse:
		return "parse error"
	case ClassEval:
		return "eval error"
	}
	return "error"
}

// Kind identifies a specific failure.
type Kind uint8

const (
	// Lexing
	InvalidCharacter Kind = iota + 1
	InvalidNumber

	// Parsing
	UnbalancedParens
	UnexpectedToken
	MissingOperand
	EmptyExpression

	// Evaluation
	UnknownSymbol
	DivisionByZero
	ArityMismatch
	NumericOverflow
	Domain
)

var kindText = map[Kind]string{
	InvalidCharacter: "invalid character",
	InvalidNumber:    "invalid number",
	UnbalancedParens: "unbalanced parentheses",
	UnexpectedToken:  "unexpected token",
	MissingOperand:   "missing operand",
	EmptyExpression:  "empty expression",
	UnknownSymbol:    "unknown symbol",
	DivisionByZero:   "division by zero",
	ArityMismatch:    "wrong number of arguments",
	NumericOverflow:  "numeric overflow",
	Domain:           "result is not a real number",
}

func (k Kind) String() string {
	if s, ok := kindText[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Class reports the stage a kind belongs to.
func (k Kind) Class() Class {
	switch k {
	case InvalidCharacter, InvalidNumber:
		return ClassLex
	case UnbalancedParens, UnexpectedToken, MissingOperand, EmptyExpression:
		return ClassParse
	}
	return ClassEval
}

// Error is the single error type returned by the tokenizer, converter and
// evaluator. Pos is a byte offset into the input, or -1 when unknown.
type Error struct {
	Kind   Kind
	Pos    int
	Symbol string
	Reason string
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidCharacter = &Error{Kind: InvalidCharacter, Pos: -1}
	ErrInvalidNumber    = &Error{Kind: InvalidNumber, Pos: -1}
	ErrUnbalancedParens = &Error{Kind: UnbalancedParens, Pos: -1}
	ErrUnexpectedToken  = &Error{Kind: UnexpectedToken, Pos: -1}
	ErrMissingOperand   = &Error{Kind: MissingOperand, Pos: -1}
	ErrEmptyExpression  = &Error{Kind: EmptyExpression, Pos: -1}
	ErrUnknownSymbol    = &Error{Kind: UnknownSymbol, Pos: -1}
	ErrDivisionByZero   = &Error{Kind: DivisionByZero, Pos: -1}
	ErrArityMismatch    = &Error{Kind: ArityMismatch, Pos: -1}
	ErrNumericOverflow  = &Error{Kind: NumericOverflow, Pos: -1}
	ErrDomain           = &Error{Kind: Domain, Pos: -1}
)

func newError(kind Kind, pos int, symbol string) *Error {
	return &Error{Kind: kind, Pos: pos, Symbol: symbol}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Symbol)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind.Class(), e.Pos, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Class(), msg)
}

// Is matches on Kind, and on Symbol when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Symbol == "" || t.Symbol == e.Symbol)
}

// KindOf extracts the Kind from err, if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
