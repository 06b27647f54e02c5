package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vinodismyname/toasty/pkg/calc"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation        Code = "VALIDATION"
	InvalidArgument   Code = "INVALID_ARGUMENT"
	InvalidExpression Code = "INVALID_EXPRESSION"
	PayloadTooLarge   Code = "PAYLOAD_TOO_LARGE"
	LimitExceeded     Code = "LIMIT_EXCEEDED"

	// Evaluation
	UnknownSymbol   Code = "UNKNOWN_SYMBOL"
	DivisionByZero  Code = "DIVISION_BY_ZERO"
	ArityMismatch   Code = "ARITY_MISMATCH"
	NumericOverflow Code = "NUMERIC_OVERFLOW"
	DomainError     Code = "DOMAIN_ERROR"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:        {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidArgument:   {Code: InvalidArgument, Message: "result id cannot be evaluated", Retryable: false, NextSteps: []string{"Request metadata only for ids returned by a result set call"}},
	InvalidExpression: {Code: InvalidExpression, Message: "expression cannot be parsed", Retryable: false, NextSteps: []string{"Check parentheses and operators", "Supported operators: + - * / % ^ !"}},
	PayloadTooLarge:   {Code: PayloadTooLarge, Message: "expression exceeds configured size", Retryable: false, NextSteps: []string{"Shorten the expression"}},
	LimitExceeded:     {Code: LimitExceeded, Message: "too many result ids in one call", Retryable: true, NextSteps: []string{"Split the ids into smaller batches"}},

	UnknownSymbol:   {Code: UnknownSymbol, Message: "unknown function or constant", Retryable: false, NextSteps: []string{"Use a built-in such as sqrt, ln, sin, max, pi or e"}},
	DivisionByZero:  {Code: DivisionByZero, Message: "division by zero", Retryable: false, NextSteps: []string{"Check the divisor"}},
	ArityMismatch:   {Code: ArityMismatch, Message: "wrong number of arguments", Retryable: false, NextSteps: []string{"Check the function's argument count"}},
	NumericOverflow: {Code: NumericOverflow, Message: "result is too large", Retryable: false, NextSteps: []string{"Reduce exponents or factorial operands"}},
	DomainError:     {Code: DomainError, Message: "result is not a real number", Retryable: false, NextSteps: []string{"Check function domains, e.g. sqrt of a negative number"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry with fewer ids"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	// Append compact nextSteps guidance inline to aid clients lacking structured fields.
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	parts := strings.SplitN(t, ":", 2)
	code := Code(strings.TrimSpace(parts[0]))
	msg := ""
	if len(parts) > 1 {
		msg = strings.TrimSpace(parts[1])
	}
	return mcp.NewToolResultError(normalize(code, msg))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// CodeFor maps an expression error to its catalog code. Errors that do not
// come from the calc pipeline map to InvalidArgument.
func CodeFor(err error) Code {
	kind, ok := calc.KindOf(err)
	if !ok {
		return InvalidArgument
	}
	switch kind {
	case calc.UnknownSymbol:
		return UnknownSymbol
	case calc.DivisionByZero:
		return DivisionByZero
	case calc.ArityMismatch:
		return ArityMismatch
	case calc.NumericOverflow:
		return NumericOverflow
	case calc.Domain:
		return DomainError
	}
	return InvalidExpression
}

// FromError returns an MCP error result for an expression error, keeping the
// error text as the message.
func FromError(err error) *mcp.CallToolResult {
	return New(CodeFor(err), err.Error())
}
