package calc

import (
	"math"
	"strconv"
	"sync"
)

type opKey struct {
	symbol string
	fixity Fixity
}

// Context holds the operators, functions and constants an expression may
// use. It is read-only after construction and safe for concurrent use.
type Context struct {
	operators map[opKey]*Operator
	functions map[string]*Function
	constants map[string]float64
}

// ContextOption customizes a Context at construction.
type ContextOption func(*Context)

// WithConstant adds or replaces a named constant.
func WithConstant(name string, value float64) ContextOption {
	return func(c *Context) { c.constants[name] = value }
}

// WithFunction adds or replaces a function.
func WithFunction(fn Function) ContextOption {
	return func(c *Context) { c.functions[fn.Name] = &fn }
}

// NewContext builds a Context with the standard operators, functions and
// constants, then applies opts.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		operators: make(map[opKey]*Operator),
		functions: make(map[string]*Function),
		constants: defaultConstants(),
	}
	for _, op := range defaultOperators() {
		c.operators[opKey{op.Symbol, op.Fixity}] = op
	}
	for _, fn := range defaultFunctions() {
		c.functions[fn.Name] = fn
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultContext = sync.OnceValue(func() *Context { return NewContext() })

// Default returns the shared standard Context.
func Default() *Context {
	return defaultContext()
}

// Operator implements OperatorTable.
func (c *Context) Operator(symbol string, fixity Fixity) (*Operator, bool) {
	op, ok := c.operators[opKey{symbol, fixity}]
	return op, ok
}

// Function looks up a function by name.
func (c *Context) Function(name string) (*Function, bool) {
	fn, ok := c.functions[name]
	return fn, ok
}

// Constant looks up a constant by name.
func (c *Context) Constant(name string) (float64, bool) {
	v, ok := c.constants[name]
	return v, ok
}

// Parse tokenizes and converts input into a Program.
func (c *Context) Parse(input string) (Program, error) {
	return NewConverter(c).Convert(Tokens(input))
}

// Evaluate runs prog and returns its single result.
func (c *Context) Evaluate(prog Program) (float64, error) {
	stack := make([]float64, 0, len(prog))

	for _, in := range prog {
		switch in.Op {
		case OpNumber:
			stack = append(stack, in.Value)

		case OpConstant:
			v, ok := c.constants[in.Name]
			if !ok {
				return 0, newError(UnknownSymbol, in.Pos, in.Name)
			}
			stack = append(stack, v)

		case OpOperator:
			op := in.Operator
			if len(stack) < op.Arity {
				return 0, newError(ArityMismatch, in.Pos, op.Symbol)
			}
			base := len(stack) - op.Arity
			v, err := apply(op.Apply, stack[base:], in.Pos, op.Symbol)
			if err != nil {
				return 0, err
			}
			stack = append(stack[:base], v)

		case OpCall:
			fn, ok := c.functions[in.Name]
			if !ok {
				return 0, newError(UnknownSymbol, in.Pos, in.Name)
			}
			if !fn.accepts(in.Argc) || len(stack) < in.Argc {
				return 0, newError(ArityMismatch, in.Pos, in.Name)
			}
			base := len(stack) - in.Argc
			v, err := apply(fn.Apply, stack[base:], in.Pos, in.Name)
			if err != nil {
				return 0, err
			}
			stack = append(stack[:base], v)

		default:
			return 0, newError(UnexpectedToken, in.Pos, "")
		}
	}

	if len(stack) != 1 {
		return 0, &Error{Kind: ArityMismatch, Pos: -1, Reason: "operand stack holds " + strconv.Itoa(len(stack)) + " values"}
	}
	return stack[0], nil
}

// apply runs fn and maps non-finite results to errors. Errors from fn get
// the instruction position when they carry none.
func apply(fn func([]float64) (float64, error), args []float64, pos int, symbol string) (float64, error) {
	v, err := fn(args)
	if err != nil {
		if ce, ok := err.(*Error); ok && ce.Pos < 0 {
			located := *ce
			located.Pos = pos
			return 0, &located
		}
		return 0, err
	}
	switch {
	case math.IsNaN(v):
		return 0, newError(Domain, pos, symbol)
	case math.IsInf(v, 0):
		return 0, newError(NumericOverflow, pos, symbol)
	}
	return v, nil
}

// Eval parses and evaluates input.
func (c *Context) Eval(input string) (float64, error) {
	prog, err := c.Parse(input)
	if err != nil {
		return 0, err
	}
	return c.Evaluate(prog)
}

// Eval evaluates input against the default Context.
func Eval(input string) (float64, error) {
	return Default().Eval(input)
}
