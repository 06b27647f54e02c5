package calc

import "math"

// Fixity is where an operator sits relative to its operands.
type Fixity uint8

const (
	Prefix Fixity = iota + 1
	Infix
	Postfix
)

// Assoc is operator associativity.
type Assoc uint8

const (
	LeftAssoc Assoc = iota + 1
	RightAssoc
)

// Precedence levels, lowest first.
const (
	AddPrecedence = iota + 1
	MultPrecedence
	NegPrecedence
	ExpPrecedence
	PostfixPrecedence
)

// Operator describes one operator symbol in one fixity. Apply receives
// exactly Arity operands, left to right.
type Operator struct {
	Symbol     string
	Fixity     Fixity
	Precedence int
	Assoc      Assoc
	Arity      int
	Apply      func(args []float64) (float64, error)
}

// Function is a named function callable with MinArgs..MaxArgs arguments.
// MaxArgs < 0 means variadic.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Apply   func(args []float64) (float64, error)
}

func (f *Function) accepts(n int) bool {
	return n >= f.MinArgs && (f.MaxArgs < 0 || n <= f.MaxArgs)
}

func binary(fn func(a, b float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) { return fn(args[0], args[1]), nil }
}

func unary(fn func(x float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) { return fn(args[0]), nil }
}

func defaultOperators() []*Operator {
	return []*Operator{
		{Symbol: "+", Fixity: Infix, Precedence: AddPrecedence, Assoc: LeftAssoc, Arity: 2,
			Apply: binary(func(a, b float64) float64 { return a + b })},
		{Symbol: "-", Fixity: Infix, Precedence: AddPrecedence, Assoc: LeftAssoc, Arity: 2,
			Apply: binary(func(a, b float64) float64 { return a - b })},
		{Symbol: "*", Fixity: Infix, Precedence: MultPrecedence, Assoc: LeftAssoc, Arity: 2,
			Apply: binary(func(a, b float64) float64 { return a * b })},
		{Symbol: "/", Fixity: Infix, Precedence: MultPrecedence, Assoc: LeftAssoc, Arity: 2,
			Apply: func(args []float64) (float64, error) {
				if args[1] == 0 {
					return 0, newError(DivisionByZero, -1, "/")
				}
				return args[0] / args[1], nil
			}},
		{Symbol: "%", Fixity: Infix, Precedence: MultPrecedence, Assoc: LeftAssoc, Arity: 2,
			Apply: func(args []float64) (float64, error) {
				if args[1] == 0 {
					return 0, newError(DivisionByZero, -1, "%")
				}
				return math.Mod(args[0], args[1]), nil
			}},
		{Symbol: "-", Fixity: Prefix, Precedence: NegPrecedence, Assoc: RightAssoc, Arity: 1,
			Apply: unary(func(x float64) float64 { return -x })},
		{Symbol: "+", Fixity: Prefix, Precedence: NegPrecedence, Assoc: RightAssoc, Arity: 1,
			Apply: unary(func(x float64) float64 { return x })},
		{Symbol: "^", Fixity: Infix, Precedence: ExpPrecedence, Assoc: RightAssoc, Arity: 2,
			Apply: binary(math.Pow)},
		{Symbol: "!", Fixity: Postfix, Precedence: PostfixPrecedence, Assoc: LeftAssoc, Arity: 1,
			Apply: factorial},
	}
}

// maxFactorial is the largest n for which n! fits in a float64.
const maxFactorial = 170

func factorial(args []float64) (float64, error) {
	n := args[0]
	if n < 0 || n != math.Trunc(n) {
		return 0, &Error{Kind: Domain, Pos: -1, Symbol: "!", Reason: "factorial needs a non-negative integer"}
	}
	if n > maxFactorial {
		return 0, newError(NumericOverflow, -1, "!")
	}
	r := 1.0
	for i := 2.0; i <= n; i++ {
		r *= i
	}
	return r, nil
}

func defaultFunctions() []*Function {
	fns := []*Function{
		{Name: "log", MinArgs: 1, MaxArgs: 2, Apply: func(args []float64) (float64, error) {
			if len(args) == 1 {
				return math.Log10(args[0]), nil
			}
			return math.Log(args[0]) / math.Log(args[1]), nil
		}},
		{Name: "atan2", MinArgs: 2, MaxArgs: 2, Apply: binary(math.Atan2)},
		{Name: "hypot", MinArgs: 2, MaxArgs: 2, Apply: binary(math.Hypot)},
		{Name: "pow", MinArgs: 2, MaxArgs: 2, Apply: binary(math.Pow)},
		{Name: "min", MinArgs: 1, MaxArgs: -1, Apply: func(args []float64) (float64, error) {
			m := args[0]
			for _, a := range args[1:] {
				m = math.Min(m, a)
			}
			return m, nil
		}},
		{Name: "max", MinArgs: 1, MaxArgs: -1, Apply: func(args []float64) (float64, error) {
			m := args[0]
			for _, a := range args[1:] {
				m = math.Max(m, a)
			}
			return m, nil
		}},
	}

	single := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"abs":   math.Abs,
		"exp":   math.Exp,
		"ln":    math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"trunc": math.Trunc,
	}
	for name, fn := range single {
		fns = append(fns, &Function{Name: name, MinArgs: 1, MaxArgs: 1, Apply: unary(fn)})
	}
	return fns
}

func defaultConstants() map[string]float64 {
	return map[string]float64{
		"pi":  math.Pi,
		"e":   math.E,
		"tau": 2 * math.Pi,
		"phi": math.Phi,
	}
}
