// Package calc parses and evaluates infix arithmetic expressions.
//
// The pipeline has three stages. Tokens scans the input lazily, a Converter
// reorders the tokens into a postfix Program with the shunting-yard
// algorithm, and a Context evaluates the Program against its table of
// operators, functions and constants:
//
//	prog, err := calc.Default().Parse("2 + 3 * 4")
//	v, err := calc.Default().Evaluate(prog) // 14
//
// Every stage fails with *Error; compare against the Err* sentinels with
// errors.Is. All stages are free of shared mutable state.
package calc
