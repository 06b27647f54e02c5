package calc

import (
	"strconv"
	"strings"
)

// OpCode is the instruction type of a Program step.
type OpCode uint8

const (
	OpNumber OpCode = iota + 1
	OpConstant
	OpOperator
	OpCall
)

// Instr is one step of a Program. Which fields are set depends on Op:
// Value for OpNumber, Name for OpConstant and OpCall, Operator for
// OpOperator, Argc for OpCall.
type Instr struct {
	Op       OpCode
	Value    float64
	Name     string
	Operator *Operator
	Argc     int
	Pos      int
}

// Program is an expression in postfix order. Run left to right against an
// operand stack it leaves exactly one value.
type Program []Instr

// String renders the program in space-separated postfix notation. Prefix
// operators print as "neg"/"pos" and calls as "name/argc".
func (p Program) String() string {
	parts := make([]string, 0, len(p))
	for _, in := range p {
		switch in.Op {
		case OpNumber:
			parts = append(parts, strconv.FormatFloat(in.Value, 'g', -1, 64))
		case OpConstant:
			parts = append(parts, in.Name)
		case OpOperator:
			sym := in.Operator.Symbol
			if in.Operator.Fixity == Prefix {
				switch sym {
				case "-":
					sym = "neg"
				case "+":
					sym = "pos"
				}
			}
			parts = append(parts, sym)
		case OpCall:
			parts = append(parts, in.Name+"/"+strconv.Itoa(in.Argc))
		}
	}
	return strings.Join(parts, " ")
}
