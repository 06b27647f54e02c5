package calc

import "iter"

// OperatorTable resolves an operator symbol in a given fixity.
type OperatorTable interface {
	Operator(symbol string, fixity Fixity) (*Operator, bool)
}

type itemKind uint8

const (
	itemOperator itemKind = iota + 1
	itemParen
	itemCall
)

// stackItem is an entry of the converter's operator stack. A paren opened by
// a call counts the commas seen inside it.
type stackItem struct {
	kind   itemKind
	op     *Operator
	name   string
	pos    int
	call   bool
	commas int
}

// Converter turns a token sequence into a postfix Program with the
// shunting-yard algorithm.
type Converter struct {
	ops OperatorTable
}

// NewConverter returns a Converter resolving operators through ops.
func NewConverter(ops OperatorTable) *Converter {
	return &Converter{ops: ops}
}

// Convert consumes the whole sequence. Lex errors from the sequence are
// returned unchanged.
func (c *Converter) Convert(tokens iter.Seq2[Token, error]) (Program, error) {
	var toks []Token
	for tok, err := range tokens {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	if len(toks) == 0 {
		return nil, newError(EmptyExpression, 0, "")
	}

	var (
		out           Program
		stack         []stackItem
		expectOperand = true
	)

	// popOperators moves operators to the output while keep reports false.
	popOperators := func(keep func(top *Operator) bool) {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.kind != itemOperator || keep(top.op) {
				return
			}
			out = append(out, Instr{Op: OpOperator, Operator: top.op, Pos: top.pos})
			stack = stack[:len(stack)-1]
		}
	}
	// drainToParen pops every operator above the innermost paren and
	// returns that paren's index, or -1 if there is none.
	drainToParen := func() int {
		popOperators(func(*Operator) bool { return false })
		if len(stack) == 0 {
			return -1
		}
		return len(stack) - 1
	}

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Type {
		case TokenNumber:
			if !expectOperand {
				return nil, newError(UnexpectedToken, tok.Pos, tok.Text)
			}
			out = append(out, Instr{Op: OpNumber, Value: tok.Value, Pos: tok.Pos})
			expectOperand = false

		case TokenIdent:
			if !expectOperand {
				return nil, newError(UnexpectedToken, tok.Pos, tok.Text)
			}
			if i+1 < len(toks) && toks[i+1].Type == TokenLeftParen {
				stack = append(stack,
					stackItem{kind: itemCall, name: tok.Text, pos: tok.Pos},
					stackItem{kind: itemParen, call: true, pos: toks[i+1].Pos},
				)
				i++
				continue
			}
			out = append(out, Instr{Op: OpConstant, Name: tok.Text, Pos: tok.Pos})
			expectOperand = false

		case TokenLeftParen:
			if !expectOperand {
				return nil, newError(UnexpectedToken, tok.Pos, tok.Text)
			}
			stack = append(stack, stackItem{kind: itemParen, pos: tok.Pos})

		case TokenComma:
			if expectOperand {
				return nil, newError(MissingOperand, tok.Pos, tok.Text)
			}
			idx := drainToParen()
			if idx < 0 || !stack[idx].call {
				return nil, newError(UnexpectedToken, tok.Pos, tok.Text)
			}
			stack[idx].commas++
			expectOperand = true

		case TokenRightParen:
			emptyCall := false
			if expectOperand {
				top := len(stack) - 1
				if i == 0 || toks[i-1].Type != TokenLeftParen || top < 0 || !stack[top].call {
					return nil, newError(MissingOperand, tok.Pos, tok.Text)
				}
				emptyCall = true
			}
			idx := drainToParen()
			if idx < 0 {
				return nil, newError(UnbalancedParens, tok.Pos, tok.Text)
			}
			paren := stack[idx]
			stack = stack[:idx]
			if paren.call {
				fn := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				argc := paren.commas + 1
				if emptyCall {
					argc = 0
				}
				out = append(out, Instr{Op: OpCall, Name: fn.name, Argc: argc, Pos: fn.pos})
			}
			expectOperand = false

		case TokenOperator:
			if expectOperand {
				op, ok := c.ops.Operator(tok.Text, Prefix)
				if !ok {
					return nil, newError(MissingOperand, tok.Pos, tok.Text)
				}
				stack = append(stack, stackItem{kind: itemOperator, op: op, pos: tok.Pos})
				continue
			}
			if op, ok := c.ops.Operator(tok.Text, Infix); ok {
				popOperators(func(top *Operator) bool { return !binds(top, op) })
				stack = append(stack, stackItem{kind: itemOperator, op: op, pos: tok.Pos})
				expectOperand = true
				continue
			}
			if op, ok := c.ops.Operator(tok.Text, Postfix); ok {
				popOperators(func(top *Operator) bool { return !binds(top, op) })
				out = append(out, Instr{Op: OpOperator, Operator: op, Pos: tok.Pos})
				continue
			}
			return nil, newError(UnexpectedToken, tok.Pos, tok.Text)

		default:
			return nil, newError(UnexpectedToken, tok.Pos, tok.Text)
		}
	}

	if expectOperand {
		last := toks[len(toks)-1]
		return nil, newError(MissingOperand, last.Pos+len(last.Text), "")
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind != itemOperator {
			return nil, newError(UnbalancedParens, top.pos, "(")
		}
		out = append(out, Instr{Op: OpOperator, Operator: top.op, Pos: top.pos})
	}
	return out, nil
}

// binds reports whether the stacked operator top must be applied before op.
func binds(top, op *Operator) bool {
	if top.Precedence != op.Precedence {
		return top.Precedence > op.Precedence
	}
	return op.Assoc == LeftAssoc
}
