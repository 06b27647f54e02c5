package calc

import (
	"errors"
	"iter"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TokenType is the lexical class of a Token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenIdent
)

func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenNumber:
		return "(number)"
	case TokenOperator:
		return "(operator)"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenComma:
		return ","
	case TokenIdent:
		return "(name)"
	}
	return "(unknown)"
}

// Token is a single lexical unit. Value is set for numbers only; Text holds
// the operator symbol (normalized to ASCII), identifier name or literal text.
type Token struct {
	Type  TokenType
	Text  string
	Value float64
	Pos   int
}

// operatorRunes maps every accepted operator rune to its canonical symbol.
var operatorRunes = map[rune]string{
	'+': "+",
	'-': "-",
	'*': "*",
	'/': "/",
	'^': "^",
	'%': "%",
	'!': "!",
	'×': "*",
	'÷': "/",
	'−': "-",
}

// Lexer scans an expression one token at a time. The zero position is the
// start of input; Next returns TokenEOF forever once input is exhausted.
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a Lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Reset rewinds the lexer to the start of its input.
func (l *Lexer) Reset() {
	l.pos = 0
}

// Next returns the next token or a lex error.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	if r == utf8.RuneError && w <= 1 {
		return Token{}, &Error{Kind: InvalidCharacter, Pos: start, Reason: "invalid UTF-8"}
	}

	switch {
	case r == '(':
		l.pos += w
		return Token{Type: TokenLeftParen, Text: "(", Pos: start}, nil
	case r == ')':
		l.pos += w
		return Token{Type: TokenRightParen, Text: ")", Pos: start}, nil
	case r == ',':
		l.pos += w
		return Token{Type: TokenComma, Text: ",", Pos: start}, nil
	case isDigit(r) || r == '.':
		return l.scanNumber()
	case isIdentStart(r):
		return l.scanIdent(), nil
	}

	if sym, ok := operatorRunes[r]; ok {
		l.pos += w
		return Token{Type: TokenOperator, Text: sym, Pos: start}, nil
	}
	return Token{}, &Error{Kind: InvalidCharacter, Pos: start, Symbol: string(r)}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, w := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += w
	}
}

// scanNumber reads digits [. digits] [(e|E) [+-] digits]. A lone "." is not a number.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos
	digits := l.acceptDigits()
	if l.peek() == '.' {
		l.pos++
		digits += l.acceptDigits()
	}
	if digits == 0 {
		return Token{}, &Error{Kind: InvalidNumber, Pos: start, Symbol: l.input[start:l.pos]}
	}

	// Only consume an exponent when digits follow, so "2e" leaves "e" as a name.
	if c := l.peek(); c == 'e' || c == 'E' {
		mark := l.pos
		l.pos++
		if c := l.peek(); c == '+' || c == '-' {
			l.pos++
		}
		if l.acceptDigits() == 0 {
			l.pos = mark
		}
	}

	text := l.input[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		reason := "malformed literal"
		if errors.Is(err, strconv.ErrRange) {
			reason = "out of range"
		}
		return Token{}, &Error{Kind: InvalidNumber, Pos: start, Symbol: text, Reason: reason}
	}
	return Token{Type: TokenNumber, Text: text, Value: v, Pos: start}, nil
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if !isIdentStart(rune(c)) && !isDigit(rune(c)) {
			break
		}
		l.pos++
	}
	return Token{Type: TokenIdent, Text: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) acceptDigits() int {
	n := 0
	for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
		l.pos++
		n++
	}
	return n
}

func (l *Lexer) peek() byte {
	if l.pos < len(l.input) {
		return l.input[l.pos]
	}
	return 0
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Tokens returns a lazy token sequence for input. Each range over the
// sequence rescans from the start. Iteration stops after the first error,
// which is yielded with a zero Token; TokenEOF is never yielded.
func Tokens(input string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l := NewLexer(input)
		for {
			tok, err := l.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if tok.Type == TokenEOF {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// Tokenize collects all tokens of input.
func Tokenize(input string) ([]Token, error) {
	var out []Token
	for tok, err := range Tokens(input) {
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}
