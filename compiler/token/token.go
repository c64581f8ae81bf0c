package token

import (
	"fmt"
	"strconv"
)

type (
	Kind int

	Pos struct {
		Line int
		Col  int
	}

	Token struct {
		Kind Kind
		Text string // string constants without quotes
		Int  int    // IntConst value
		Pos  Pos
	}
)

const (
	EOF Kind = iota
	Keyword
	Symbol
	Identifier
	IntConst
	StringConst
)

// MaxInt is the largest integer constant a 16-bit stack machine word can hold.
const MaxInt = 32767

var keywords = map[string]struct{}{
	"class": {}, "constructor": {}, "function": {}, "method": {},
	"field": {}, "static": {}, "var": {},
	"int": {}, "char": {}, "boolean": {}, "void": {},
	"true": {}, "false": {}, "null": {}, "this": {},
	"let": {}, "do": {}, "if": {}, "else": {}, "while": {}, "return": {},
}

func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

func IsSymbol(c byte) bool {
	switch c {
	case '{', '}', '(', ')', '[', ']', '.', ',', ';',
		'+', '-', '*', '/', '&', '|', '<', '>', '=', '~', '^', '#':
		return true
	}

	return false
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Keyword:
		return "keyword"
	case Symbol:
		return "symbol"
	case Identifier:
		return "identifier"
	case IntConst:
		return "integerConstant"
	case StringConst:
		return "stringConstant"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && t.Text == text
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case StringConst:
		return strconv.Quote(t.Text)
	case Keyword, Symbol:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return fmt.Sprintf("%s %s", t.Kind, t.Text)
	}
}
