package engine

import (
	"fmt"

	"tlog.app/go/loc"

	"github.com/slowlang/jackc/compiler/token"
)

type (
	// SyntaxError is returned when the current token matches no production
	// expected at this point. Premature end of input is a SyntaxError with an EOF token.
	SyntaxError struct {
		Want string
		Got  token.Token

		From loc.PC // compiler call site
	}

	UnresolvedSymbolError struct {
		Name       string
		Subroutine string
		Pos        token.Pos
	}
)

func NewSyntaxError(want string, got token.Token) SyntaxError {
	return SyntaxError{
		Want: want,
		Got:  got,
		From: loc.Caller(1),
	}
}

func (e SyntaxError) EOF() bool {
	return e.Got.Kind == token.EOF
}

func (e SyntaxError) Error() string {
	if e.EOF() {
		return fmt.Sprintf("%v: unexpected end of input, want %v", e.Got.Pos, e.Want)
	}

	return fmt.Sprintf("%v: unexpected %v, want %v", e.Got.Pos, e.Got, e.Want)
}

func (e UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("%v: undefined: %v (in %v)", e.Pos, e.Name, e.Subroutine)
}
