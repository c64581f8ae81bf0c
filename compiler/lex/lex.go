package lex

import (
	"fmt"
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/jackc/compiler/token"
)

type (
	// Tokenizer splits source text into tokens one at a time.
	// It is driven like bufio.Scanner: Scan, then Token, and Err once Scan returns false.
	Tokenizer struct {
		b []byte
		i int

		line int
		bol  int // offset of the current line start

		tok token.Token
		err error
	}

	Error struct {
		Pos token.Pos
		Msg string
	}
)

func New(text []byte) *Tokenizer {
	return &Tokenizer{
		b:    text,
		line: 1,
	}
}

// All tokenizes the whole text.
func All(text []byte) (l []token.Token, err error) {
	t := New(text)

	for t.Scan() {
		l = append(l, t.Token())
	}

	if err = t.Err(); err != nil {
		return nil, err
	}

	return l, nil
}

func (t *Tokenizer) Token() token.Token { return t.tok }

func (t *Tokenizer) Err() error { return t.err }

// Pos is the position of the next unread byte.
func (t *Tokenizer) Pos() token.Pos {
	return t.pos(t.i)
}

func (t *Tokenizer) Scan() bool {
	if t.err != nil {
		return false
	}

	t.err = t.skip()
	if t.err != nil {
		return false
	}

	if t.i == len(t.b) {
		t.tok = token.Token{Kind: token.EOF, Pos: t.pos(t.i)}
		return false
	}

	t.tok, t.err = t.next()

	return t.err == nil
}

func (t *Tokenizer) next() (tk token.Token, err error) {
	st := t.i
	tk.Pos = t.pos(st)

	c := t.b[st]

	switch {
	case token.IsSymbol(c):
		t.i++

		tk.Kind = token.Symbol
		tk.Text = string(c)
	case c == '"':
		e := st + 1
		for e < len(t.b) && t.b[e] != '"' && t.b[e] != '\n' {
			e++
		}

		if e == len(t.b) || t.b[e] == '\n' {
			return tk, t.errorf(st, "unterminated string constant")
		}

		t.i = e + 1

		tk.Kind = token.StringConst
		tk.Text = string(t.b[st+1 : e])
	case c >= '0' && c <= '9':
		e := skipNum(t.b, st)
		if e < len(t.b) && isIdentChar(t.b[e]) {
			return tk, t.errorf(st, "bad number: %q", t.b[st:skipIdent(t.b, e)])
		}

		v, err := strconv.Atoi(string(t.b[st:e]))
		if err != nil || v > token.MaxInt {
			return tk, t.errorf(st, "integer constant out of range: %s", t.b[st:e])
		}

		t.i = e

		tk.Kind = token.IntConst
		tk.Text = string(t.b[st:e])
		tk.Int = v
	case isIdentStart(c):
		e := skipIdent(t.b, st)
		t.i = e

		tk.Text = string(t.b[st:e])
		tk.Kind = token.Identifier

		if token.IsKeyword(tk.Text) {
			tk.Kind = token.Keyword
		}
	default:
		return tk, t.errorf(st, "unexpected character: %q", c)
	}

	return tk, nil
}

// skip skips spaces and comments.
func (t *Tokenizer) skip() error {
	for t.i < len(t.b) {
		c := t.b[t.i]

		switch {
		case c == '\n':
			t.i++
			t.newline()
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			t.i++
		case c == '/' && t.i+1 < len(t.b) && t.b[t.i+1] == '/':
			for t.i < len(t.b) && t.b[t.i] != '\n' {
				t.i++
			}
		case c == '/' && t.i+1 < len(t.b) && t.b[t.i+1] == '*':
			pos := t.pos(t.i)
			t.i += 2

			for {
				if t.i+1 >= len(t.b) {
					t.i = len(t.b)
					return Error{Pos: pos, Msg: "unterminated comment"}
				}

				if t.b[t.i] == '*' && t.b[t.i+1] == '/' {
					t.i += 2
					break
				}

				if t.b[t.i] == '\n' {
					t.i++
					t.newline()

					continue
				}

				t.i++
			}
		default:
			return nil
		}
	}

	return nil
}

func (t *Tokenizer) newline() {
	t.line++
	t.bol = t.i
}

func (t *Tokenizer) pos(i int) token.Pos {
	return token.Pos{Line: t.line, Col: i - t.bol + 1}
}

func (t *Tokenizer) errorf(st int, format string, args ...any) error {
	return Error{
		Pos: t.pos(st),
		Msg: fmt.Sprintf(format, args...),
	}
}

func (e Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Is reports whether err is a lexical error.
func Is(err error) bool {
	var e Error
	return errors.As(err, &e)
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && isIdentChar(b[i]) {
		i++
	}

	return i
}

func skipNum(b []byte, i int) int {
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	return i
}
