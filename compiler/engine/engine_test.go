package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/jackc/compiler/lex"
	"github.com/slowlang/jackc/compiler/symtab"
	"github.com/slowlang/jackc/compiler/token"
	"github.com/slowlang/jackc/compiler/vm"
)

func compile(t *testing.T, src string) ([]string, error) {
	t.Helper()

	var r vm.Recorder

	e := New(lex.New([]byte(src)), symtab.New(), &r)
	err := e.CompileClass(context.Background())

	return r.Lines(), err
}

func code(l ...string) []string { return l }

func TestCallArgCount(t *testing.T) {
	got, err := compile(t, `
class Main {
	function void main() {
		var Obj obj;

		do Foo.bar(1, 2);
		do obj.bar(1);
		do bar(1);

		return;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.main 1",
		"push constant 1",
		"push constant 2",
		"call Foo.bar 2",
		"pop temp 0",
		"push local 0",
		"push constant 1",
		"call Obj.bar 2",
		"pop temp 0",
		"push pointer 0",
		"push constant 1",
		"call Main.bar 2",
		"pop temp 0",
		"push constant 0",
		"return",
	), got)
}

func TestExpressionLowering(t *testing.T) {
	got, err := compile(t, `
class Main {
	function int f() {
		return 1 + 2 * 3;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.f 0",
		"push constant 1",
		"push constant 2",
		"push constant 3",
		"call Math.multiply 2",
		"add",
		"return",
	), got)
}

func TestExpressionPrecedence(t *testing.T) {
	got, err := compile(t, `
class Main {
	function int f() {
		return 1 - 2 * 3;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.f 0",
		"push constant 1",
		"push constant 2",
		"push constant 3",
		"call Math.multiply 2",
		"sub",
		"return",
	), got)
}

func TestExpressionLeftToRight(t *testing.T) {
	got, err := compile(t, `
class Main {
	function int f(int a, int b) {
		return a - b - 1 / -a < ~b;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.f 0",
		"push argument 0",
		"push argument 1",
		"sub",
		"push constant 1",
		"push argument 0",
		"neg",
		"call Math.divide 2",
		"sub",
		"push argument 1",
		"not",
		"lt",
		"return",
	), got)
}

func TestUnary(t *testing.T) {
	got, err := compile(t, `
class Main {
	function int f(int a) {
		return -(a & 1) | ~~a + ^a - #(a);
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.f 0",
		"push argument 0",
		"push constant 1",
		"and",
		"neg",
		"push argument 0",
		"not",
		"not",
		"or",
		"push argument 0",
		"shiftleft",
		"add",
		"push argument 0",
		"shiftright",
		"sub",
		"return",
	), got)
}

func TestIndexedLet(t *testing.T) {
	got, err := compile(t, `
class Main {
	function void main() {
		var Array arr;
		let arr[1] = 9;
		return;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.main 1",
		"push constant 1",
		"push local 0",
		"add",
		"push constant 9",
		"pop temp 0",
		"pop pointer 1",
		"push temp 0",
		"pop that 0",
		"push constant 0",
		"return",
	), got)
}

func TestIndexedTerm(t *testing.T) {
	got, err := compile(t, `
class Main {
	static Array a;
	function int get(int i) {
		return a[i + 1];
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.get 0",
		"push argument 0",
		"push constant 1",
		"add",
		"push static 0",
		"add",
		"pop pointer 1",
		"push that 0",
		"return",
	), got)
}

func TestConstructorPrologue(t *testing.T) {
	got, err := compile(t, `
class Point {
	field int x, y;
	field Point next;
	static int count;

	constructor Point new(int ax, int ay) {
		let x = ax;
		let y = ay;
		let count = count + 1;
		return this;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Point.new 0",
		"push constant 3",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push argument 0",
		"pop this 0",
		"push argument 1",
		"pop this 1",
		"push static 0",
		"push constant 1",
		"add",
		"pop static 0",
		"push pointer 0",
		"return",
	), got)
}

func TestMethodPrologue(t *testing.T) {
	got, err := compile(t, `
class Point {
	field int x;

	method int plus(int d) {
		var int r;
		let r = x + d;
		return r;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Point.plus 1",
		"push argument 0",
		"pop pointer 0",
		"push this 0",
		"push argument 1",
		"add",
		"pop local 0",
		"push local 0",
		"return",
	), got)
}

func TestLabels(t *testing.T) {
	got, err := compile(t, `
class Main {
	function void a(boolean c) {
		while (c) {
			if (c) {
				let c = false;
			}
		}
		while (c) { }
		if (c) { } else { let c = true; }
		return;
	}

	function void b(boolean c) {
		while (c) { }
		if (c) { }
		return;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.a 0",
		"label WHILE_EXP0",
		"push argument 0",
		"not",
		"if-goto WHILE_END0",
		"push argument 0",
		"if-goto IF_TRUE0",
		"goto IF_FALSE0",
		"label IF_TRUE0",
		"push constant 0",
		"pop argument 0",
		"label IF_FALSE0",
		"goto WHILE_EXP0",
		"label WHILE_END0",
		"label WHILE_EXP1",
		"push argument 0",
		"not",
		"if-goto WHILE_END1",
		"goto WHILE_EXP1",
		"label WHILE_END1",
		"push argument 0",
		"if-goto IF_TRUE1",
		"goto IF_FALSE1",
		"label IF_TRUE1",
		"goto IF_END1",
		"label IF_FALSE1",
		"push constant 0",
		"not",
		"pop argument 0",
		"label IF_END1",
		"push constant 0",
		"return",

		"function Main.b 0",
		"label WHILE_EXP0",
		"push argument 0",
		"not",
		"if-goto WHILE_END0",
		"goto WHILE_EXP0",
		"label WHILE_END0",
		"push argument 0",
		"if-goto IF_TRUE0",
		"goto IF_FALSE0",
		"label IF_TRUE0",
		"label IF_FALSE0",
		"push constant 0",
		"return",
	), got)
}

func TestStringConstant(t *testing.T) {
	got, err := compile(t, `
class Main {
	function String s() {
		return "Hi!";
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.s 0",
		"push constant 3",
		"call String.new 1",
		"push constant 72",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
		"push constant 33",
		"call String.appendChar 2",
		"return",
	), got)
}

func TestKeywordConstants(t *testing.T) {
	got, err := compile(t, `
class Main {
	method void k() {
		do Out.p(true, false, null, this);
		return;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.k 0",
		"push argument 0",
		"pop pointer 0",
		"push constant 0",
		"not",
		"push constant 0",
		"push constant 0",
		"push pointer 0",
		"call Out.p 4",
		"pop temp 0",
		"push constant 0",
		"return",
	), got)
}

func TestCallInExpression(t *testing.T) {
	got, err := compile(t, `
class List {
	field List next;

	method int len() {
		if (next = null) {
			return 1;
		}
		return 1 + next.len() + size(Math.max(2, 3));
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function List.len 0",
		"push argument 0",
		"pop pointer 0",
		"push this 0",
		"push constant 0",
		"eq",
		"if-goto IF_TRUE0",
		"goto IF_FALSE0",
		"label IF_TRUE0",
		"push constant 1",
		"return",
		"label IF_FALSE0",
		"push constant 1",
		"push this 0",
		"call List.len 1",
		"add",
		"push pointer 0",
		"push constant 2",
		"push constant 3",
		"call Math.max 2",
		"call List.size 2",
		"add",
		"return",
	), got)
}

func TestShadowedField(t *testing.T) {
	got, err := compile(t, `
class Main {
	field int x;

	method void a() {
		var int x;
		let x = 1;
		return;
	}

	method void b() {
		let x = 2;
		return;
	}
}`)
	require.NoError(t, err)

	assert.Equal(t, code(
		"function Main.a 1",
		"push argument 0",
		"pop pointer 0",
		"push constant 1",
		"pop local 0",
		"push constant 0",
		"return",
		"function Main.b 0",
		"push argument 0",
		"pop pointer 0",
		"push constant 2",
		"pop this 0",
		"push constant 0",
		"return",
	), got)
}

func TestRuntimeNames(t *testing.T) {
	var r vm.Recorder

	e := New(lex.New([]byte(`class A { constructor A new() { return "x" * 2; } }`)), symtab.New(), &r)
	e.Runtime = Runtime{
		Alloc:      "Sys.alloc",
		Multiply:   "Sys.mul",
		Divide:     "Sys.div",
		StringNew:  "Str.make",
		AppendChar: "Str.push",
	}

	err := e.CompileClass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, code(
		"function A.new 0",
		"push constant 0",
		"call Sys.alloc 1",
		"pop pointer 0",
		"push constant 1",
		"call Str.make 1",
		"push constant 120",
		"call Str.push 2",
		"push constant 2",
		"call Sys.mul 2",
		"return",
	), r.Lines())
	assert.Equal(t, "A", e.Class())
}

func TestUnresolvedSymbol(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		last string // last emitted operation
	}{
		{"rvalue", "let x = 1; let x = y + 1;", "pop local 0"},
		{"lvalue", "let x = 1; let y = 1;", "pop local 0"},
		{"array_lvalue", "let x = 1; let y[0] = 1;", "pop local 0"},
		{"array_rvalue", "do F.g(x, y[0]);", "push local 0"},
		{"do_arg", "do F.g(1, y);", "push constant 1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := compile(t, "class Main { function void main() { var int x; "+tc.body+" return; } }")

			var unres UnresolvedSymbolError
			require.ErrorAs(t, err, &unres)

			assert.Equal(t, "y", unres.Name)
			assert.Equal(t, "Main.main", unres.Subroutine)
			assert.Equal(t, tc.last, got[len(got)-1])
		})
	}
}

func TestUnresolvedReceiverIsClass(t *testing.T) {
	got, err := compile(t, `class Main { function void main() { do Screen.clear(); return; } }`)
	require.NoError(t, err)

	assert.Contains(t, got, "call Screen.clear 0")
}

func TestSyntaxErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want string
		eof  bool
	}{
		{"no_class", "function void f() {}", "class", false},
		{"no_close_paren", "class A { function void f() { if (1 { } return; } }", "')'", false},
		{"bad_term", "class A { function void f() { return ; + ; } }", "'}'", false},
		{"bad_operand", "class A { function void f() { return 1 + ; } }", "term", false},
		{"keyword_term", "class A { function void f() { return let; } }", "term", false},
		{"do_not_call", "class A { function void f() { do x; } }", "'(' or '.'", false},
		{"no_semicolon", "class A { field int x function void f() { return; } }", "';'", false},
		{"bad_type", "class A { field 1 x; }", "type", false},
		{"bad_return_type", "class A { function 1 f() {} }", "return type", false},
		{"trailing", "class A { } class B { }", "end of input", false},
		{"eof", "class A { function void f() { return", "term", true},
		{"eof_class", "class A {", "'}'", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compile(t, tc.src)

			var serr SyntaxError
			require.ErrorAs(t, err, &serr)

			assert.Equal(t, tc.want, serr.Want)
			assert.Equal(t, tc.eof, serr.EOF())
			assert.NotZero(t, serr.From)
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := compile(t, "class A {\n  field int 5;\n}")
	require.Error(t, err)

	assert.True(t, strings.Contains(err.Error(), "2:13: unexpected integerConstant 5, want variable name"), "%v", err)
}

func TestDuplicateSymbol(t *testing.T) {
	_, err := compile(t, `class A { field int x; static boolean x; }`)

	var dup symtab.DuplicateSymbolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "x", dup.Name)

	_, err = compile(t, `class A { method void f(int a) { var int a; return; } }`)
	require.ErrorAs(t, err, &dup)

	_, err = compile(t, `class A { field int a; method void f(int a) { return; } }`)
	require.NoError(t, err)
}

func TestLexError(t *testing.T) {
	_, err := compile(t, `class A { function void f() { return 99999; } }`)
	require.Error(t, err)
	assert.True(t, lex.Is(err))
}

func TestStringCharRange(t *testing.T) {
	_, err := compile(t, "class A { function String f() { return \"a\U0001F600\"; } }")
	require.Error(t, err)
	assert.True(t, lex.Is(err), "%v", err)

	got, err := compile(t, "class A { function String f() { return \"\u00e9\"; } }")
	require.NoError(t, err)
	assert.Contains(t, got, "push constant 233")
}

type tokens struct {
	l []token.Token
	i int
}

func (s *tokens) Scan() bool {
	if s.i == len(s.l) {
		return false
	}

	s.i++

	return true
}

func (s *tokens) Token() token.Token { return s.l[s.i-1] }
func (s *tokens) Err() error         { return nil }

func TestScannerInterface(t *testing.T) {
	l, err := lex.All([]byte(`class A { function int f() { return 7; } }`))
	require.NoError(t, err)

	var r vm.Recorder

	e := New(&tokens{l: l}, symtab.New(), &r)
	err = e.CompileClass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, code("function A.f 0", "push constant 7", "return"), r.Lines())
}

func TestScannerEmpty(t *testing.T) {
	var r vm.Recorder

	e := New(&tokens{}, symtab.New(), &r)
	err := e.CompileClass(context.Background())

	var serr SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.EOF())
	assert.Empty(t, r.Ops)
}
