package symtab

import (
	"fmt"
	"sort"

	"tlog.app/go/errors"
)

type (
	Kind int

	Scope int

	Symbol struct {
		Name  string
		Type  string
		Kind  Kind
		Index int
	}

	// Table holds two nested scopes: the class scope (Static, Field)
	// lives for the whole class, the subroutine scope (Arg, Local) is reset
	// by StartSubroutine.
	Table struct {
		// AllowRedefine makes Define overwrite an existing name of the same scope
		// instead of failing. The redefined name takes a fresh slot.
		AllowRedefine bool

		vars  [kinds]map[string]Symbol
		count [kinds]int
	}

	DuplicateSymbolError struct {
		Name string
		Prev Symbol
	}
)

const (
	None Kind = iota
	Static
	Field
	Arg
	Local

	kinds
)

const (
	ClassScope Scope = iota
	SubroutineScope
)

// resolveOrder is the lookup precedence: subroutine scope shadows class scope.
var resolveOrder = [...]Kind{Local, Arg, Static, Field}

func New() *Table {
	t := &Table{}

	for k := Static; k < kinds; k++ {
		t.vars[k] = make(map[string]Symbol)
	}

	return t
}

// StartSubroutine clears Arg and Local symbols, class scope is untouched.
func (t *Table) StartSubroutine() {
	for _, k := range []Kind{Arg, Local} {
		t.vars[k] = make(map[string]Symbol)
		t.count[k] = 0
	}
}

func (t *Table) Define(name, typ string, k Kind) (Symbol, error) {
	if !k.Valid() {
		return Symbol{}, errors.New("bad symbol kind: %v", k)
	}

	if !t.AllowRedefine {
		for _, sk := range k.Scope().Kinds() {
			if prev, ok := t.vars[sk][name]; ok {
				return Symbol{}, DuplicateSymbolError{Name: name, Prev: prev}
			}
		}
	}

	s := Symbol{
		Name:  name,
		Type:  typ,
		Kind:  k,
		Index: t.count[k],
	}

	t.count[k]++
	t.vars[k][name] = s

	return s, nil
}

// VarCount returns the number of k symbols defined since the scope was started.
func (t *Table) VarCount(k Kind) int {
	if !k.Valid() {
		return 0
	}

	return t.count[k]
}

func (t *Table) Resolve(name string) (Symbol, bool) {
	for _, k := range resolveOrder {
		if s, ok := t.vars[k][name]; ok {
			return s, true
		}
	}

	return Symbol{}, false
}

// KindOf returns None if name is not defined.
func (t *Table) KindOf(name string) Kind {
	s, _ := t.Resolve(name)
	return s.Kind
}

func (t *Table) TypeOf(name string) string {
	s, _ := t.Resolve(name)
	return s.Type
}

// IndexOf returns -1 if name is not defined.
func (t *Table) IndexOf(name string) int {
	s, ok := t.Resolve(name)
	if !ok {
		return -1
	}

	return s.Index
}

// Symbols returns symbols of kind k ordered by slot.
func (t *Table) Symbols(k Kind) []Symbol {
	if !k.Valid() {
		return nil
	}

	l := make([]Symbol, 0, len(t.vars[k]))

	for _, s := range t.vars[k] {
		l = append(l, s)
	}

	sort.Slice(l, func(i, j int) bool {
		return l[i].Index < l[j].Index
	})

	return l
}

func (k Kind) Valid() bool {
	return k > None && k < kinds
}

func (k Kind) Scope() Scope {
	if k == Arg || k == Local {
		return SubroutineScope
	}

	return ClassScope
}

func (s Scope) Kinds() []Kind {
	if s == SubroutineScope {
		return []Kind{Arg, Local}
	}

	return []Kind{Static, Field}
}

func (k Kind) String() string {
	switch k {
	case None:
		return "NONE"
	case Static:
		return "STATIC"
	case Field:
		return "FIELD"
	case Arg:
		return "ARG"
	case Local:
		return "LOCAL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (s Scope) String() string {
	if s == SubroutineScope {
		return "subroutine"
	}

	return "class"
}

func (e DuplicateSymbolError) Error() string {
	return fmt.Sprintf("%v already defined in %v scope as %v %v", e.Name, e.Prev.Kind.Scope(), e.Prev.Kind, e.Prev.Type)
}
