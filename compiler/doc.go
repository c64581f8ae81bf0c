/*

Process of compilation

Class Text ->
	lex ->
Tokens ->
	engine (parse and emit in one pass, symtab resolves names) ->
VM Operations ->
	vm.Writer ->
VM Text (.vm)

There is no syntax tree. Each class is compiled on its own
with a private symbol table, so Build compiles classes in parallel.

*/
package compiler
