package vm

import (
	"strings"

	"github.com/nikandfor/hacked/hfmt"
)

type (
	Segment string

	Command string

	Code int

	// Emitter receives abstract stack machine operations.
	Emitter interface {
		Push(seg Segment, i int)
		Pop(seg Segment, i int)
		Arithmetic(cmd Command)
		Label(name string)
		Goto(name string)
		IfGoto(name string)
		Call(name string, nargs int)
		Function(name string, nlocals int)
		Return()
	}

	Op struct {
		Code    Code
		Segment Segment
		Command Command
		Name    string
		N       int // index, argument count or locals count
	}

	// Writer renders operations as VM text, one per line.
	Writer struct {
		b []byte
	}

	// Recorder keeps operations in memory.
	Recorder struct {
		Ops []Op
	}
)

const (
	Const   Segment = "constant"
	Arg     Segment = "argument"
	Local   Segment = "local"
	Static  Segment = "static"
	This    Segment = "this"
	That    Segment = "that"
	Pointer Segment = "pointer"
	Temp    Segment = "temp"
)

const (
	Add        Command = "add"
	Sub        Command = "sub"
	Neg        Command = "neg"
	Eq         Command = "eq"
	Gt         Command = "gt"
	Lt         Command = "lt"
	And        Command = "and"
	Or         Command = "or"
	Not        Command = "not"
	ShiftLeft  Command = "shiftleft"
	ShiftRight Command = "shiftright"
)

const (
	OpPush Code = iota
	OpPop
	OpArithmetic
	OpLabel
	OpGoto
	OpIfGoto
	OpCall
	OpFunction
	OpReturn
)

func AppendOp(b []byte, op Op) []byte {
	switch op.Code {
	case OpPush:
		return hfmt.Appendf(b, "push %s %d\n", op.Segment, op.N)
	case OpPop:
		return hfmt.Appendf(b, "pop %s %d\n", op.Segment, op.N)
	case OpArithmetic:
		return hfmt.Appendf(b, "%s\n", op.Command)
	case OpLabel:
		return hfmt.Appendf(b, "label %s\n", op.Name)
	case OpGoto:
		return hfmt.Appendf(b, "goto %s\n", op.Name)
	case OpIfGoto:
		return hfmt.Appendf(b, "if-goto %s\n", op.Name)
	case OpCall:
		return hfmt.Appendf(b, "call %s %d\n", op.Name, op.N)
	case OpFunction:
		return hfmt.Appendf(b, "function %s %d\n", op.Name, op.N)
	case OpReturn:
		return append(b, "return\n"...)
	default:
		panic(op.Code)
	}
}

func (op Op) String() string {
	b := AppendOp(nil, op)
	return string(b[:len(b)-1])
}

// Emit sends op to e.
func (op Op) Emit(e Emitter) {
	switch op.Code {
	case OpPush:
		e.Push(op.Segment, op.N)
	case OpPop:
		e.Pop(op.Segment, op.N)
	case OpArithmetic:
		e.Arithmetic(op.Command)
	case OpLabel:
		e.Label(op.Name)
	case OpGoto:
		e.Goto(op.Name)
	case OpIfGoto:
		e.IfGoto(op.Name)
	case OpCall:
		e.Call(op.Name, op.N)
	case OpFunction:
		e.Function(op.Name, op.N)
	case OpReturn:
		e.Return()
	default:
		panic(op.Code)
	}
}

func NewWriter(b []byte) *Writer {
	return &Writer{b: b}
}

func (w *Writer) Bytes() []byte { return w.b }

func (w *Writer) Reset() { w.b = w.b[:0] }

func (w *Writer) op(op Op) { w.b = AppendOp(w.b, op) }

func (w *Writer) Push(seg Segment, i int) { w.op(Op{Code: OpPush, Segment: seg, N: i}) }
func (w *Writer) Pop(seg Segment, i int)  { w.op(Op{Code: OpPop, Segment: seg, N: i}) }

func (w *Writer) Arithmetic(cmd Command) { w.op(Op{Code: OpArithmetic, Command: cmd}) }

func (w *Writer) Label(name string)  { w.op(Op{Code: OpLabel, Name: name}) }
func (w *Writer) Goto(name string)   { w.op(Op{Code: OpGoto, Name: name}) }
func (w *Writer) IfGoto(name string) { w.op(Op{Code: OpIfGoto, Name: name}) }

func (w *Writer) Call(name string, nargs int)       { w.op(Op{Code: OpCall, Name: name, N: nargs}) }
func (w *Writer) Function(name string, nlocals int) { w.op(Op{Code: OpFunction, Name: name, N: nlocals}) }

func (w *Writer) Return() { w.op(Op{Code: OpReturn}) }

func (r *Recorder) op(op Op) { r.Ops = append(r.Ops, op) }

func (r *Recorder) Push(seg Segment, i int) { r.op(Op{Code: OpPush, Segment: seg, N: i}) }
func (r *Recorder) Pop(seg Segment, i int)  { r.op(Op{Code: OpPop, Segment: seg, N: i}) }

func (r *Recorder) Arithmetic(cmd Command) { r.op(Op{Code: OpArithmetic, Command: cmd}) }

func (r *Recorder) Label(name string)  { r.op(Op{Code: OpLabel, Name: name}) }
func (r *Recorder) Goto(name string)   { r.op(Op{Code: OpGoto, Name: name}) }
func (r *Recorder) IfGoto(name string) { r.op(Op{Code: OpIfGoto, Name: name}) }

func (r *Recorder) Call(name string, nargs int)       { r.op(Op{Code: OpCall, Name: name, N: nargs}) }
func (r *Recorder) Function(name string, nlocals int) { r.op(Op{Code: OpFunction, Name: name, N: nlocals}) }

func (r *Recorder) Return() { r.op(Op{Code: OpReturn}) }

// Replay emits recorded operations to e in order.
func (r *Recorder) Replay(e Emitter) {
	for _, op := range r.Ops {
		op.Emit(e)
	}
}

// Lines returns recorded operations as VM text lines.
func (r *Recorder) Lines() []string {
	l := make([]string, len(r.Ops))

	for i, op := range r.Ops {
		l[i] = op.String()
	}

	return l
}

func (r *Recorder) String() string {
	return strings.Join(r.Lines(), "\n")
}
