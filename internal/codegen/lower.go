package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
)

// funcEmitter lowers one function's quadruple sequence to MIPS text,
// per the opcode table of spec.md §4.5. It owns the function's frame and
// register pool for the duration of the lowering.
type funcEmitter struct {
	name          string
	out           *strings.Builder
	fr            *frame
	regs          *registerPool
	epilogueLabel string
	paramIndex    int

	registerCount int
	maxCallArgs   int

	// dry, when true, suppresses text output while still performing every
	// frame allocation and pointer-tracking side effect. Used for the
	// frame-sizing prepass described in spec.md §4.5 ("S is ... discovered
	// by scanning the function's quadruples"), since the prologue's frame
	// size must be known before any instruction referencing it is emitted.
	dry bool
}

func newFuncEmitter(name string, registerCount, maxCallArgs int) *funcEmitter {
	if maxCallArgs <= 0 {
		maxCallArgs = defaultMaxCallArgs
	}
	fe := &funcEmitter{
		name:          name,
		out:           &strings.Builder{},
		fr:            newFrame(),
		epilogueLabel: ".L_" + name + "_epilogue",
		registerCount: registerCount,
		maxCallArgs:   maxCallArgs,
	}
	fe.regs = newRegisterPool(registerCount)
	return fe
}

// reset clears per-pass mutable state (registers, the current argument
// index) between the sizing prepass and the real emission pass, while
// keeping the frame populated so far.
func (fe *funcEmitter) reset() {
	fe.regs = newRegisterPool(fe.registerCount)
	fe.paramIndex = 0
}

func isConst(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func (fe *funcEmitter) emit(format string, args ...any) {
	if fe.dry {
		return
	}
	fmt.Fprintf(fe.out, "\t"+format+"\n", args...)
}

func (fe *funcEmitter) label(name string) {
	if fe.dry {
		return
	}
	fmt.Fprintf(fe.out, "%s:\n", name)
}

// loadValue loads place (a literal or a frame slot) into reg.
func (fe *funcEmitter) loadValue(reg, place string) {
	if isConst(place) {
		fe.emit("li %s, %s", reg, place)
		return
	}
	off := fe.fr.touch(place)
	fe.emit("lw %s, %d($fp)", reg, off)
}

func (fe *funcEmitter) storeValue(reg, place string) {
	off := fe.fr.touch(place)
	fe.emit("sw %s, %d($fp)", reg, off)
}

// baseAddr puts the address that name designates into reg: either the
// address of name's own slot (a plain local array/tuple) or the pointer
// value already stored in name's slot (a reference, or an array/tuple
// parameter passed by reference per spec.md §4.5 "PARAM a (array)").
func (fe *funcEmitter) baseAddr(reg, name string) {
	if fe.fr.isPointer(name) {
		off, _ := fe.fr.offsetOf(name)
		fe.emit("lw %s, %d($fp)", reg, off)
		return
	}
	off := fe.fr.touch(name)
	fe.emit("addiu %s, $fp, %d", reg, off)
}

func argReg(i int) string {
	return fmt.Sprintf("$a%d", i)
}

// emitQuad lowers one quadruple. FUNC_BEGIN/FUNC_END are handled by the
// caller (they delimit partitioning, not instructions).
func (fe *funcEmitter) emitQuad(q ir.Quad) error {
	switch q.Op {
	case ir.Assign:
		return fe.emitAssign(q)
	case ir.Add, ir.Sub, ir.Mul, ir.Div:
		return fe.emitArith(q)
	case ir.Lt, ir.Le, ir.Gt, ir.Ge, ir.Eq, ir.Ne:
		return fe.emitCompare(q)
	case ir.Label:
		fe.label(q.Arg1)
	case ir.Jump:
		fe.emit("j %s", q.Arg1)
	case ir.IfFalse:
		r, _ := fe.regs.acquire()
		fe.loadValue(r, q.Arg1)
		fe.emit("beqz %s, %s", r, q.Arg2)
		fe.regs.release(r)
	case ir.IfTrue:
		r, _ := fe.regs.acquire()
		fe.loadValue(r, q.Arg1)
		fe.emit("bnez %s, %s", r, q.Arg2)
		fe.regs.release(r)
	case ir.Param:
		return fe.emitParam(q)
	case ir.Call:
		if q.Arg1 == builtinPrint || q.Arg1 == builtinPrintln {
			return fe.emitBuiltinPrint(q)
		}
		fe.emit("jal %s", q.Arg1)
		fe.paramIndex = 0
		if q.Result != "" {
			fe.storeValue("$v0", q.Result)
		}
	case ir.Return:
		fe.emit("j %s", fe.epilogueLabel)
	case ir.ReturnVal:
		r, _ := fe.regs.acquire()
		fe.loadValue(r, q.Arg1)
		fe.emit("move $v0, %s", r)
		fe.regs.release(r)
		fe.emit("j %s", fe.epilogueLabel)
	case ir.Ref:
		return fe.emitRef(q)
	case ir.DerefLoad:
		return fe.emitDerefLoad(q)
	case ir.DerefStore:
		return fe.emitDerefStore(q)
	case ir.ArrayInit, ir.TupleInit:
		n, err := strconv.Atoi(q.Arg1)
		if err != nil {
			return compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "invalid element count %q for %s", q.Arg1, q.Result)
		}
		fe.fr.touchBlock(q.Result, n)
	case ir.ArraySet, ir.TupleSet:
		return fe.emitElementSet(q)
	case ir.ArrayLoad:
		return fe.emitElementLoad(q)
	case ir.ArrayStore:
		return fe.emitElementStore(q)
	case ir.FuncBegin, ir.FuncEnd:
		// handled by the partitioning driver
	default:
		return compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "codegen: unsupported opcode %s", q.Op)
	}
	return nil
}

func (fe *funcEmitter) emitAssign(q ir.Quad) error {
	if length, ok := fe.fr.lengthOf(q.Arg1); ok {
		// Element-wise copy of an array/tuple local, unrolled to its
		// length (spec.md §4.5: "ASSIGN src, dst (array)").
		fe.fr.touchBlock(q.Result, length)
		r, err := fe.regs.acquire()
		if err != nil {
			return err
		}
		for i := 0; i < length; i++ {
			srcOff := fe.fr.elementOffset(q.Arg1, i)
			dstOff := fe.fr.elementOffset(q.Result, i)
			fe.emit("lw %s, %d($fp)", r, srcOff)
			fe.emit("sw %s, %d($fp)", r, dstOff)
		}
		fe.regs.release(r)
		return nil
	}
	r, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.loadValue(r, q.Arg1)
	fe.storeValue(r, q.Result)
	fe.regs.release(r)
	return nil
}

func (fe *funcEmitter) emitArith(q ir.Quad) error {
	r1, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r2, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r3, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.loadValue(r1, q.Arg1)
	fe.loadValue(r2, q.Arg2)
	switch q.Op {
	case ir.Add:
		fe.emit("addu %s, %s, %s", r3, r1, r2)
	case ir.Sub:
		fe.emit("subu %s, %s, %s", r3, r1, r2)
	case ir.Mul:
		fe.emit("mul %s, %s, %s", r3, r1, r2)
	case ir.Div:
		fe.emit("div %s, %s", r1, r2)
		fe.emit("mflo %s", r3)
	}
	fe.storeValue(r3, q.Result)
	fe.regs.release(r1)
	fe.regs.release(r2)
	fe.regs.release(r3)
	return nil
}

func (fe *funcEmitter) emitCompare(q ir.Quad) error {
	r1, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r2, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r3, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.loadValue(r1, q.Arg1)
	fe.loadValue(r2, q.Arg2)
	op := map[ir.OpCode]string{
		ir.Lt: "slt", ir.Le: "sle", ir.Gt: "sgt", ir.Ge: "sge", ir.Eq: "seq", ir.Ne: "sne",
	}[q.Op]
	fe.emit("%s %s, %s, %s", op, r3, r1, r2)
	fe.storeValue(r3, q.Result)
	fe.regs.release(r1)
	fe.regs.release(r2)
	fe.regs.release(r3)
	return nil
}

// defaultMaxCallArgs is the calling-convention argument limit spec.md
// §4.5 fixes; Options.MaxCallArgs lets test harnesses shrink it.
const defaultMaxCallArgs = 4

// builtinPrint/builtinPrintln are the synthetic call targets
// internal/semantic/control.go emits for print!/println! (SPEC_FULL.md §4
// "SUPPLEMENTED FEATURES"). They never reach an actual jal/label pair:
// emitQuad lowers a CALL to either of them directly to the documented
// MARS/SPIM syscall sequence instead.
const (
	builtinPrint   = "__builtin_print"
	builtinPrintln = "__builtin_println"
)

// emitBuiltinPrint lowers CALL __builtin_print/__builtin_println, n, per
// SPEC_FULL.md §4: one syscall 1 (print integer) per argument already
// spilled into $a0.. by the preceding PARAM quads, plus a syscall 11
// (print character '\n') for println!.
func (fe *funcEmitter) emitBuiltinPrint(q ir.Quad) error {
	n, err := strconv.Atoi(q.Arg2)
	if err != nil {
		return compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "invalid argument count %q for %s", q.Arg2, q.Arg1)
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			fe.emit("move $a0, %s", argReg(i))
		}
		fe.emit("li $v0, 1")
		fe.emit("syscall")
	}
	if q.Arg1 == builtinPrintln {
		fe.emit("li $a0, 10")
		fe.emit("li $v0, 11")
		fe.emit("syscall")
	}
	fe.paramIndex = 0
	return nil
}

func (fe *funcEmitter) emitParam(q ir.Quad) error {
	if fe.paramIndex >= fe.maxCallArgs {
		return compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "more than %d arguments in a single call is unsupported", fe.maxCallArgs)
	}
	dst := argReg(fe.paramIndex)
	if _, isArr := fe.fr.lengthOf(q.Arg1); isArr {
		fe.baseAddr(dst, q.Arg1)
	} else if fe.fr.isPointer(q.Arg1) {
		off, _ := fe.fr.offsetOf(q.Arg1)
		fe.emit("lw %s, %d($fp)", dst, off)
	} else {
		fe.loadValue(dst, q.Arg1)
	}
	fe.paramIndex++
	return nil
}

func (fe *funcEmitter) emitRef(q ir.Quad) error {
	r, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.baseAddr(r, q.Arg1)
	fe.storeValue(r, q.Result)
	fe.fr.markPointer(q.Result)
	fe.regs.release(r)
	return nil
}

func (fe *funcEmitter) emitDerefLoad(q ir.Quad) error {
	r1, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r2, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	off := fe.fr.touch(q.Arg1)
	fe.emit("lw %s, %d($fp)", r1, off)
	fe.emit("lw %s, 0(%s)", r2, r1)
	fe.storeValue(r2, q.Result)
	fe.regs.release(r1)
	fe.regs.release(r2)
	return nil
}

func (fe *funcEmitter) emitDerefStore(q ir.Quad) error {
	r1, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	r2, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	off := fe.fr.touch(q.Arg1)
	fe.emit("lw %s, %d($fp)", r1, off)
	fe.loadValue(r2, q.Arg2)
	fe.emit("sw %s, 0(%s)", r2, r1)
	fe.regs.release(r1)
	fe.regs.release(r2)
	return nil
}

// elementAddr puts the address of base[index] into reg, where index is
// either an integer literal or a variable/temp place.
func (fe *funcEmitter) elementAddr(reg, base, index string) {
	fe.baseAddr(reg, base)
	if isConst(index) {
		n, _ := strconv.Atoi(index)
		if n != 0 {
			fe.emit("addiu %s, %s, %d", reg, reg, -4*n)
		}
		return
	}
	ri, _ := fe.regs.acquire()
	fe.loadValue(ri, index)
	fe.emit("sll %s, %s, 2", ri, ri)
	fe.emit("subu %s, %s, %s", reg, reg, ri)
	fe.regs.release(ri)
}

// emitElementSet lowers ARRAY_SET/TUPLE_SET: Arg1 is the base, Arg2 the
// literal element index, and — per the analyzer's emission shape — Result
// carries the value being written rather than a destination.
func (fe *funcEmitter) emitElementSet(q ir.Quad) error {
	n, err := strconv.Atoi(q.Arg2)
	if err != nil {
		return compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "non-literal element index %q", q.Arg2)
	}
	off := fe.fr.elementOffset(q.Arg1, n)
	r, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.loadValue(r, q.Result)
	fe.emit("sw %s, %d($fp)", r, off)
	fe.regs.release(r)
	return nil
}

func (fe *funcEmitter) emitElementLoad(q ir.Quad) error {
	raddr, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.elementAddr(raddr, q.Arg1, q.Arg2)
	rval, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.emit("lw %s, 0(%s)", rval, raddr)
	fe.storeValue(rval, q.Result)
	fe.regs.release(raddr)
	fe.regs.release(rval)
	return nil
}

func (fe *funcEmitter) emitElementStore(q ir.Quad) error {
	raddr, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.elementAddr(raddr, q.Arg1, q.Arg2)
	rval, err := fe.regs.acquire()
	if err != nil {
		return err
	}
	fe.loadValue(rval, q.Result)
	fe.emit("sw %s, 0(%s)", rval, raddr)
	fe.regs.release(raddr)
	fe.regs.release(rval)
	return nil
}
