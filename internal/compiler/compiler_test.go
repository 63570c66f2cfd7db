package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countOp(quads []ir.Quad, op ir.OpCode) int {
	n := 0
	for _, q := range quads {
		if q.Op == op {
			n++
		}
	}
	return n
}

func requireCompileError(t *testing.T, err error) *compileerr.CompileError {
	t.Helper()
	require.Error(t, err)
	var cerr *compileerr.CompileError
	require.True(t, errors.As(err, &cerr), "expected a *compileerr.CompileError, got %T: %v", err, err)
	return cerr
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.GrammarPath = filepath.Join("..", "..", "grammars", "rustlite.grammar")
	cfg.CachePath = filepath.Join(t.TempDir(), "rustlite.tab.cache")
	return cfg
}

func TestCompileSimpleFunctionCall(t *testing.T) {
	src := `
fn inc(x: i32) -> i32 {
	return x + 1;
}

fn main() {
	let y: i32 = inc(41);
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Contains(t, res.Assembly, "__start:")
	assert.Contains(t, res.Assembly, "jal main")
	assert.Contains(t, res.Assembly, "inc:")
	assert.Contains(t, res.Assembly, "main:")
	assert.Contains(t, res.Assembly, "jal inc")
}

func TestCompileUsesCacheOnSecondRun(t *testing.T) {
	cfg := testConfig(t)
	src := `
fn main() {
	let x: i32 = 1;
}
`
	res1, err := Compile(src, cfg)
	require.NoError(t, err)

	res2, err := Compile(src, cfg)
	require.NoError(t, err)

	assert.Equal(t, res1.Assembly, res2.Assembly)
}

func TestCompileRejectsMissingMain(t *testing.T) {
	src := `
fn helper() {
}
`
	_, err := Compile(src, testConfig(t))
	require.Error(t, err)
}

func TestCompileEmitsCSTWhenRequested(t *testing.T) {
	cfg := testConfig(t)
	cfg.EmitCST = true
	src := `
fn main() {
	let x: i32 = 1;
}
`
	res, err := Compile(src, cfg)
	require.NoError(t, err)
	assert.NotNil(t, res.CST)
}

// TestCompileArithmeticPrecedence covers spec.md §8 scenario 1: operator
// precedence must be reflected in quad emission order (the MUL operand
// computed before the surrounding ADD consumes it).
func TestCompileArithmeticPrecedence(t *testing.T) {
	src := `
fn main() {
	let x: i32 = 2 + 3 * 4;
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	var mulIdx, addIdx, assignIdx int
	mulIdx, addIdx, assignIdx = -1, -1, -1
	for i, q := range res.Quads {
		switch q.Op {
		case ir.Mul:
			mulIdx = i
		case ir.Add:
			addIdx = i
		case ir.Assign:
			if q.Result == "x" {
				assignIdx = i
			}
		}
	}
	require.NotEqual(t, -1, mulIdx, "expected a MUL quad")
	require.NotEqual(t, -1, addIdx, "expected an ADD quad")
	require.NotEqual(t, -1, assignIdx, "expected an ASSIGN into x")
	assert.Less(t, mulIdx, addIdx, "3*4 must be computed before 2+(3*4)")
	assert.Less(t, addIdx, assignIdx, "the sum must be computed before it is assigned to x")
}

// TestCompileArrayLiteralIndexAndStore covers spec.md §8 scenario 2: array
// construction (ARRAY_INIT/ARRAY_SET), indexed read (ARRAY_LOAD), and
// indexed write (ARRAY_STORE).
func TestCompileArrayLiteralIndexAndStore(t *testing.T) {
	src := `
fn main() {
	let mut a: [i32; 3] = [1, 2, 3];
	a[0] = 9;
	let b: i32 = a[1];
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 1, countOp(res.Quads, ir.ArrayInit))
	assert.Equal(t, 3, countOp(res.Quads, ir.ArraySet))
	assert.Equal(t, 1, countOp(res.Quads, ir.ArrayStore))
	assert.Equal(t, 1, countOp(res.Quads, ir.ArrayLoad))
}

// TestCompileWhileLoopStructure covers spec.md §8 scenario 4: a while loop
// lowers to exactly one start label, one end label, one conditional exit
// jump, and one unconditional back-edge jump.
func TestCompileWhileLoopStructure(t *testing.T) {
	src := `
fn main() {
	let mut i: i32 = 0;
	while i < 5 {
		i = i + 1;
	}
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 2, countOp(res.Quads, ir.Label), "expected a start label and an end label")
	assert.Equal(t, 1, countOp(res.Quads, ir.IfFalse), "expected one conditional exit check")
	assert.Equal(t, 1, countOp(res.Quads, ir.Jump), "expected one back-edge jump")
}

// TestCompileMutableBorrowConflictRejected covers spec.md §8 scenario 5:
// two live &mut borrows of the same variable must be rejected.
func TestCompileMutableBorrowConflictRejected(t *testing.T) {
	src := `
fn main() {
	let mut x: i32 = 1;
	let r1: &mut i32 = &mut x;
	let r2: &mut i32 = &mut x;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindMutability, cerr.Kind)
}

// TestCompileBorrowReleasedAfterScopeExit exercises the borrow-release
// fix: a &mut borrow taken inside a nested block must be released when
// that block's scope exits, so a later borrow of the same variable
// succeeds instead of being permanently blocked.
func TestCompileBorrowReleasedAfterScopeExit(t *testing.T) {
	src := `
fn main() {
	let mut x: i32 = 1;
	{
		let r1: &mut i32 = &mut x;
	}
	let r2: &mut i32 = &mut x;
}
`
	_, err := Compile(src, testConfig(t))
	require.NoError(t, err)
}

// TestCompileBorrowReleasedOnReassignment exercises the same fix via
// reassignment instead of scope exit: overwriting a reference variable
// must release the borrow it previously held.
func TestCompileBorrowReleasedOnReassignment(t *testing.T) {
	src := `
fn main() {
	let mut x: i32 = 1;
	let mut y: i32 = 2;
	let mut r: &mut i32 = &mut x;
	r = &mut y;
	let r2: &mut i32 = &mut x;
}
`
	_, err := Compile(src, testConfig(t))
	require.NoError(t, err)
}

// TestCompileLoopExprBreakValue covers spec.md §8 scenario 6: a loop
// expression's `break <value>` fixes the expression's yielded type and
// assigns into a single result temporary that flows out of the loop.
func TestCompileLoopExprBreakValue(t *testing.T) {
	src := `
fn main() {
	let x: i32 = loop {
		break 5;
	};
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)
	assert.Contains(t, res.Assembly, "main:")

	var resultPlace string
	for _, q := range res.Quads {
		if q.Op == ir.Assign && q.Arg1 == "5" {
			resultPlace = q.Result
		}
	}
	require.NotEmpty(t, resultPlace, "expected break 5 to assign into the loop's result place")
	var flowsOut bool
	for _, q := range res.Quads {
		if q.Op == ir.Assign && q.Arg1 == resultPlace && q.Result == "x" {
			flowsOut = true
		}
	}
	assert.True(t, flowsOut, "expected the loop's result place to be assigned to x")
}

// TestCompileLoopExprBreakValueAgreementAccepted ensures two break
// statements yielding the same type in the same loop expression are
// accepted, whether or not that type was fixed by the earlier break.
func TestCompileLoopExprBreakValueAgreementAccepted(t *testing.T) {
	src := `
fn main() {
	let mut n: i32 = 0;
	let x: i32 = loop {
		n = n + 1;
		if n > 3 {
			break 1;
		}
		break n;
	};
}
`
	_, err := Compile(src, testConfig(t))
	require.NoError(t, err)
}

// TestCompileLoopExprBreakValueTypeMismatchRejected ensures two break
// statements in the same loop expression must agree on their value type.
func TestCompileLoopExprBreakValueTypeMismatchRejected(t *testing.T) {
	src := `
fn main() {
	let mut n: i32 = 0;
	let x: i32 = loop {
		n = n + 1;
		if n > 3 {
			break 1;
		}
		break [n, n];
	};
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindType, cerr.Kind)
}

// TestCompileDivisionByLiteralZeroRejected covers the error taxonomy case
// of dividing by a literal zero, caught statically rather than at runtime.
func TestCompileDivisionByLiteralZeroRejected(t *testing.T) {
	src := `
fn main() {
	let x: i32 = 1 / 0;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindType, cerr.Kind)
}

// TestCompileBreakOutsideLoopRejected and
// TestCompileContinueOutsideLoopRejected cover the error taxonomy's
// break/continue placement checks.
func TestCompileBreakOutsideLoopRejected(t *testing.T) {
	src := `
fn main() {
	break;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindSyntax, cerr.Kind)
}

func TestCompileContinueOutsideLoopRejected(t *testing.T) {
	src := `
fn main() {
	continue;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindSyntax, cerr.Kind)
}

// TestCompileImmutableReassignmentRejected covers the error taxonomy's
// mutability case for plain (non-reference) variables.
func TestCompileImmutableReassignmentRejected(t *testing.T) {
	src := `
fn main() {
	let x: i32 = 1;
	x = 2;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindMutability, cerr.Kind)
}

// TestCompileForLoopContinueTargetsIncrement checks that continue inside
// a range-for advances the iterator: its jump must target the label that
// guards the increment, not the condition re-test above it, or the loop
// would spin forever on the same iterator value.
func TestCompileForLoopContinueTargetsIncrement(t *testing.T) {
	src := `
fn main() {
	for i in 0..3 {
		if i < 1 {
			continue;
		}
	}
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	// Locate the iterator increment (ADD i, 1) and the label just above it.
	incrIdx := -1
	for i, q := range res.Quads {
		if q.Op == ir.Add && q.Arg1 == "i" && q.Arg2 == "1" {
			incrIdx = i
		}
	}
	require.NotEqual(t, -1, incrIdx, "expected an iterator increment quad")
	require.Greater(t, incrIdx, 0)
	require.Equal(t, ir.Label, res.Quads[incrIdx-1].Op, "increment must sit under its own label")
	incrLabel := res.Quads[incrIdx-1].Arg1

	var continueJumps int
	for i, q := range res.Quads {
		if q.Op == ir.Jump && q.Arg1 == incrLabel && i < incrIdx {
			continueJumps++
		}
	}
	assert.Equal(t, 1, continueJumps, "continue must jump forward to the increment label")
}

// TestCompileDeferredInitializationOfImmutable checks that a binding
// declared without an initializer may be assigned exactly once, even when
// immutable: the first assignment is what initializes it.
func TestCompileDeferredInitializationOfImmutable(t *testing.T) {
	src := `
fn main() {
	let x: i32;
	x = 1;
	let y: i32 = x + 1;
}
`
	_, err := Compile(src, testConfig(t))
	require.NoError(t, err)
}

// TestCompileUseBeforeInitializationRejected covers the error taxonomy's
// use-before-initialization case: reading a declared-but-unassigned
// binding is rejected at the reduction that consumes its value.
func TestCompileUseBeforeInitializationRejected(t *testing.T) {
	src := `
fn main() {
	let x: i32;
	let y: i32 = x + 1;
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindDeclaration, cerr.Kind)
}

// TestCompileInferredTypeFixedByFirstAssignment covers the UnknownInferred
// flow: `let x;` takes its type from the first assignment, after which a
// conflicting assignment is a type error (the binding is immutable, so the
// second write already fails on mutability; use mut to isolate the type
// check).
func TestCompileInferredTypeFixedByFirstAssignment(t *testing.T) {
	src := `
fn main() {
	let mut x;
	x = 5;
	x = [1, 2];
}
`
	_, err := Compile(src, testConfig(t))
	cerr := requireCompileError(t, err)
	assert.Equal(t, compileerr.KindType, cerr.Kind)
}

// TestCompileCallArgumentEvaluationPrecedesParams checks that a computed
// argument's own quadruples are emitted before any PARAM of the call that
// consumes it.
func TestCompileCallArgumentEvaluationPrecedesParams(t *testing.T) {
	src := `
fn add(a: i32, b: i32) -> i32 {
	return a + b;
}

fn main() {
	let x: i32 = add(1 + 2, 3);
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	addIdx, paramIdx := -1, -1
	for i, q := range res.Quads {
		if q.Op == ir.Add && q.Arg1 == "1" && q.Arg2 == "2" && addIdx == -1 {
			addIdx = i
		}
		if q.Op == ir.Param && paramIdx == -1 {
			paramIdx = i
		}
	}
	require.NotEqual(t, -1, addIdx)
	require.NotEqual(t, -1, paramIdx)
	assert.Less(t, addIdx, paramIdx, "1+2 must be evaluated before PARAMs are emitted")
}

// TestCompileElementStoreEmitsNoLoad checks the store path of an indexed
// assignment: the target element is not loaded first, only stored to
// (spec.md §8 scenario 2's quad shape).
func TestCompileElementStoreEmitsNoLoad(t *testing.T) {
	src := `
fn main() {
	let mut a: [i32; 2] = [1, 2];
	a[1] = 9;
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 0, countOp(res.Quads, ir.ArrayLoad))
	assert.Equal(t, 1, countOp(res.Quads, ir.ArrayStore))
}

// TestCompileDerefStoreQuadShape covers spec.md §8 scenario 5's quad
// sequence for writing through a mutable reference.
func TestCompileDerefStoreQuadShape(t *testing.T) {
	src := `
fn main() {
	let mut x: i32 = 0;
	let r: &mut i32 = &mut x;
	*r = 7;
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 1, countOp(res.Quads, ir.Ref))
	assert.Equal(t, 1, countOp(res.Quads, ir.DerefStore))
	assert.Equal(t, 0, countOp(res.Quads, ir.DerefLoad))
}

// TestCompileFunctionCallQuads covers spec.md §8 scenario 3: a call with
// arguments emits one PARAM per argument, in order, followed by a single
// CALL carrying the callee name and argument count.
func TestCompileFunctionCallQuads(t *testing.T) {
	src := `
fn add(a: i32, b: i32) -> i32 {
	return a + b;
}

fn main() {
	let x: i32 = add(1, 2);
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 2, countOp(res.Quads, ir.Param))
	var paramArgs []string
	for _, q := range res.Quads {
		if q.Op == ir.Param {
			paramArgs = append(paramArgs, q.Arg1)
		}
	}
	assert.Equal(t, []string{"1", "2"}, paramArgs)

	var callIdx = -1
	for i, q := range res.Quads {
		if q.Op == ir.Call && q.Arg1 == "add" {
			callIdx = i
			assert.Equal(t, "2", q.Arg2)
		}
	}
	require.NotEqual(t, -1, callIdx, "expected a CALL quad targeting add")
}

// TestCompilePrintlnLowersToSyscallsNotAnUndefinedCall covers
// SPEC_FULL.md §4's println!/print! supplement: the CALL __builtin_println
// quadruple must never survive into the emitted assembly as a jal to an
// undefined label; it lowers to the documented print-integer/print-char
// syscall sequence instead.
func TestCompilePrintlnLowersToSyscallsNotAnUndefinedCall(t *testing.T) {
	src := `
fn main() {
	let x: i32 = 7;
	println!(x);
}
`
	res, err := Compile(src, testConfig(t))
	require.NoError(t, err)

	require.Equal(t, 1, countOp(res.Quads, ir.Call))
	var sawCall bool
	for _, q := range res.Quads {
		if q.Op == ir.Call {
			sawCall = true
			assert.Equal(t, "__builtin_println", q.Arg1)
			assert.Equal(t, "1", q.Arg2)
		}
	}
	require.True(t, sawCall)

	assert.NotContains(t, res.Assembly, "jal __builtin_println")
	assert.NotContains(t, res.Assembly, "__builtin_println:")
	assert.Contains(t, res.Assembly, "li $v0, 1")
	assert.Contains(t, res.Assembly, "li $v0, 11")
	assert.Contains(t, res.Assembly, "syscall")
}
