package codegen

import (
	"strings"
	"testing"

	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segFor builds a funcSegment from a bare quadruple body, mirroring how
// partition would split a real program on FUNC_BEGIN/FUNC_END.
func segFor(name string, quads []ir.Quad) *funcSegment {
	return &funcSegment{name: name, quads: quads}
}

func TestLowerFunctionScalarArithmeticAndReturn(t *testing.T) {
	seg := segFor("add_one", []ir.Quad{
		{Op: ir.Add, Arg1: "x", Arg2: "1", Result: "t1"},
		{Op: ir.ReturnVal, Arg1: "t1"},
	})
	sym := &symtab.Symbol{
		Func: &symtab.FuncExtra{
			Params:     []*symtab.Type{{Name: "x", Type: rstypes.I32}},
			ReturnType: rstypes.I32,
		},
	}

	text, err := lowerFunction(seg, sym, Options{})
	require.NoError(t, err)

	assert.Contains(t, text, "add_one:")
	assert.Contains(t, text, "addu")
	assert.Contains(t, text, "move $v0,")
	assert.Contains(t, text, ".L_add_one_epilogue:")
	assert.Contains(t, text, "jr $ra")
	// The parameter must be spilled from $a0 into its frame slot before use.
	assert.Contains(t, text, "sw $a0,")
}

func TestLowerFunctionArrayElementStoreAndLoad(t *testing.T) {
	seg := segFor("touch_array", []ir.Quad{
		{Op: ir.ArrayInit, Arg1: "3", Result: "arr"},
		{Op: ir.ArraySet, Arg1: "arr", Arg2: "0", Result: "7"},
		{Op: ir.ArrayLoad, Arg1: "arr", Arg2: "0", Result: "t1"},
		{Op: ir.Return},
	})

	text, err := lowerFunction(seg, nil, Options{})
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Greater(t, len(lines), 1)
	assert.Contains(t, text, "$fp,")
	assert.Contains(t, text, "sw")
	assert.Contains(t, text, "lw")
}

func TestLowerFunctionRejectsTooManyParameters(t *testing.T) {
	sym := &symtab.Symbol{
		Func: &symtab.FuncExtra{
			Params: []*symtab.Type{
				{Name: "a", Type: rstypes.I32},
				{Name: "b", Type: rstypes.I32},
				{Name: "c", Type: rstypes.I32},
			},
		},
	}
	seg := segFor("f", []ir.Quad{{Op: ir.Return}})

	_, err := lowerFunction(seg, sym, Options{MaxCallArgs: 2})
	require.Error(t, err)
}

func TestLowerFunctionRegisterExhaustionSurfacesBackendError(t *testing.T) {
	// A single ADD needs three registers at once (two operands and the
	// result); against a pool of one register it must fail.
	seg := segFor("f", []ir.Quad{
		{Op: ir.Add, Arg1: "a", Arg2: "b", Result: "t1"},
		{Op: ir.Return},
	})

	_, err := lowerFunction(seg, nil, Options{RegisterCount: 1})
	require.Error(t, err)
}

func TestLowerFunctionBuiltinPrintlnEmitsSyscalls(t *testing.T) {
	seg := segFor("main", []ir.Quad{
		{Op: ir.Param, Arg1: "7"},
		{Op: ir.Call, Arg1: "__builtin_println", Arg2: "1"},
		{Op: ir.Return},
	})

	text, err := lowerFunction(seg, nil, Options{})
	require.NoError(t, err)

	// No jal to the builtin name: it lowers straight to syscalls, not a
	// call to an undefined label.
	assert.NotContains(t, text, "jal __builtin_println")
	assert.Contains(t, text, "li $a0, 7")
	assert.Contains(t, text, "li $v0, 1")
	assert.Contains(t, text, "li $a0, 10")
	assert.Contains(t, text, "li $v0, 11")
	assert.Contains(t, text, "syscall")
}

func TestLowerFunctionBuiltinPrintMultiArgMovesEachIntoA0(t *testing.T) {
	seg := segFor("main", []ir.Quad{
		{Op: ir.Param, Arg1: "1"},
		{Op: ir.Param, Arg1: "2"},
		{Op: ir.Call, Arg1: "__builtin_print", Arg2: "2"},
		{Op: ir.Return},
	})

	text, err := lowerFunction(seg, nil, Options{})
	require.NoError(t, err)

	assert.NotContains(t, text, "jal __builtin_print")
	assert.Contains(t, text, "li $a0, 1")
	assert.Contains(t, text, "move $a0, $a1")
	// print! (no println!) never prints a trailing newline.
	assert.NotContains(t, text, "li $v0, 11")
}
