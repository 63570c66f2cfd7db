package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Quad_String_rendersReadableForms(t *testing.T) {
	assert.Equal(t, "ADD a, b, t1", Quad{Op: Add, Arg1: "a", Arg2: "b", Result: "t1"}.String())
	assert.Equal(t, "L1:", Quad{Op: Label, Arg1: "L1"}.String())
	assert.Equal(t, "IF_FALSE t1, Lelse", Quad{Op: IfFalse, Arg1: "t1", Arg2: "Lelse"}.String())
	assert.Equal(t, "CALL f, 2, t3", Quad{Op: Call, Arg1: "f", Arg2: "2", Result: "t3"}.String())
	assert.Equal(t, "CALL f, 1", Quad{Op: Call, Arg1: "f", Arg2: "1"}.String())
}
