package symtab

import (
	"testing"

	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Declare_lookupFindsInnermostBinding(t *testing.T) {
	tab := New()
	tab.Declare(&Symbol{Name: "x", Type: rstypes.I32})

	tab.EnterScope()
	tab.Declare(&Symbol{Name: "x", Type: rstypes.NewArray(rstypes.I32, 2)})

	sym, ok := tab.Lookup("x")
	require.True(t, ok)
	assert.True(t, sym.Type.IsArray())
}

func Test_ExitScope_restoresOuterBinding(t *testing.T) {
	tab := New()
	tab.Declare(&Symbol{Name: "x", Type: rstypes.I32})

	tab.EnterScope()
	tab.Declare(&Symbol{Name: "x", Type: rstypes.NewArray(rstypes.I32, 2)})
	tab.ExitScope()

	sym, ok := tab.Lookup("x")
	require.True(t, ok)
	assert.True(t, sym.Type.IsI32())
}

func Test_ExitScope_decreasesDepthByOne(t *testing.T) {
	tab := New()
	tab.EnterScope()
	tab.EnterScope()
	require.Equal(t, 3, tab.Depth())
	tab.ExitScope()
	assert.Equal(t, 2, tab.Depth())
}

func Test_ExitScope_panicsOnGlobalFrame(t *testing.T) {
	tab := New()
	assert.Panics(t, func() { tab.ExitScope() })
}

func Test_Declare_sameScopeShadowsSilently(t *testing.T) {
	tab := New()
	tab.Declare(&Symbol{Name: "x", Type: rstypes.I32})
	tab.Declare(&Symbol{Name: "x", Type: rstypes.NewArray(rstypes.I32, 5)})

	sym, ok := tab.LookupInCurrentScope("x")
	require.True(t, ok)
	assert.True(t, sym.Type.IsArray())
}

func Test_IncMut_failsOnImmutableSymbol(t *testing.T) {
	sym := &Symbol{Name: "x", IsMutable: false}
	err := IncMut(sym)
	assert.Error(t, err)
}

func Test_IncMut_failsWhenAlreadyBorrowed(t *testing.T) {
	sym := &Symbol{Name: "x", IsMutable: true}
	require.NoError(t, IncImm(sym))
	assert.Error(t, IncMut(sym))
}

func Test_IncImm_failsWhenMutablyBorrowed(t *testing.T) {
	sym := &Symbol{Name: "x", IsMutable: true}
	require.NoError(t, IncMut(sym))
	assert.Error(t, IncImm(sym))
}

func Test_DecMut_thenIncImm_succeeds(t *testing.T) {
	sym := &Symbol{Name: "x", IsMutable: true}
	require.NoError(t, IncMut(sym))
	DecMut(sym)
	assert.NoError(t, IncImm(sym))
}
