package codegen

import (
	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/util"
)

// registerPool is the free list of $t0..$t9 described by spec.md §4.5:
// each quadruple acquires the registers it needs and releases them once
// its instructions are emitted. Grounded on the teacher's internal/util
// Stack, reused here as a LIFO free list instead of a parser value stack.
type registerPool struct {
	free util.Stack[string]
}

// defaultRegisterCount is the $t0..$t9 pool size spec.md §4.5 fixes for a
// real program; Options.RegisterCount lets test harnesses shrink it to
// exercise pool exhaustion deterministically.
const defaultRegisterCount = 10

func newRegisterPool(n int) *registerPool {
	if n <= 0 {
		n = defaultRegisterCount
	}
	p := &registerPool{}
	// Pushed in reverse so $t0 is acquired first.
	for i := n - 1; i >= 0; i-- {
		p.free.Push(tempName(i))
	}
	return p
}

func tempName(i int) string {
	const digits = "0123456789"
	return "$t" + string(digits[i])
}

func (p *registerPool) acquire() (string, error) {
	if p.free.Empty() {
		return "", compileerr.New(compileerr.KindBackend, compileerr.Loc{}, "temporary register pool exhausted")
	}
	return p.free.Pop(), nil
}

func (p *registerPool) release(r string) {
	if r == "" {
		return
	}
	p.free.Push(r)
}
