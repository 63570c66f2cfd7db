// Package symtab implements the scoped symbol table of spec.md §3/§4.4: a
// stack of scope frames with shadowing-on-redeclare, plus the simplified
// borrow-counter model (mut/imm counts, no lifetimes) that backs the
// mutability and borrow checks in the semantic analyzer. Grounded on the
// teacher's internal/ictiobus/translation SymbolTable (stack of frames,
// innermost-first lookup), generalized from string-attribute symbols to
// the typed rstypes.Type-bearing Symbol this spec requires.
package symtab

import (
	"fmt"

	"github.com/dekarrin/rustlite/internal/rstypes"
)

// Kind is the closed symbol kind enumeration of spec.md §3.
type Kind int

const (
	KindVariable Kind = iota
	KindParameter
	KindFunction
	KindArray
	KindTuple
	KindReference
)

// FuncExtra carries the parameter list and return type for a Function
// symbol, as described by spec.md §3's "extra carries parameter lists and
// return type for functions".
type FuncExtra struct {
	Params     []*Type
	ReturnType *rstypes.Type
}

// Type is a lightweight parameter descriptor (name + type) used by
// FuncExtra; kept distinct from rstypes.Type to avoid import cycles with
// the semantic package's call-site argument checking.
type Type struct {
	Name string
	Type *rstypes.Type
}

// Borrows tracks the simplified borrow-counter model of spec.md §4.4
// Design Notes: "borrows.mut > 0 => borrows.imm = 0" is maintained as an
// invariant by IncMut and IncImm, which refuse a borrow that would break
// it.
type Borrows struct {
	Mut uint32
	Imm uint32
}

// Symbol is one symbol-table entry, per spec.md §3.
type Symbol struct {
	Name         string
	Kind         Kind
	Type         *rstypes.Type
	ScopeLevel   int
	IsMutable    bool
	Initialized  bool
	LineDeclared int
	Func         *FuncExtra
	Borrows      Borrows

	// BorrowOf and BorrowMut record, for a reference-holding symbol, which
	// symbol it currently borrows from and whether that borrow is mutable,
	// so ExitScope and Reassign can release the borrow per design notes §9
	// ("decrements on scope exit or when the reference variable is
	// overwritten"). Nil when this symbol does not currently hold a live
	// borrow (not a reference, or its reference has already been released).
	BorrowOf  *Symbol
	BorrowMut bool
}

// Reassign points sym (a reference-holding symbol) at a new borrow target,
// releasing whatever borrow it held previously. Passing a nil target just
// releases the old borrow, for the case where sym is overwritten with a
// non-reference or the borrow can no longer be tracked.
func (sym *Symbol) Reassign(target *Symbol, mut bool) {
	if sym.BorrowOf != nil {
		if sym.BorrowMut {
			DecMut(sym.BorrowOf)
		} else {
			DecImm(sym.BorrowOf)
		}
	}
	sym.BorrowOf = target
	sym.BorrowMut = mut
}

// frame is one scope's name -> Symbol mapping.
type frame map[string]*Symbol

// Table is a stack of scope frames, innermost last, per spec.md §3
// ("Stack of scope frames... Lookup searches from innermost outward").
type Table struct {
	frames []frame
}

// New returns a table with a single global frame already pushed.
func New() *Table {
	return &Table{frames: []frame{{}}}
}

// EnterScope pushes a fresh frame.
func (t *Table) EnterScope() {
	t.frames = append(t.frames, frame{})
}

// ExitScope pops the innermost frame, releasing any borrows still held by
// reference symbols that only lived in that frame (design notes §9:
// borrows "decrement on scope exit"). Calling ExitScope with only the
// global frame remaining is a programming error and panics, since the
// global frame persists for the whole compilation (spec.md §3
// Lifecycle).
func (t *Table) ExitScope() {
	if len(t.frames) <= 1 {
		panic("symtab: cannot exit the global scope")
	}
	for _, sym := range t.frames[len(t.frames)-1] {
		sym.Reassign(nil, false)
	}
	t.frames = t.frames[:len(t.frames)-1]
}

// Depth returns the current scope nesting depth (1 for just the global
// frame).
func (t *Table) Depth() int {
	return len(t.frames)
}

// Declare inserts sym into the current (innermost) frame under
// sym.Name, shadowing any prior symbol of the same name in that frame
// (spec.md §3 "same-name declaration in the same frame shadows the prior
// one"; Design Notes §9 decision: same-scope let redeclaration is legal,
// Rust-like shadowing). sym.ScopeLevel is set to the current depth.
func (t *Table) Declare(sym *Symbol) {
	sym.ScopeLevel = len(t.frames)
	t.frames[len(t.frames)-1][sym.Name] = sym
}

// Lookup searches from innermost outward and returns the first match,
// per spec.md §3/§8 invariant 5 ("Symbol lookup at any reduction point
// returns the innermost enclosing binding").
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if sym, ok := t.frames[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupInCurrentScope reports whether name is already bound in the
// innermost frame, ignoring outer frames.
func (t *Table) LookupInCurrentScope(name string) (*Symbol, bool) {
	sym, ok := t.frames[len(t.frames)-1][name]
	return sym, ok
}

// IncImm records a new immutable borrow of sym, failing per spec.md
// §4.4 ("&x fails if x has an outstanding mutable borrow").
func IncImm(sym *Symbol) error {
	if sym.Borrows.Mut > 0 {
		return fmt.Errorf("cannot borrow %q as immutable because it is already borrowed as mutable", sym.Name)
	}
	sym.Borrows.Imm++
	return nil
}

// IncMut records a new mutable borrow of sym, failing per spec.md §4.4
// ("&mut x fails if x is not mutable; fails if x already has any
// outstanding borrow").
func IncMut(sym *Symbol) error {
	if !sym.IsMutable {
		return fmt.Errorf("cannot borrow %q as mutable because it is not declared mutable", sym.Name)
	}
	if sym.Borrows.Mut > 0 || sym.Borrows.Imm > 0 {
		return fmt.Errorf("cannot borrow %q as mutable because it is already borrowed", sym.Name)
	}
	sym.Borrows.Mut++
	return nil
}

// DecImm releases one immutable borrow of sym, clamping at zero. Called
// on scope exit or when a reference variable holding the borrow is
// overwritten (design notes §9: "A correct re-implementation decrements
// on scope exit or when the reference variable is overwritten").
func DecImm(sym *Symbol) {
	if sym.Borrows.Imm > 0 {
		sym.Borrows.Imm--
	}
}

// DecMut releases one mutable borrow of sym, clamping at zero.
func DecMut(sym *Symbol) {
	if sym.Borrows.Mut > 0 {
		sym.Borrows.Mut--
	}
}
