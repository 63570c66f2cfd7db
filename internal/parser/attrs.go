// Package parser implements the table-driven shift/reduce parser driver
// of spec.md §4.3, over a combined stack of {state, cst, attrs} slots,
// dispatching to the semantic analyzer on every reduction. Grounded on
// the teacher's internal/ictiobus/parse lr.go driver loop (util.Stack of
// parallel state/symbol slices, Algorithm 4.44's shift/reduce/accept/
// error cases), adapted from three parallel stacks to one combined
// stack-of-slots since each slot's semantic Attrs must travel alongside
// its state and CST node.
package parser

import (
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/token"
)

// Attrs is the single record of optional synthesized/inherited attributes
// carried on each parse-stack slot, per spec.md §3 ("Attributes on parse
// stack... attrs is a record with optional fields").
type Attrs struct {
	Type  *rstypes.Type
	Place string
	Code  []ir.Quad

	Name     string
	TokenObj *token.Token

	IsLvalue        bool
	IsLvalueAddress bool
	IsMutable       bool
	Initialized     bool
	BaseIsMutable   bool

	// Base/Index/IsDeref describe an address-carrying attribute (array or
	// tuple element, or a pointer dereference) so that a later assignment
	// reduction can emit the correct store opcode without re-evaluating
	// the base expression: Base is the addressed symbol's name, Index is
	// an array index place or a literal tuple field number, and IsDeref
	// distinguishes *p (Base holds p's place, Index unused) from an
	// array/tuple element (Base+Index both used).
	Base    string
	Index   string
	IsDeref bool

	// BorrowOf/BorrowMut name the symbol a &x/&mut x expression borrows
	// from, so the enclosing let/assign handler can record the live borrow
	// on the new reference symbol (empty when this attrs value is not
	// itself a freshly taken reference).
	BorrowOf  string
	BorrowMut bool

	// List-shaped attribute sub-fields (spec.md §3: "variant-specific
	// sub-fields for lists").
	Params       []Param
	Args         []Arg
	Elements     []string
	ElementTypes []*rstypes.Type
	ElemList     []*Attrs

	// Function-declaration bookkeeping, populated on the header reduction
	// and consumed on the body reduction (spec.md §4.4 "Function
	// declaration").
	FuncName   string
	ReturnType *rstypes.Type
}

// Param is one formal parameter name+type pair, accumulated by
// ParamList/Param reductions.
type Param struct {
	Name string
	Type *rstypes.Type
}

// Arg is one call-site argument's evaluated place and type, accumulated
// by ArgList reductions.
type Arg struct {
	Place string
	Type  *rstypes.Type
}
