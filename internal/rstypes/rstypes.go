// Package rstypes implements the recursive type algebra of spec.md §3's
// Type model: I32, Void, references, arrays, tuples, and the
// UnknownInferred placeholder used before a let binding's type is fixed
// by its first assignment. Grounded on the teacher's
// internal/ictiobus/grammar Symbol-printing idiom (canonical-spelling
// String() methods) and generalized to a recursive, structurally-equal
// algebraic type the teacher's string-valued symbol classes do not need.
package rstypes

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed Type variants of spec.md §3.
type Kind int

const (
	KindI32 Kind = iota
	KindVoid
	KindRef
	KindArray
	KindTuple
	KindUnknownInferred
)

// Type is the recursive algebraic type: I32 | Void | Ref{mut,inner} |
// Array{element,length} | Tuple{elements} | UnknownInferred.
type Type struct {
	Kind Kind

	// Ref fields.
	Mut   bool
	Inner *Type

	// Array fields.
	Element *Type
	Length  uint32

	// Tuple fields.
	Elements []*Type
}

var (
	I32             = &Type{Kind: KindI32}
	Void            = &Type{Kind: KindVoid}
	UnknownInferred = &Type{Kind: KindUnknownInferred}
)

// NewRef builds &T or &mut T.
func NewRef(mut bool, inner *Type) *Type {
	return &Type{Kind: KindRef, Mut: mut, Inner: inner}
}

// NewArray builds [T; N].
func NewArray(element *Type, length uint32) *Type {
	return &Type{Kind: KindArray, Element: element, Length: length}
}

// NewTuple builds (T1, T2, ...).
func NewTuple(elements []*Type) *Type {
	return &Type{Kind: KindTuple, Elements: elements}
}

// IsVoid reports whether t is the Void type (nil is never considered
// Void; callers must not pass nil).
func (t *Type) IsVoid() bool { return t.Kind == KindVoid }

// IsUnknown reports whether t is still UnknownInferred.
func (t *Type) IsUnknown() bool { return t.Kind == KindUnknownInferred }

// IsI32 reports whether t is the scalar I32 type.
func (t *Type) IsI32() bool { return t.Kind == KindI32 }

// IsArray reports whether t is an Array type.
func (t *Type) IsArray() bool { return t.Kind == KindArray }

// IsTuple reports whether t is a Tuple type.
func (t *Type) IsTuple() bool { return t.Kind == KindTuple }

// IsRef reports whether t is a Ref type.
func (t *Type) IsRef() bool { return t.Kind == KindRef }

// Equal reports structural equality per spec.md §3 ("Structural
// equality").
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindRef:
		return a.Mut == b.Mut && Equal(a.Inner, b.Inner)
	case KindArray:
		return a.Length == b.Length && Equal(a.Element, b.Element)
	case KindTuple:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the canonical spelling of t, e.g. "&mut [i32; 3]",
// "(i32, i32)", per spec.md §3.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KindI32:
		return "i32"
	case KindVoid:
		return "void"
	case KindUnknownInferred:
		return "<unknown>"
	case KindRef:
		if t.Mut {
			return "&mut " + t.Inner.String()
		}
		return "&" + t.Inner.String()
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Element.String(), t.Length)
	case KindTuple:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "<invalid type>"
	}
}

// Compatible implements spec.md §4.4's compatible(expected, found) rule:
//   - equal canonical spellings -> compatible
//   - expected = UnknownInferred and found != Void -> compatible
//   - found = Void and expected != Void -> incompatible
//   - otherwise -> incompatible
func Compatible(expected, found *Type) bool {
	if expected.String() == found.String() {
		return true
	}
	if expected.IsUnknown() && !found.IsVoid() {
		return true
	}
	return false
}

// SizeWords returns how many 4-byte stack words t occupies: 1 for scalars
// and references, Length*SizeWords(element) for arrays, and the sum of
// element sizes for tuples. The code generator does not call it; its
// frame layout sizes array and tuple blocks from ARRAY_INIT/TUPLE_INIT
// element counts.
func SizeWords(t *Type) int {
	switch t.Kind {
	case KindArray:
		return int(t.Length) * SizeWords(t.Element)
	case KindTuple:
		n := 0
		for _, e := range t.Elements {
			n += SizeWords(e)
		}
		return n
	default:
		return 1
	}
}
