package codegen

// frame tracks the stack-slot layout of a single function, assigning each
// referenced variable or temporary a negative offset from $fp the first
// time it is touched while walking the function's quadruples in order
// (spec.md §4.5: "assigned lazily on first reference"). Arrays and tuples
// reserve one contiguous block instead of a single word.
type frame struct {
	offsets  map[string]int
	lengths  map[string]int // element count, for array/tuple bases
	pointers map[string]bool // slots whose stored value is itself an address
	total    int
}

func newFrame() *frame {
	return &frame{
		offsets:  map[string]int{},
		lengths:  map[string]int{},
		pointers: map[string]bool{},
	}
}

// touch assigns (or returns the existing) one-word offset for name.
func (f *frame) touch(name string) int {
	if off, ok := f.offsets[name]; ok {
		return off
	}
	f.total += 4
	off := -f.total
	f.offsets[name] = off
	return off
}

// touchBlock reserves a contiguous block of length words for name, and
// returns the offset of element 0. Element i lives at offset(name) - 4*i.
func (f *frame) touchBlock(name string, length int) int {
	if off, ok := f.offsets[name]; ok {
		return off
	}
	base := -(f.total + 4)
	f.total += 4 * length
	f.offsets[name] = base
	f.lengths[name] = length
	return base
}

func (f *frame) offsetOf(name string) (int, bool) {
	off, ok := f.offsets[name]
	return off, ok
}

func (f *frame) elementOffset(name string, index int) int {
	base := f.touch(name)
	return base - 4*index
}

func (f *frame) lengthOf(name string) (int, bool) {
	n, ok := f.lengths[name]
	return n, ok
}

func (f *frame) markPointer(name string) {
	f.pointers[name] = true
}

func (f *frame) isPointer(name string) bool {
	return f.pointers[name]
}

// size returns S from spec.md §4.5: the frame's local area size, rounded
// up to 16 bytes.
func (f *frame) size() int {
	s := f.total
	if rem := s % 16; rem != 0 {
		s += 16 - rem
	}
	return s
}
