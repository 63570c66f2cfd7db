package parsetab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/google/uuid"
)

// snapshot is the flattened, plain-data form of a Table that gets
// persisted to disk: the grammar path and mtime it was built from, the
// state and non-terminal counts, the EOF id, the ACTION and GOTO tables,
// and the conflict list. Terminals, non-terminals, productions, FIRST
// sets and the LR(1) item sets are not stored; the grammar is re-loaded
// from its source file when a cached table is used, and only the driver
// tables round-trip through the cache.
type snapshot struct {
	GrammarPath string
	GrammarMod  int64
	NumStates   int
	NumNonTerm  int
	EOF         int32
	Action      []int32 // flattened [state][terminal] triples: type,state,prod
	Goto        []int32 // flattened [state][nonterm]
	Conflicts   []string
}

// MarshalBinary implements encoding.BinaryMarshaler with a simple,
// length-prefixed layout so rezi.EncBinary/DecBinary can round-trip it.
func (s *snapshot) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	writeString(&buf, s.GrammarPath)
	writeInt64(&buf, s.GrammarMod)
	writeInt64(&buf, int64(s.NumStates))
	writeInt64(&buf, int64(s.NumNonTerm))
	writeInt64(&buf, int64(s.EOF))

	writeInt64(&buf, int64(len(s.Action)))
	for _, v := range s.Action {
		writeInt64(&buf, int64(v))
	}

	writeInt64(&buf, int64(len(s.Goto)))
	for _, v := range s.Goto {
		writeInt64(&buf, int64(v))
	}

	writeInt64(&buf, int64(len(s.Conflicts)))
	for _, c := range s.Conflicts {
		writeString(&buf, c)
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, the mirror of
// MarshalBinary above.
func (s *snapshot) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)

	var err error
	if s.GrammarPath, err = readString(buf); err != nil {
		return err
	}
	if s.GrammarMod, err = readInt64(buf); err != nil {
		return err
	}
	numStates, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.NumStates = int(numStates)
	numNonTerm, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.NumNonTerm = int(numNonTerm)
	eof, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.EOF = int32(eof)

	actionLen, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.Action = make([]int32, actionLen)
	for i := range s.Action {
		v, err := readInt64(buf)
		if err != nil {
			return err
		}
		s.Action[i] = int32(v)
	}

	gotoLen, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.Goto = make([]int32, gotoLen)
	for i := range s.Goto {
		v, err := readInt64(buf)
		if err != nil {
			return err
		}
		s.Goto[i] = int32(v)
	}

	conflictLen, err := readInt64(buf)
	if err != nil {
		return err
	}
	s.Conflicts = make([]string, conflictLen)
	for i := range s.Conflicts {
		if s.Conflicts[i], err = readString(buf); err != nil {
			return err
		}
	}

	return nil
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf.Write(tmp[:])
}

func readInt64(r *bytes.Reader) (int64, error) {
	var tmp [8]byte
	if _, err := r.Read(tmp[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(tmp[:])), nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeInt64(buf, int64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readInt64(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil && n > 0 {
		return "", err
	}
	return string(b), nil
}

func toSnapshot(t *Table, grammarPath string, grammarMod int64) *snapshot {
	s := &snapshot{
		GrammarPath: grammarPath,
		GrammarMod:  grammarMod,
		NumStates:   len(t.Action),
		NumNonTerm:  t.numNonTerm,
		EOF:         int32(t.EOF),
	}

	for _, row := range t.Action {
		for _, act := range row {
			s.Action = append(s.Action, int32(act.Type), int32(act.State), int32(act.Prod))
		}
	}
	for _, row := range t.Goto {
		for _, v := range row {
			s.Goto = append(s.Goto, int32(v))
		}
	}
	s.Conflicts = t.Conflicts

	return s
}

func fromSnapshot(s *snapshot, g *grammar.Grammar) (*Table, error) {
	t := &Table{
		Grammar:    g,
		EOF:        grammar.SymbolID(s.EOF),
		Conflicts:  s.Conflicts,
		numNonTerm: s.NumNonTerm,
	}

	t.Action = make([][]Action, s.NumStates)
	t.Goto = make([][]int, s.NumStates)

	termWidth := grammar.TerminalCount
	if len(s.Action) != s.NumStates*termWidth*3 {
		return nil, fmt.Errorf("parsetab: cache action data size mismatch")
	}
	idx := 0
	for i := 0; i < s.NumStates; i++ {
		t.Action[i] = make([]Action, termWidth)
		for j := 0; j < termWidth; j++ {
			t.Action[i][j] = Action{
				Type:  ActionType(s.Action[idx]),
				State: int(s.Action[idx+1]),
				Prod:  int(s.Action[idx+2]),
			}
			idx += 3
		}
	}

	gIdx := 0
	for i := 0; i < s.NumStates; i++ {
		t.Goto[i] = make([]int, s.NumNonTerm)
		for j := 0; j < s.NumNonTerm; j++ {
			t.Goto[i][j] = int(s.Goto[gIdx])
			gIdx++
		}
	}

	return t, nil
}

// LoadOrBuild returns the parse table for grammarPath, reusing cachePath
// if it exists and its recorded grammar mtime is >= the grammar file's
// current mtime (spec.md §4.2 "Cache is reused iff cache mtime >= grammar
// mtime; on deserialization failure, rebuild."). Otherwise it rebuilds the
// table from src and writes a fresh cache entry.
func LoadOrBuild(grammarPath, cachePath, src string, eof grammar.SymbolID) (*Table, error) {
	info, statErr := os.Stat(grammarPath)
	var grammarMod int64
	if statErr == nil {
		grammarMod = info.ModTime().Unix()
	}

	if cachePath != "" {
		if t, ok := tryLoadCache(cachePath, grammarPath, grammarMod, eof, src); ok {
			return t, nil
		}
	}

	g, err := grammar.Load(src)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.Augment()

	t, err := Build(g, eof)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		_ = writeCache(cachePath, t, grammarPath, grammarMod)
	}

	return t, nil
}

func tryLoadCache(cachePath, grammarPath string, grammarMod int64, eof grammar.SymbolID, src string) (*Table, bool) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	s := &snapshot{}
	if _, err := rezi.DecBinary(data, s); err != nil {
		return nil, false
	}

	if s.GrammarPath != grammarPath || s.GrammarMod < grammarMod {
		return nil, false
	}

	g, err := grammar.Load(src)
	if err != nil {
		return nil, false
	}
	g.Augment()

	t, err := fromSnapshot(s, g)
	if err != nil {
		return nil, false
	}
	return t, true
}

// writeCache writes through a uniquely-named sibling temp file and renames
// it into place, so a concurrent reader of cachePath (or a compiler process
// killed mid-write) never observes a truncated cache blob. The temp name is
// suffixed with a fresh UUID rather than a PID so two compiler processes
// racing to rebuild the same stale cache never collide on the same path.
func writeCache(cachePath string, t *Table, grammarPath string, grammarMod int64) error {
	s := toSnapshot(t, grammarPath, grammarMod)
	data := rezi.EncBinary(s)

	tmpPath := cachePath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, cachePath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
