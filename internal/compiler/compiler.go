package compiler

import (
	"os"

	"github.com/dekarrin/rustlite/internal/codegen"
	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/lexer"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/parsetab"
	"github.com/dekarrin/rustlite/internal/semantic"
	"github.com/dekarrin/rustlite/internal/token"
)

// Result is everything a successful Compile produces: the final MIPS
// assembly text, the quadruple list that produced it (for --emit-ir), and
// (when Config.EmitCST is set) the parse tree, for the --emit-cst
// debugging path described by SPEC_FULL.md's CLI section.
type Result struct {
	Assembly string
	Quads    []ir.Quad
	CST      *parser.Node

	// TableDump holds the rendered ACTION/GOTO grid when Config.DumpTables
	// is set, for the --dump-tables debugging path.
	TableDump string
}

// Compile runs the whole pipeline of spec.md §4 over src: lex, parse
// (against a cached or freshly built table) with the semantic analyzer
// acting as the parser's Reducer, then lower the resulting quadruples to
// assembly. Each call uses a fresh Analyzer, since spec.md §5 requires
// "multiple compilations must use distinct instances."
func Compile(src string, cfg Config) (*Result, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}

	grammarSrc, err := os.ReadFile(cfg.GrammarPath)
	if err != nil {
		return nil, err
	}

	var tab *parsetab.Table
	if cfg.ForceRebuild {
		tab, err = buildTable(string(grammarSrc))
	} else {
		tab, err = parsetab.LoadOrBuild(cfg.GrammarPath, cfg.CachePath, string(grammarSrc), grammar.SymbolID(token.EOF))
	}
	if err != nil {
		return nil, err
	}

	analyzer := semantic.New()
	parseResult, err := parser.Parse(tab, lexer.NewStream(toks), analyzer)
	if err != nil {
		return nil, err
	}

	asm, err := codegen.GenerateWithOptions(parseResult.Code, analyzer.Funcs(), codegen.Options{
		RegisterCount: cfg.RegisterCount,
		MaxCallArgs:   cfg.MaxCallArgs,
	})
	if err != nil {
		return nil, err
	}

	out := &Result{Assembly: asm, Quads: parseResult.Code}
	if cfg.EmitCST {
		out.CST = parseResult.CST
	}
	if cfg.DumpTables {
		out.TableDump = tab.Dump()
	}
	return out, nil
}

// CompileFile reads path and runs Compile over its contents.
func CompileFile(path string, cfg Config) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(string(data), cfg)
}

// buildTable forces a fresh grammar load and table build, bypassing
// parsetab's on-disk cache entirely (Config.ForceRebuild).
func buildTable(grammarSrc string) (*parsetab.Table, error) {
	g, err := grammar.Load(grammarSrc)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.Augment()
	return parsetab.Build(g, grammar.SymbolID(token.EOF))
}
