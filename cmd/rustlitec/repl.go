package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/lexer"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/parsetab"
	"github.com/dekarrin/rustlite/internal/semantic"
	"github.com/dekarrin/rustlite/internal/token"
)

// runREPL feeds one line at a time through the lexer/parser/analyzer and
// prints the quadruples it produced, without running the code generator.
// Each line is parsed as a whole program, so it must hold one or more
// complete fn declarations; a bare statement is a parse error. Grounded on
// the teacher's internal/input.InteractiveCommandReader (a
// readline.Instance wrapped for line-at-a-time input). The parser table is
// loaded from the cache (or built) once up front, and a fresh Analyzer is
// used per line, so lines do not share scope.
func runREPL() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}

	grammarSrc, err := os.ReadFile(cfg.GrammarPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}
	tab, err := parsetab.LoadOrBuild(cfg.GrammarPath, cfg.CachePath, string(grammarSrc), grammar.SymbolID(token.EOF))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "rustlite> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitCompileError
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		toks, err := lexer.Lex(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lex error: %s\n", err.Error())
			continue
		}
		result, err := parser.Parse(tab, lexer.NewStream(toks), semantic.New())
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %s\n", err.Error())
			continue
		}
		for _, q := range result.Code {
			fmt.Println(q.String())
		}
	}
}
