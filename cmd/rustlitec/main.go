/*
Rustlitec compiles a single rustlite source file to MIPS assembly.

Usage:

	rustlitec [flags] FILE

The flags are:

	-v, --version
		Print the current version and exit.

	-g, --grammar FILE
		Grammar source to build the parser tables from. Defaults to
		"grammars/rustlite.grammar".

	--cache FILE
		Parser table cache file. Defaults to "grammars/rustlite.tab.cache".

	-c, --config FILE
		Optional TOML configuration file overriding the above and the
		backend's register/argument limits.

	--emit-ir
		Print the quadruple list before the assembly it compiled to.

	--emit-cst
		Print a dump of the concrete syntax tree before the assembly.

	--dump-tables
		Print the ACTION/GOTO parser tables as an ASCII grid before the
		assembly.

	repl
		Run an interactive session instead of compiling a file: read
		snippets from stdin (GNU readline-backed when attached to a
		tty) and print the quadruples each one lowers to, without
		running the backend. A debugging aid, not part of the core
		pipeline contract.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/rustlite/internal/compiler"
	"github.com/dekarrin/rustlite/internal/version"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitCompileError
)

var (
	flagVersion    = pflag.BoolP("version", "v", false, "Print the current version and exit")
	flagGrammar    = pflag.StringP("grammar", "g", "", "Grammar source file (defaults to grammars/rustlite.grammar)")
	flagCache      = pflag.String("cache", "", "Parser table cache file (defaults to grammars/rustlite.tab.cache)")
	flagConfig     = pflag.StringP("config", "c", "", "Optional TOML configuration file")
	flagEmitIR     = pflag.Bool("emit-ir", false, "Print the quadruple list before the assembly")
	flagEmitCST    = pflag.Bool("emit-cst", false, "Print a dump of the concrete syntax tree before the assembly")
	flagDumpTables = pflag.Bool("dump-tables", false, "Print the ACTION/GOTO parser tables before the assembly")
	flagForceBuild = pflag.Bool("rebuild", false, "Force a fresh parser table build, bypassing the on-disk cache")
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	if *flagVersion {
		fmt.Println(version.Current)
		return ExitSuccess
	}

	args := pflag.Args()
	if len(args) > 0 && args[0] == "repl" {
		return runREPL()
	}

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: rustlitec [flags] FILE")
		return ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}

	res, err := compiler.CompileFile(args[0], cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitCompileError
	}

	if *flagEmitCST && res.CST != nil {
		dumpCST(os.Stdout, res.CST, 0)
	}
	if *flagDumpTables && res.TableDump != "" {
		fmt.Println(res.TableDump)
	}
	if *flagEmitIR {
		for _, q := range res.Quads {
			fmt.Println(q.String())
		}
	}
	fmt.Print(res.Assembly)
	return ExitSuccess
}

func loadConfig() (compiler.Config, error) {
	var cfg compiler.Config
	var err error
	if *flagConfig != "" {
		cfg, err = compiler.LoadConfig(*flagConfig)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = compiler.DefaultConfig()
	}

	if *flagGrammar != "" {
		cfg.GrammarPath = *flagGrammar
	}
	if *flagCache != "" {
		cfg.CachePath = *flagCache
	}
	if *flagForceBuild {
		cfg.ForceRebuild = true
	}
	if *flagEmitCST {
		cfg.EmitCST = true
	}
	if *flagDumpTables {
		cfg.DumpTables = true
	}
	return cfg, nil
}
