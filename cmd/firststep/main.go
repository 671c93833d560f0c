package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/its-hmny/firststep/pkg/interp"
	"github.com/its-hmny/firststep/pkg/irgen"
	"github.com/its-hmny/firststep/pkg/lexer"
	"github.com/its-hmny/firststep/pkg/parser"
	"github.com/its-hmny/firststep/pkg/riscv"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/teris-io/cli"
)

var description = strings.ReplaceAll(`
Firststep is a toolchain for a tiny statically-scoped procedural language: it
either interprets a program directly or compiles it to RISC-V 32-bit
assembly. Functions, if/else, integer arithmetic and two built-ins (input,
print) are the whole of the language.
`, "\n", " ")

var Firststep = cli.New(description).
	WithArg(cli.NewArg("input", "The source file to interpret or compile")).
	WithOption(cli.NewOption("c", "Compile to RISC-V assembly instead of interpreting").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("o", "Output file for -c (defaults to standard output)").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(errSink, "usage: firststep <input> [-c [-o <output>]]")
		return 1
	}

	src, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(errSink, "error: cannot open %q: %s\n", args[0], err)
		return 1
	}
	defer src.Close()

	if _, compile := options["c"]; compile {
		out := io.Writer(os.Stdout)
		if path, hasOut := options["o"]; hasOut {
			outFile, err := os.Create(path)
			if err != nil {
				fmt.Fprintf(errSink, "error: cannot open %q: %s\n", path, err)
				return 1
			}
			defer outFile.Close()
			out = outFile
		}
		return runCompile(src, out)
	}

	return runInterpret(src)
}

// runInterpret registers every top-level function definition before
// evaluating 'main': parse everything, then run, as opposed to the compile
// path below.
func runInterpret(src io.Reader) int {
	lex := lexer.New(src, errSink)
	p := parser.New(lex, errSink)
	ip := interp.New(os.Stdin, os.Stdout, errSink)

	for {
		fn := p.ParseNext()
		if fn == nil {
			break
		}
		if !ip.AddFunctionDef(fn) {
			break
		}
	}

	if errNum := lex.ErrorCount() + p.ErrorCount() + ip.ErrorCount(); errNum > 0 {
		return errNum
	}

	ret, ok := ip.Eval()
	if !ok {
		return ip.ErrorCount()
	}
	return int(ret)
}

// runCompile lowers and registers each function as it is parsed: a later
// call may reference an earlier function, never the reverse.
func runCompile(src io.Reader, out io.Writer) int {
	lex := lexer.New(src, errSink)
	p := parser.New(lex, errSink)
	gen := irgen.New(errSink)

	for {
		fn := p.ParseNext()
		if fn == nil {
			break
		}
		gen.GenerateFunDef(fn)
		if gen.ErrorCount() > 0 {
			break
		}
	}

	if errNum := lex.ErrorCount() + p.ErrorCount() + gen.ErrorCount(); errNum > 0 {
		return errNum
	}

	riscv.New(out).EmitModule(gen.Module())
	return 0
}

// errSink colorizes diagnostics written by the lexer/parser/interp/irgen
// packages when standard error is a terminal; the diagnostic text and exit
// codes are unaffected either way.
var errSink io.Writer = newErrSink(os.Stderr)

type colorSink struct {
	w       io.Writer
	colored bool
}

func newErrSink(f *os.File) io.Writer {
	return &colorSink{w: f, colored: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (c *colorSink) Write(p []byte) (int, error) {
	if !c.colored {
		return c.w.Write(p)
	}
	if _, err := io.WriteString(c.w, color.RedString("%s", p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func main() { os.Exit(Firststep.Run(os.Args, os.Stdout)) }
