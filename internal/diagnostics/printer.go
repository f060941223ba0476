package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI fragments used by the printer.
const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
)

// Printer renders diagnostics for humans. Color is used only when the
// destination is a terminal and not suppressed.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter builds a printer for out, detecting TTY capability when
// out is a real file descriptor.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	color := false
	if f, ok := out.(*os.File); ok && !noColor {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{out: out, color: color}
}

// Print writes each diagnostic on its own line, prefixed with the
// manifest path. Returns the number printed.
func (p *Printer) Print(path string, all []*DiagnosticError) int {
	for _, d := range all {
		pos := ""
		if d.Line > 0 {
			pos = fmt.Sprintf(":%d:%d", d.Line, d.Column)
		}
		if p.color {
			fmt.Fprintf(p.out, "%s%s%s%s %s%s%s %s\n",
				ansiBold, path, pos, ansiReset,
				ansiRed, d.Code, ansiReset,
				d.Message)
		} else {
			fmt.Fprintf(p.out, "%s%s %s %s\n", path, pos, d.Code, d.Message)
		}
	}
	if n := len(all); n > 0 {
		noun := "errors"
		if n == 1 {
			noun = "error"
		}
		if p.color {
			fmt.Fprintf(p.out, "%s%d %s%s\n", ansiDim, n, noun, ansiReset)
		} else {
			fmt.Fprintf(p.out, "%d %s\n", n, noun)
		}
	}
	return len(all)
}
