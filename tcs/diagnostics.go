package tcs

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/slp-lang/slp/slp"
)

// Diagnostic is one collected static error (spec §4.7/§7). The checker does
// not stop at the first one unless the surrounding construct's type is
// unrecoverable (see Checker.errorAt's callers).
type Diagnostic struct {
	Category string // "type_error", "unknown_symbol", "redefinition", "arity_error", "import_error", ...
	Message  string
	Pos      token.Pos
}

func (d Diagnostic) Error() string { return fmt.Sprintf("%s: %s", d.Category, d.Message) }

// Format renders d exactly as spec §4.7/§7 describes: "category: message"
// followed by the resolved {file, line, column} and up to three lines of
// source context with a caret under the offending token. Color codes are
// applied when w is a terminal (checked via isatty), stripped otherwise —
// the same pairing hashicorp/nomad, DataDog/datadog-agent, upbound/up and
// simon-lentz/yammm carry fatih/color alongside mattn/go-isatty for.
func Format(fset *token.FileSet, src string, d Diagnostic, w *os.File) string {
	colorize := w != nil && isatty.IsTerminal(w.Fd())
	headline := fmt.Sprintf("%s: %s", d.Category, d.Message)

	var sb strings.Builder
	if colorize {
		sb.WriteString(color.New(color.FgRed, color.Bold).Sprint(headline))
	} else {
		sb.WriteString(headline)
	}
	sb.WriteByte('\n')

	if fset == nil || d.Pos == token.NoPos {
		return sb.String()
	}
	ctx := slp.BuildSourceContext(fset, src, d.Pos)
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", ctx.File, ctx.Line, ctx.Column)
	for i, line := range ctx.Lines {
		fmt.Fprintf(&sb, "  %s\n", line)
		if i == ctx.CaretLine {
			caret := strings.Repeat(" ", ctx.CaretStart) + "^"
			if colorize {
				caret = color.New(color.FgRed).Sprint(caret)
			}
			fmt.Fprintf(&sb, "  %s\n", caret)
		}
	}
	return sb.String()
}

// FormatAll renders every diagnostic in diags, in order, each terminated by
// a blank line.
func FormatAll(fset *token.FileSet, src string, diags []Diagnostic, w *os.File) string {
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(Format(fset, src, d, w))
		sb.WriteByte('\n')
	}
	return sb.String()
}
