package slp

import "go/token"

// SourceContext is the formatted location information a diagnostic attaches
// to a byte offset: the resolved {file, line, column} plus up to three lines
// of surrounding source text for a caret-annotated message (spec §4.7/§7).
type SourceContext struct {
	File       string
	Line       int
	Column     int
	Lines      []string // up to 3 lines of context: the error line with at most one line either side
	CaretLine  int       // index into Lines of the line the error is on
	CaretStart int       // 0-based byte column for the caret
}

// BuildSourceContext resolves pos through fset and slices up to one line of
// leading/trailing context from src around it.
func BuildSourceContext(fset *token.FileSet, src string, pos token.Pos) SourceContext {
	position := fset.Position(pos)
	allLines := splitLines(src)

	lineIdx := position.Line - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	if lineIdx >= len(allLines) {
		lineIdx = len(allLines) - 1
	}
	if lineIdx < 0 {
		lineIdx = 0
	}

	start := lineIdx - 1
	if start < 0 {
		start = 0
	}
	end := lineIdx + 2
	if end > len(allLines) {
		end = len(allLines)
	}

	var ctx []string
	if len(allLines) > 0 {
		ctx = allLines[start:end]
	}

	return SourceContext{
		File:       position.Filename,
		Line:       position.Line,
		Column:     position.Column,
		Lines:      ctx,
		CaretLine:  lineIdx - start,
		CaretStart: position.Column - 1,
	}
}

func splitLines(src string) []string {
	if src == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, src[start:i])
			start = i + 1
		}
	}
	lines = append(lines, src[start:])
	return lines
}
