package slp

import (
	"strconv"
	"strings"
)

// Print renders c back to SLP source text such that, for any Cell built only
// from tags the parser produces (lists, datums, strings, symbols, integers,
// reals, none and quoted cells), Parse(Print(c)).Object is structurally
// Equal to c (spec §8's round-trip property). Aberrant cells print as
// "?fn<id>", which parses back as a symbol, not a lambda handle. Error cells
// print as "@" followed by their payload, which the parser reads back as an
// Error cell. Rune cells print as a Go-quoted rune literal and Environment
// cells as "<environment>"; the grammar has no literal for either, so
// neither parses back to the cell it came from.
func Print(c Cell) string {
	var sb strings.Builder
	writeCell(&sb, c)
	return sb.String()
}

// PrintProgram renders the top-level ParenList produced by Parse as a
// sequence of forms, one per line, rather than wrapped in an outer "(...)".
func PrintProgram(program Cell) string {
	program.mustBe(ParenList)
	var sb strings.Builder
	for i, item := range program.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeCell(&sb, item)
	}
	return sb.String()
}

func writeCell(sb *strings.Builder, c Cell) {
	switch c.tag {
	case None:
		sb.WriteString("none")
	case Some:
		sb.WriteByte('\'')
		writeCell(sb, *c.inner)
	case ParenList:
		writeList(sb, '(', ')', c.items)
	case BracketList:
		writeList(sb, '[', ']', c.items)
	case BraceList:
		writeList(sb, '{', '}', c.items)
	case Datum:
		sb.WriteString("#")
		writeList(sb, '(', ')', c.items)
	case DqList:
		sb.WriteByte('"')
		writeEscapedString(sb, c.str)
		sb.WriteByte('"')
	case Symbol:
		sb.WriteString(c.str)
	case Rune:
		sb.WriteString(strconv.QuoteRune(rune(c.i)))
	case Integer:
		sb.WriteString(strconv.FormatInt(c.i, 10))
	case Real:
		sb.WriteString(formatReal(c.f))
	case ErrorTag:
		sb.WriteByte('@')
		writeCell(sb, *c.inner)
	case Aberrant:
		sb.WriteString("?fn<")
		sb.WriteString(strconv.FormatUint(c.id, 10))
		sb.WriteByte('>')
	case Environment:
		sb.WriteString("<environment>")
	}
}

func writeList(sb *strings.Builder, open, closeB byte, items []Cell) {
	sb.WriteByte(open)
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeCell(sb, item)
	}
	sb.WriteByte(closeB)
}

func writeEscapedString(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(s[i])
		}
	}
}

// formatReal always keeps a decimal point ahead of any exponent, matching
// the grammar's requirement that a real literal is digits '.' digits,
// optionally followed by an exponent.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
