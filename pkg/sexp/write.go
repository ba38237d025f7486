package sexp

import (
	"strings"
)

// Encode renders a tree back to text. Formatting normalizes (one space
// between siblings, nested groups indented) but content is preserved
// exactly, including nodes the projection layer never looked at.
func Encode(n *Node) string {
	var sb strings.Builder
	write(&sb, n, 0)
	sb.WriteByte('\n')
	return sb.String()
}

func write(sb *strings.Builder, n *Node, depth int) {
	switch n.Kind {
	case KindAtom:
		sb.WriteString(n.Text)
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(escape(n.Text))
		sb.WriteByte('"')
	case KindList:
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				if c.Kind == KindList && hasNestedList(n) {
					sb.WriteByte('\n')
					sb.WriteString(strings.Repeat("  ", depth+1))
				} else {
					sb.WriteByte(' ')
				}
			}
			write(sb, c, depth+1)
		}
		sb.WriteByte(')')
	}
}

// hasNestedList reports whether a list contains list children, which
// controls whether its children are laid out one per line.
func hasNestedList(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == KindList && len(c.Children) > 2 {
			return true
		}
	}
	return false
}

func escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
