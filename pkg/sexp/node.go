// Package sexp provides a tolerant reader and writer for the nested
// parenthesized text format used by PCB design files. The tree it
// produces is fully generic: unknown tags and extra children pass
// through untouched, so files written by newer format revisions
// survive a decode/encode round trip.
package sexp

import (
	"fmt"
	"strconv"
)

// Kind distinguishes the three node variants.
type Kind int

const (
	KindList   Kind = iota // parenthesized group
	KindAtom               // bare token (symbol or number)
	KindString             // double-quoted string
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindAtom:
		return "atom"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Pos is a 1-based source location.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is one element of the parsed tree. Lists hold their children in
// insertion order; atoms and strings hold their text in Text.
type Node struct {
	Kind     Kind
	Pos      Pos
	Text     string
	Children []*Node
}

// Tag returns the leading atom of a list node, or "" if the node is
// not a list or its first child is not an atom.
func (n *Node) Tag() string {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return ""
	}
	first := n.Children[0]
	if first.Kind != KindAtom {
		return ""
	}
	return first.Text
}

// Find returns the first child list with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag() == tag {
			return c
		}
	}
	return nil
}

// FindAll returns every child list with the given tag, in order.
func (n *Node) FindAll(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Tag() == tag {
			out = append(out, c)
		}
	}
	return out
}

// Arg returns the i-th child after the tag atom, or nil.
// Arg(0) of (at 12.5 30) is the atom "12.5".
func (n *Node) Arg(i int) *Node {
	if n == nil || n.Kind != KindList || i+1 >= len(n.Children) {
		return nil
	}
	return n.Children[i+1]
}

// Str returns the i-th argument as text. Quoted strings are returned
// without quotes; atoms are returned verbatim. Missing args yield "".
func (n *Node) Str(i int) string {
	a := n.Arg(i)
	if a == nil || a.Kind == KindList {
		return ""
	}
	return a.Text
}

// Float returns the i-th argument parsed as a real number. An absent
// or non-numeric argument is an error carrying the argument position.
func (n *Node) Float(i int) (float64, error) {
	a := n.Arg(i)
	if a == nil {
		return 0, &ParseError{Pos: n.Pos, Msg: fmt.Sprintf("(%s): missing numeric argument %d", n.Tag(), i)}
	}
	if a.Kind == KindList {
		return 0, &ParseError{Pos: a.Pos, Msg: fmt.Sprintf("(%s): argument %d is a group, want number", n.Tag(), i)}
	}
	v, err := strconv.ParseFloat(a.Text, 64)
	if err != nil {
		return 0, &ParseError{Pos: a.Pos, Msg: fmt.Sprintf("invalid numeric literal %q", a.Text)}
	}
	return v, nil
}

// Int is Float narrowed to an integer literal.
func (n *Node) Int(i int) (int, error) {
	a := n.Arg(i)
	if a == nil || a.Kind == KindList {
		return 0, &ParseError{Pos: n.Pos, Msg: fmt.Sprintf("(%s): missing integer argument %d", n.Tag(), i)}
	}
	v, err := strconv.Atoi(a.Text)
	if err != nil {
		return 0, &ParseError{Pos: a.Pos, Msg: fmt.Sprintf("invalid integer literal %q", a.Text)}
	}
	return v, nil
}

// ParseError is a fatal syntax error with a source location.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}
