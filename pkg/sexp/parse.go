package sexp

import (
	"fmt"
	"strings"
)

// Parse reads one top-level group from src and returns its tree.
// The grammar is deliberately loose: any balanced arrangement of
// atoms, quoted strings, and groups parses, regardless of tags.
func Parse(src string) (*Node, error) {
	p := &parser{src: src, line: 1, col: 1}
	p.skipSpace()
	if p.eof() {
		return nil, &ParseError{Pos: p.pos(), Msg: "empty input"}
	}
	n, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, &ParseError{Pos: p.pos(), Msg: "trailing content after top-level group"}
	}
	if n.Kind != KindList {
		return nil, &ParseError{Pos: n.Pos, Msg: "top level must be a parenthesized group"}
	}
	return n, nil
}

type parser struct {
	src  string
	off  int
	line int
	col  int
}

func (p *parser) pos() Pos { return Pos{Line: p.line, Col: p.col} }

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.off] }

func (p *parser) advance() byte {
	c := p.src[p.off]
	p.off++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance()
		default:
			return
		}
	}
}

// value parses a group, string, or atom at the current position.
func (p *parser) value() (*Node, error) {
	switch p.peek() {
	case '(':
		return p.group()
	case ')':
		return nil, &ParseError{Pos: p.pos(), Msg: "unexpected ')'"}
	case '"':
		return p.quoted()
	default:
		return p.atom()
	}
}

// group parses a parenthesized list. The error for an unterminated
// group points at its opening parenthesis.
func (p *parser) group() (*Node, error) {
	open := p.pos()
	p.advance() // consume '('
	n := &Node{Kind: KindList, Pos: open}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, &ParseError{Pos: open, Msg: "unterminated group: missing ')'"}
		}
		if p.peek() == ')' {
			p.advance()
			return n, nil
		}
		child, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
}

func (p *parser) quoted() (*Node, error) {
	start := p.pos()
	p.advance() // consume '"'
	var sb strings.Builder
	for {
		if p.eof() {
			return nil, &ParseError{Pos: start, Msg: "unterminated string"}
		}
		c := p.advance()
		switch c {
		case '"':
			return &Node{Kind: KindString, Pos: start, Text: sb.String()}, nil
		case '\\':
			if p.eof() {
				return nil, &ParseError{Pos: start, Msg: "unterminated string"}
			}
			esc := p.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(esc)
			default:
				// Unknown escapes pass through so newer format
				// revisions do not break the reader.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func (p *parser) atom() (*Node, error) {
	start := p.pos()
	begin := p.off
	for !p.eof() {
		c := p.peek()
		if c == '(' || c == ')' || c == '"' || c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			break
		}
		p.advance()
	}
	text := p.src[begin:p.off]
	if text == "" {
		return nil, &ParseError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", p.peek())}
	}
	return &Node{Kind: KindAtom, Pos: start, Text: text}, nil
}
