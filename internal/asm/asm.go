// Package asm defines the parsed assembly line records shared by the
// dialect parsers and the region/control-flow analyses.
package asm

import (
	"fmt"
	"strings"
)

// Operand is one instruction operand. The set of variants is closed:
// Register, Immediate, Identifier and Memory.
type Operand interface {
	fmt.Stringer
	operand()
}

// Register is a register operand as written in the source, without any
// syntax prefix (the x86 '%').
type Register struct {
	Name string
}

// Immediate is a literal value operand, without the '$' or '#' prefix.
type Immediate struct {
	Literal string
}

// Identifier is a symbolic reference such as a jump or call target.
type Identifier struct {
	Name string
}

// Memory is an address operand. Only the raw text and the components the
// parsers can recover cheaply are kept.
type Memory struct {
	Offset string
	Base   string
	Index  string
	Scale  string
	Raw    string
}

func (Register) operand()   {}
func (Immediate) operand()  {}
func (Identifier) operand() {}
func (Memory) operand()     {}

func (r Register) String() string   { return r.Name }
func (i Immediate) String() string  { return i.Literal }
func (i Identifier) String() string { return i.Name }
func (m Memory) String() string     { return m.Raw }

// Directive is an assembler directive, e.g. ".byte 100,103,144" has Name
// "byte" and Parameters ["100", "103", "144"].
type Directive struct {
	Name       string
	Parameters []string
}

// Line is one parsed assembly record.
type Line struct {
	Index       int       // position in the stream
	LineNumber  int       // 1-based line in the source text
	Label       string    // empty when the line defines no label
	Instruction string    // lowercase mnemonic, empty for non-instruction lines
	Operands    []Operand // in source order
	Directive   *Directive
	Text        string // source text, comments included
}

// HasLabel reports whether the line defines a label.
func (l Line) HasLabel() bool { return l.Label != "" }

// HasInstruction reports whether the line carries an executable instruction.
func (l Line) HasInstruction() bool { return l.Instruction != "" }

// IsDirective reports whether the line carries a directive with the given
// name. An empty name matches any directive.
func (l Line) IsDirective(name string) bool {
	if l.Directive == nil {
		return false
	}
	return name == "" || l.Directive.Name == name
}

// Identifiers returns the names of all Identifier operands of an
// instruction line, in operand order.
func (l Line) Identifiers() []string {
	if !l.HasInstruction() {
		return nil
	}
	var names []string
	for _, op := range l.Operands {
		if id, ok := op.(Identifier); ok {
			names = append(names, id.Name)
		}
	}
	return names
}

// String renders the line in a normalized form. Text is preferred when
// present.
func (l Line) String() string {
	if l.Text != "" {
		return strings.TrimRight(l.Text, " \t")
	}
	var sb strings.Builder
	if l.Label != "" {
		sb.WriteString(l.Label + ":")
	}
	switch {
	case l.HasInstruction():
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.Instruction)
		for i, op := range l.Operands {
			if i == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString(op.String())
		}
	case l.Directive != nil:
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("." + l.Directive.Name)
		if len(l.Directive.Parameters) > 0 {
			sb.WriteString(" " + strings.Join(l.Directive.Parameters, ", "))
		}
	}
	return sb.String()
}

// Stream is an ordered sequence of parsed lines.
type Stream []Line

// Texts returns the source text of every line, handy for printing and
// comparisons.
func (s Stream) Texts() []string {
	out := make([]string, len(s))
	for i, l := range s {
		out[i] = l.String()
	}
	return out
}
