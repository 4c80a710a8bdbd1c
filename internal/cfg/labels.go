// Package cfg derives jump labels, basic blocks and self-looping bodies
// from a parsed assembly stream.
//
// Every result is an ordered map keyed by label name in first-seen order.
// Values are views into the input stream; nothing is copied or modified.
// Duplicate label names are not supported: a repeated label replaces the
// start of the earlier one and the resulting spans are unspecified.
package cfg

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"asmregion/internal/asm"
)

// Labels maps label names to the line defining them.
type Labels = orderedmap.OrderedMap[string, asm.Line]

// Blocks maps label names to a run of lines.
type Blocks = orderedmap.OrderedMap[string, asm.Stream]

// span is the half-open line range [start, end) a label introduces.
type span struct {
	start, end int
}

type spans = orderedmap.OrderedMap[string, span]

// JumpLabels returns the labels that are real control-flow targets: those
// whose span contains at least one instruction. Labels heading only
// directives (sections, alignment, data) are dropped.
func JumpLabels(lines asm.Stream) *Labels {
	out := orderedmap.New[string, asm.Line]()
	for p := jumpLabelSpans(lines).Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, lines[p.Value.start])
	}
	return out
}

// jumpLabelSpans collects every label's span in one pass and then drops
// the directive-only ones.
func jumpLabelSpans(lines asm.Stream) *spans {
	all := orderedmap.New[string, span]()
	current, open := "", false
	for i, l := range lines {
		if !l.HasLabel() {
			continue
		}
		if open {
			if sp, ok := all.Get(current); ok {
				sp.end = i
				all.Set(current, sp)
			}
		}
		all.Set(l.Label, span{start: i, end: len(lines)})
		current, open = l.Label, true
	}

	for p := all.Oldest(); p != nil; {
		next := p.Next()
		if !hasInstruction(lines[p.Value.start:p.Value.end]) {
			all.Delete(p.Key)
		}
		p = next
	}
	return all
}

func hasInstruction(lines asm.Stream) bool {
	for _, l := range lines {
		if l.HasInstruction() {
			return true
		}
	}
	return false
}

// jumpTarget returns the first identifier operand of l naming a valid jump
// label.
func jumpTarget(l asm.Line, valid *spans) (string, bool) {
	for _, name := range l.Identifiers() {
		if _, ok := valid.Get(name); ok {
			return name, true
		}
	}
	return "", false
}
