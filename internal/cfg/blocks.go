package cfg

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"asmregion/internal/asm"
)

// BasicBlocks returns, for every jump label, the straight-line run of
// lines that leads into it.
//
// The walk for each label restarts at the top of the stream and stops at
// the first line that either branches to a jump label or defines a label
// of its own (a label on the very first line opens the run instead of
// closing it). The run includes the stopping line and never reaches the
// label's own line. A label on the first line gets an empty block.
func BasicBlocks(lines asm.Stream) *Blocks {
	valid := jumpLabelSpans(lines)
	blocks := orderedmap.New[string, asm.Stream]()
	for p := valid.Oldest(); p != nil; p = p.Next() {
		n := 0
		for i := 0; i < p.Value.start; i++ {
			n = i + 1
			l := lines[i]
			if _, ok := jumpTarget(l, valid); ok {
				break
			}
			if i > 0 && l.HasLabel() {
				break
			}
		}
		blocks.Set(p.Key, lines[:n:n])
	}
	return blocks
}
