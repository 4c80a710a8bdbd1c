package cfg

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"asmregion/internal/asm"
)

// LoopBodies returns the labels whose forward walk branches back to the
// label itself before branching to any other jump label. The body runs
// from the label's line through that branch. Labels leaving to another
// label first, or never branching, are absent.
func LoopBodies(lines asm.Stream) *Blocks {
	valid := jumpLabelSpans(lines)
	loops := orderedmap.New[string, asm.Stream]()
	for p := valid.Oldest(); p != nil; p = p.Next() {
		start := p.Value.start
		for i := start; i < len(lines); i++ {
			target, ok := jumpTarget(lines[i], valid)
			if !ok {
				continue
			}
			if target == p.Key {
				loops.Set(p.Key, lines[start:i+1:i+1])
			}
			break
		}
	}
	return loops
}
