package marker

import "asmregion/internal/asm"

// MatchBytes reports whether the .byte directives starting at index encode
// expected as a prefix. The bytes may be spread over several consecutive
// directive lines; count is the number of directive lines read, or -1 on
// mismatch.
func MatchBytes(lines asm.Stream, index int, expected []string) (match bool, count int) {
	var got []string
	for i := index; i >= 0 && i < len(lines) && lines[i].IsDirective("byte"); i++ {
		got = append(got, lines[i].Directive.Parameters...)
		count++
	}
	if len(got) < len(expected) {
		return false, -1
	}
	for i, b := range expected {
		if got[i] != b {
			return false, -1
		}
	}
	return true, count
}
