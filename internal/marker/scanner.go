package marker

import (
	"fmt"

	"github.com/charmbracelet/log"

	"asmregion/internal/asm"
	"asmregion/internal/isa"
)

type markerKind int

const (
	noMarker markerKind = iota
	startMarker
	endMarker
)

// Scanner locates the start and end markers of one architecture.
type Scanner struct {
	profile isa.Profile
	logger  *log.Logger
}

// NewScanner returns a scanner for profile. Malformed marker candidates are
// reported to logger; a nil logger uses the charm default logger.
func NewScanner(profile isa.Profile, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{profile: profile, logger: logger}
}

// Find returns the half-open kernel range [start, end) in a single forward
// pass. start is the first line after the start marker's byte payload and
// end is the line of the end marker's move. Either is -1 when its marker
// is missing. The first occurrence of each marker wins.
func (s *Scanner) Find(lines asm.Stream) (start, end int) {
	start, end = -1, -1
	for i := range lines {
		kind, pos, err := s.step(lines, i)
		if err != nil {
			s.logger.Warn("skipping malformed marker candidate",
				"index", i, "line", lines[i].String(), "err", err)
			continue
		}
		switch kind {
		case startMarker:
			if start == -1 {
				start = pos
			}
		case endMarker:
			if end == -1 {
				end = pos
			}
		}
		if start != -1 && end != -1 {
			break
		}
	}
	return start, end
}

// step classifies line i. A non-nil error means the line looked like a
// marker move but could not be inspected.
func (s *Scanner) step(lines asm.Stream, i int) (markerKind, int, error) {
	line := lines[i]
	if !s.profile.IsMove(line.Instruction) || i+1 >= len(lines) || lines[i+1].Directive == nil {
		return noMarker, 0, nil
	}

	srcIdx, dstIdx := 0, 1
	if s.profile.OperandOrderReversed {
		srcIdx, dstIdx = 1, 0
	}
	if len(line.Operands) < 2 {
		return noMarker, 0, fmt.Errorf("%s has %d operand(s), want 2", line.Instruction, len(line.Operands))
	}

	dst, ok := line.Operands[dstIdx].(asm.Register)
	if !ok || s.profile.Syntax.CanonicalRegister(dst) != s.profile.MarkerRegister {
		return noMarker, 0, nil
	}
	src, ok := line.Operands[srcIdx].(asm.Immediate)
	if !ok {
		return noMarker, 0, nil
	}
	value, err := s.profile.Syntax.NormalizeImmediate(src)
	if err != nil {
		return noMarker, 0, err
	}

	switch value {
	case s.profile.StartValue:
		if match, count := MatchBytes(lines, i+1, s.profile.NopBytes); match {
			return startMarker, i + 1 + count, nil
		}
	case s.profile.EndValue:
		if match, _ := MatchBytes(lines, i+1, s.profile.NopBytes); match {
			return endMarker, i, nil
		}
	}
	return noMarker, 0, nil
}
