// Package parser turns assembly source text into asm line records for the
// supported dialects: AT&T-syntax x86 and ARMv8.1-A.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"asmregion/internal/asm"
)

// Parser parses one dialect and provides the operand helpers the marker
// scanner needs.
type Parser interface {
	// Name returns the dialect name.
	Name() string
	// ParseLine parses a single source line. A line defining a label and
	// an instruction ("L1: nop") yields two records. Index and LineNumber
	// are left for the caller to fill in.
	ParseLine(text string) ([]asm.Line, error)
	// NormalizeImmediate converts an immediate literal to its integer value.
	NormalizeImmediate(imm asm.Immediate) (int64, error)
	// CanonicalRegister returns the canonical name of a register.
	CanonicalRegister(reg asm.Register) string
}

// LineError reports a parse failure with its source position.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Append parses text as source line lineNumber and appends the resulting
// records to s, assigning stream indices.
func Append(s asm.Stream, p Parser, lineNumber int, text string) (asm.Stream, error) {
	recs, err := p.ParseLine(text)
	if err != nil {
		return s, &LineError{Line: lineNumber, Text: text, Err: err}
	}
	for _, rec := range recs {
		rec.Index = len(s)
		rec.LineNumber = lineNumber
		s = append(s, rec)
	}
	return s, nil
}

// Parse reads a whole source file.
func Parse(p Parser, r io.Reader) (asm.Stream, error) {
	var s asm.Stream
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		var err error
		if s, err = Append(s, p, n, sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return s, nil
}

// ParseStrings parses each string as one source line.
func ParseStrings(p Parser, lines ...string) (asm.Stream, error) {
	var s asm.Stream
	for i, text := range lines {
		var err error
		if s, err = Append(s, p, i+1, text); err != nil {
			return nil, err
		}
	}
	return s, nil
}

var (
	labelLine     = regexp.MustCompile(`^\s*([A-Za-z_.$][\w.$@]*|\d+)\s*:(.*)$`)
	directiveLine = regexp.MustCompile(`^\.([A-Za-z_][\w.]*)(?:\s+(.*))?$`)
)

// splitLine does the dialect-independent part of line parsing. body is the
// comment-free text; operands are handed to parseOperands when the line
// holds an instruction.
func splitLine(text, body string, parseInstruction func(string) (asm.Line, error)) ([]asm.Line, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return []asm.Line{{Text: text}}, nil
	}

	var recs []asm.Line
	if m := labelLine.FindStringSubmatch(body); m != nil {
		recs = append(recs, asm.Line{Label: m[1], Text: strings.TrimSpace(m[1]) + ":"})
		body = strings.TrimSpace(m[2])
		if body == "" {
			return recs, nil
		}
		text = body
	}

	if m := directiveLine.FindStringSubmatch(body); m != nil {
		recs = append(recs, asm.Line{
			Directive: &asm.Directive{
				Name:       m[1],
				Parameters: splitTopLevel(m[2]),
			},
			Text: text,
		})
		return recs, nil
	}

	line, err := parseInstruction(body)
	if err != nil {
		return nil, err
	}
	line.Text = text
	return append(recs, line), nil
}

// splitMnemonic separates the mnemonic from the operand text.
func splitMnemonic(body string) (string, string) {
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return strings.ToLower(body), ""
	}
	return strings.ToLower(body[:i]), strings.TrimSpace(body[i+1:])
}

// splitTopLevel splits s on commas that are not nested in brackets or
// quotes. Empty fields are dropped.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			if f := strings.TrimSpace(s[start:i]); f != "" {
				out = append(out, f)
			}
			start = i + 1
		}
	}
	if f := strings.TrimSpace(s[start:]); f != "" {
		out = append(out, f)
	}
	return out
}

// stripComment cuts s at the first occurrence of marker outside quotes.
func stripComment(s, marker string) string {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(s[i:], marker):
			return s[:i]
		}
	}
	return s
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		if s == "" {
			return false
		}
		for _, c := range s {
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
