package parser

import (
	"fmt"
	"strconv"
	"strings"

	"asmregion/internal/asm"
)

// x86 instruction prefixes that GAS accepts in front of a mnemonic.
var x86Prefixes = map[string]bool{
	"lock": true, "rep": true, "repe": true, "repz": true,
	"repne": true, "repnz": true, "notrack": true, "bnd": true,
	"data16": true, "addr32": true,
}

// X86ATT parses AT&T-syntax x86 assembly as emitted by GCC and Clang.
type X86ATT struct{}

// NewX86ATT returns an AT&T x86 parser.
func NewX86ATT() *X86ATT { return &X86ATT{} }

func (*X86ATT) Name() string { return "x86 AT&T" }

func (p *X86ATT) ParseLine(text string) ([]asm.Line, error) {
	return splitLine(text, stripComment(text, "#"), p.parseInstruction)
}

func (p *X86ATT) parseInstruction(body string) (asm.Line, error) {
	mnemonic, rest := splitMnemonic(body)
	if x86Prefixes[mnemonic] && rest != "" {
		var next string
		next, rest = splitMnemonic(rest)
		mnemonic += " " + next
	}
	line := asm.Line{Instruction: mnemonic}
	for _, field := range splitTopLevel(rest) {
		op, err := p.parseOperand(field)
		if err != nil {
			return asm.Line{}, err
		}
		line.Operands = append(line.Operands, op)
	}
	return line, nil
}

func (p *X86ATT) parseOperand(s string) (asm.Operand, error) {
	s = strings.TrimPrefix(s, "*")
	switch {
	case s == "":
		return nil, fmt.Errorf("empty operand")
	case strings.HasPrefix(s, "$"):
		if len(s) == 1 {
			return nil, fmt.Errorf("empty immediate")
		}
		return asm.Immediate{Literal: s[1:]}, nil
	case strings.Contains(s, "("):
		return parseX86Memory(s)
	case strings.HasPrefix(s, "%"):
		if strings.Contains(s, ":") {
			// segment override with absolute offset, e.g. %fs:0x28
			return asm.Memory{Raw: s}, nil
		}
		if len(s) == 1 {
			return nil, fmt.Errorf("empty register name")
		}
		return asm.Register{Name: strings.ToLower(s[1:])}, nil
	case isNumeric(s):
		return asm.Memory{Offset: s, Raw: s}, nil
	default:
		return asm.Identifier{Name: s}, nil
	}
}

// parseX86Memory parses offset(base,index,scale) with an optional segment
// override.
func parseX86Memory(s string) (asm.Operand, error) {
	open := strings.Index(s, "(")
	if !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("unterminated memory operand %q", s)
	}
	m := asm.Memory{Raw: s, Offset: strings.TrimSpace(s[:open])}
	if i := strings.LastIndex(m.Offset, ":"); i >= 0 {
		m.Offset = m.Offset[i+1:]
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	reg := func(r string) string { return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r), "%")) }
	if len(parts) > 0 {
		m.Base = reg(parts[0])
	}
	if len(parts) > 1 {
		m.Index = reg(parts[1])
	}
	if len(parts) > 2 {
		m.Scale = strings.TrimSpace(parts[2])
	}
	return m, nil
}

// NormalizeImmediate accepts decimal, hex (0x) and octal (leading 0)
// literals, with or without the '$' prefix.
func (*X86ATT) NormalizeImmediate(imm asm.Immediate) (int64, error) {
	lit := strings.TrimPrefix(strings.TrimSpace(imm.Literal), "$")
	v, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q: %w", imm.Literal, err)
	}
	return v, nil
}

// CanonicalRegister returns the lowercase register name without the '%'
// prefix. Sub-registers are not widened: %ebx stays "ebx".
func (*X86ATT) CanonicalRegister(reg asm.Register) string {
	return strings.ToLower(strings.TrimPrefix(reg.Name, "%"))
}
