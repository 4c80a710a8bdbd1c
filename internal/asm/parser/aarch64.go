package parser

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"asmregion/internal/asm"
)

// aarch64Registers holds every register name GAS accepts for ARMv8,
// lowercased. The architectural names come from the arm64asm tables;
// aliases are added by hand.
var aarch64Registers = func() map[string]bool {
	regs := map[string]bool{
		"sp": true, "wsp": true, "lr": true, "fp": true,
		"xzr": true, "wzr": true,
	}
	for r := arm64asm.W0; r <= arm64asm.V31; r++ {
		regs[strings.ToLower(r.String())] = true
	}
	return regs
}()

// AArch64 parses ARMv8.1-A assembly in GNU syntax.
type AArch64 struct{}

// NewAArch64 returns an AArch64 parser.
func NewAArch64() *AArch64 { return &AArch64{} }

func (*AArch64) Name() string { return "AArch64" }

func (p *AArch64) ParseLine(text string) ([]asm.Line, error) {
	return splitLine(text, stripComment(text, "//"), p.parseInstruction)
}

func (p *AArch64) parseInstruction(body string) (asm.Line, error) {
	mnemonic, rest := splitMnemonic(body)
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

func (p *AArch64) parseOperand(s string) (asm.Operand, error) {
	switch {
	case s == "":
		return nil, fmt.Errorf("empty operand")
	case strings.HasPrefix(s, "#"):
		if len(s) == 1 {
			return nil, fmt.Errorf("empty immediate")
		}
		return asm.Immediate{Literal: s[1:]}, nil
	case strings.HasPrefix(s, "["):
		return parseAArch64Memory(s)
	case strings.HasPrefix(s, "{"):
		// register list, e.g. {v0.4s, v1.4s}
		return asm.Register{Name: strings.ToLower(s)}, nil
	case strings.HasPrefix(s, "="):
		return asm.Identifier{Name: s[1:]}, nil
	case isAArch64Register(s):
		return asm.Register{Name: strings.ToLower(s)}, nil
	case isNumeric(s):
		return asm.Immediate{Literal: s}, nil
	default:
		return asm.Identifier{Name: s}, nil
	}
}

func parseAArch64Memory(s string) (asm.Operand, error) {
	end := strings.Index(s, "]")
	if end < 0 {
		return nil, fmt.Errorf("unterminated memory operand %q", s)
	}
	m := asm.Memory{Raw: s}
	parts := splitTopLevel(s[1:end])
	if len(parts) > 0 {
		m.Base = strings.ToLower(parts[0])
	}
	if len(parts) > 1 {
		if strings.HasPrefix(parts[1], "#") {
			m.Offset = parts[1][1:]
		} else {
			m.Index = strings.ToLower(parts[1])
		}
	}
	return m, nil
}

// registerBase strips a vector arrangement or lane suffix: v0.4s -> v0,
// v1.s[2] -> v1.
func registerBase(s string) string {
	if i := strings.IndexAny(s, ".["); i >= 0 {
		return s[:i]
	}
	return s
}

func isAArch64Register(s string) bool {
	return aarch64Registers[strings.ToLower(registerBase(s))]
}

// NormalizeImmediate accepts decimal and hex literals, with or without the
// '#' prefix.
func (*AArch64) NormalizeImmediate(imm asm.Immediate) (int64, error) {
	lit := strings.TrimPrefix(strings.TrimSpace(imm.Literal), "#")
	v, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q: %w", imm.Literal, err)
	}
	return v, nil
}

// CanonicalRegister returns the lowercase prefix+number form, e.g. "X1" ->
// "x1" and "v3.2d" -> "v3".
func (*AArch64) CanonicalRegister(reg asm.Register) string {
	return strings.ToLower(registerBase(reg.Name))
}
