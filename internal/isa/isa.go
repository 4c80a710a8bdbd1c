// Package isa holds the per-architecture data used to recognize kernel
// markers.
package isa

import (
	"errors"
	"fmt"
	"strings"

	"asmregion/internal/asm/parser"
)

// ErrUnsupportedISA is returned for architecture names with no profile.
var ErrUnsupportedISA = errors.New("unsupported ISA")

// Arch represents a supported instruction set architecture.
type Arch string

// Supported architectures.
const (
	X86     Arch = "x86"
	AArch64 Arch = "aarch64"
)

// Archs lists the supported architectures in display order.
var Archs = []Arch{X86, AArch64}

// Profile describes how one architecture encodes the kernel markers.
type Profile struct {
	Arch Arch
	// MoveMnemonics are the move instructions that can load the marker value.
	MoveMnemonics []string
	// MarkerRegister is the canonical name of the register receiving the
	// marker value.
	MarkerRegister string
	StartValue     int64
	EndValue       int64
	// NopBytes is the payload that must directly follow the move, as
	// written in .byte directives.
	NopBytes []string
	// OperandOrderReversed is true when the destination operand comes
	// first (ARM syntax) rather than last (AT&T syntax).
	OperandOrderReversed bool
	// Syntax supplies immediate normalization and register
	// canonicalization, and parses source files for the CLI.
	Syntax parser.Parser
}

// Parse resolves an architecture name, ignoring case.
func Parse(name string) (Arch, error) {
	switch a := Arch(strings.ToLower(strings.TrimSpace(name))); a {
	case X86, AArch64:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedISA, name)
	}
}

// Lookup resolves name and returns its profile.
func Lookup(name string) (Profile, error) {
	a, err := Parse(name)
	if err != nil {
		return Profile{}, err
	}
	return a.Profile(), nil
}

// Profile returns the marker profile of a. It panics for values that did
// not come from Parse or the declared constants.
func (a Arch) Profile() Profile {
	switch a {
	case X86:
		return Profile{
			Arch:           X86,
			MoveMnemonics:  []string{"mov", "movl"},
			MarkerRegister: "ebx",
			StartValue:     111,
			EndValue:       222,
			NopBytes:       []string{"100", "103", "144"},
			Syntax:         parser.NewX86ATT(),
		}
	case AArch64:
		return Profile{
			Arch:                 AArch64,
			MoveMnemonics:        []string{"mov"},
			MarkerRegister:       "x1",
			StartValue:           111,
			EndValue:             222,
			NopBytes:             []string{"213", "3", "32", "31"},
			OperandOrderReversed: true,
			Syntax:               parser.NewAArch64(),
		}
	default:
		panic(fmt.Sprintf("isa: no profile for %q", string(a)))
	}
}

// IsMove reports whether mnemonic is one of the profile's move mnemonics.
func (p Profile) IsMove(mnemonic string) bool {
	for _, m := range p.MoveMnemonics {
		if m == mnemonic {
			return true
		}
	}
	return false
}

// String returns the architecture name.
func (a Arch) String() string { return string(a) }
