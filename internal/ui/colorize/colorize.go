// Package colorize applies terminal syntax highlighting to assembly lines.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"asmregion/internal/isa"
)

// Disabled reports whether colouring is turned off through the
// environment.
func Disabled() bool {
	return os.Getenv("ASMREGION_NO_COLOR") != "" || os.Getenv("NO_COLOR") != ""
}

func lexerCandidates(arch isa.Arch) []string {
	if arch == isa.AArch64 {
		return []string{"armasm", "gas"}
	}
	return []string{"gas", "nasm"}
}

// Language is the code fence language used for arch in markdown output.
func Language(arch isa.Arch) string {
	return lexerCandidates(arch)[0]
}

// lexerFor returns an assembly lexer for arch with fallbacks
func lexerFor(arch isa.Arch) chroma.Lexer {
	for _, name := range lexerCandidates(arch) {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getStyle returns the assembly style with fallbacks
func getStyle() *chroma.Style {
	candidates := []string{"asm-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Assembly highlights a block of assembly source for arch. The input is
// returned unchanged when colours are disabled or no lexer is available.
func Assembly(code string, arch isa.Arch) (string, error) {
	if Disabled() {
		return code, nil
	}

	lexer := lexerFor(arch)
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// Line highlights a single line, falling back to the plain text on error.
func Line(line string, arch isa.Arch) string {
	colored, err := Assembly(line, arch)
	if err != nil {
		return line
	}
	return strings.TrimRight(colored, "\n")
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
