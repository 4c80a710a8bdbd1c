// Package marker extracts the user-marked kernel region from a parsed
// assembly stream.
//
// A kernel is delimited by a move of a magic value into a marker register
// immediately followed by a fixed .byte payload, e.g. for AT&T x86:
//
//	movl $111, %ebx
//	.byte 100,103,144
//	... kernel ...
//	movl $222, %ebx
//	.byte 100,103,144
package marker

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"asmregion/internal/asm"
	"asmregion/internal/isa"
)

var (
	// ErrStartMarkerNotFound is returned when no start marker is present.
	ErrStartMarkerNotFound = errors.New("could not find START MARKER")
	// ErrEndMarkerNotFound is returned when no end marker is present.
	ErrEndMarkerNotFound = errors.New("could not find END MARKER")
)

// Option configures extraction.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger that receives per-line scan warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ExtractKernel returns the lines between the start and end markers of
// arch. The result shares the backing array of lines.
func ExtractKernel(lines asm.Stream, arch string, opts ...Option) (asm.Stream, error) {
	profile, err := isa.Lookup(arch)
	if err != nil {
		return nil, err
	}
	return ReduceToSection(lines, profile, opts...)
}

// ReduceToSection is ExtractKernel for an already resolved profile.
func ReduceToSection(lines asm.Stream, profile isa.Profile, opts ...Option) (asm.Stream, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	start, end := NewScanner(profile, o.logger).Find(lines)
	if start == -1 {
		return nil, fmt.Errorf("%w: make sure it is inserted", ErrStartMarkerNotFound)
	}
	if end == -1 {
		return nil, fmt.Errorf("%w: make sure it is inserted", ErrEndMarkerNotFound)
	}
	if start > end {
		// end marker placed before the start marker's payload ends
		return asm.Stream{}, nil
	}
	return lines[start:end:end], nil
}
