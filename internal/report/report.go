// Package report turns extracted regions into printable results.
//
// A Report is a flat list of regions. A kernel report has one unnamed
// region, label reports carry the defining line of every jump label, and
// block and loop reports carry one region per label.
package report

import (
	"fmt"
	"strings"

	"github.com/ianlancetaylor/demangle"

	"asmregion/internal/asm"
	"asmregion/internal/cfg"
	"asmregion/internal/isa"
)

// Kind names what a report holds.
type Kind string

const (
	KindKernel Kind = "kernel"
	KindLabels Kind = "labels"
	KindBlocks Kind = "blocks"
	KindLoops  Kind = "loops"
)

// Line is a source line in output form.
type Line struct {
	Index      int    `json:"index"`
	LineNumber int    `json:"line"`
	Text       string `json:"text"`
}

// Region is a named run of lines.
type Region struct {
	Label     string `json:"label,omitempty"`
	Demangled string `json:"demangled,omitempty"`
	Lines     []Line `json:"lines"`
}

// Title is the label as it should be shown to a reader.
func (r Region) Title() string {
	if r.Demangled != "" {
		return r.Demangled
	}
	return r.Label
}

// Report is the result of one analysis over one source.
type Report struct {
	Source  string   `json:"source"`
	ISA     isa.Arch `json:"isa,omitempty"`
	Kind    Kind     `json:"kind"`
	Regions []Region `json:"regions"`
}

func convert(s asm.Stream) []Line {
	out := make([]Line, 0, len(s))
	for _, l := range s {
		out = append(out, Line{Index: l.Index, LineNumber: l.LineNumber, Text: l.String()})
	}
	return out
}

func region(label string, s asm.Stream) Region {
	r := Region{Label: label, Lines: convert(s)}
	if d := demangle.Filter(label); d != label {
		r.Demangled = d
	}
	return r
}

// FromRegion wraps a single region.
func FromRegion(source string, arch isa.Arch, kind Kind, label string, s asm.Stream) *Report {
	return &Report{
		Source:  source,
		ISA:     arch,
		Kind:    kind,
		Regions: []Region{region(label, s)},
	}
}

// FromKernel wraps an extracted kernel.
func FromKernel(source string, arch isa.Arch, kernel asm.Stream) *Report {
	return FromRegion(source, arch, KindKernel, "", kernel)
}

// FromLabels lists every jump label with its defining line.
func FromLabels(source string, arch isa.Arch, labels *cfg.Labels) *Report {
	r := &Report{Source: source, ISA: arch, Kind: KindLabels, Regions: []Region{}}
	for p := labels.Oldest(); p != nil; p = p.Next() {
		r.Regions = append(r.Regions, region(p.Key, asm.Stream{p.Value}))
	}
	return r
}

// FromBlocks wraps the result of a block or loop partitioning.
func FromBlocks(source string, arch isa.Arch, kind Kind, blocks *cfg.Blocks) *Report {
	r := &Report{Source: source, ISA: arch, Kind: kind, Regions: []Region{}}
	for p := blocks.Oldest(); p != nil; p = p.Next() {
		r.Regions = append(r.Regions, region(p.Key, p.Value))
	}
	return r
}

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown}

// ParseFormat resolves a format name; an empty name means text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or markdown)", name)
}
