package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"asmregion/internal/asmregion/styles"
	"asmregion/internal/ui/colorize"
)

// Options tunes Write.
type Options struct {
	Color bool
	Width int
}

// Write renders r in the given format.
func (r *Report) Write(w io.Writer, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatMarkdown:
		if !opts.Color {
			_, err := io.WriteString(w, r.Markdown())
			return err
		}
		return r.WriteMarkdown(w, opts.Width)
	default:
		return r.WriteText(w, opts.Color)
	}
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (r *Report) heading() string {
	h := string(r.Kind)
	if r.Source != "" {
		h += " " + r.Source
	}
	if r.ISA != "" {
		h += " (" + r.ISA.String() + ")"
	}
	return h
}

// Markdown returns r as a markdown document with one fenced code block
// per region.
func (r *Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", r.heading())
	if len(r.Regions) == 0 {
		sb.WriteString("\n*no regions*\n")
		return sb.String()
	}
	lang := colorize.Language(r.ISA)
	for _, reg := range r.Regions {
		sb.WriteByte('\n')
		if title := reg.Title(); title != "" {
			fmt.Fprintf(&sb, "## `%s`\n\n", title)
		}
		if len(reg.Lines) == 0 {
			sb.WriteString("*empty*\n")
			continue
		}
		fmt.Fprintf(&sb, "```%s\n", lang)
		for _, l := range reg.Lines {
			sb.WriteString(l.Text + "\n")
		}
		sb.WriteString("```\n")
	}
	return sb.String()
}

// WriteMarkdown renders the markdown form through glamour.
func (r *Report) WriteMarkdown(w io.Writer, width int) error {
	if width <= 0 {
		width = 80
	}
	renderer, err := styles.GetMarkdownRenderer(width - 2)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(r.Markdown())
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// WriteText writes r as line-numbered plain text. With color set, headers
// are styled and instructions highlighted.
func (r *Report) WriteText(w io.Writer, color bool) error {
	header := func(s string) string { return s }
	number := func(s string) string { return s }
	text := func(s string) string { return s }
	if color {
		hs := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(styles.Header()))
		ns := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.Muted()))
		header = func(s string) string { return hs.Render(s) }
		number = func(s string) string { return ns.Render(s) }
		text = func(s string) string { return colorize.Line(s, r.ISA) }
	}

	var sb strings.Builder
	for i, reg := range r.Regions {
		title := reg.Title()
		if r.Kind == KindLabels {
			for _, l := range reg.Lines {
				fmt.Fprintf(&sb, "%s  %s\n", number(fmt.Sprintf("%6d", l.LineNumber)), header(title))
			}
			continue
		}
		if title != "" {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(header(title+":") + "\n")
		}
		for _, l := range reg.Lines {
			fmt.Fprintf(&sb, "%s  %s\n", number(fmt.Sprintf("%6d", l.LineNumber)), text(l.Text))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
