package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/ianlancetaylor/demangle"
	"github.com/spf13/cobra"

	"asmregion/internal/asm"
	"asmregion/internal/cfg"
	"asmregion/internal/isa"
	"asmregion/internal/logging"
	"asmregion/internal/marker"
	"asmregion/internal/report"
)

type viewMode int

const (
	viewLabels viewMode = iota
	viewRegion
)

type labelItem struct {
	name       string
	title      string
	lineNumber int
	loop       bool
}

func (i labelItem) FilterValue() string { return i.title }

// Custom item delegate for the label list
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(labelItem)
	if !ok {
		return
	}

	indicator := " "
	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if index == m.Index() {
		indicator = ">"
		numStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}

	tag := ""
	if i.loop {
		tag = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("  loop")
	}

	fmt.Fprintf(w, " %s  %s  %s%s",
		indicator,
		numStyle.Render(fmt.Sprintf("%6d", i.lineNumber)),
		i.title,
		tag)
}

type exploreModel struct {
	labelsList list.Model
	viewport   viewport.Model
	mode       viewMode
	source     string
	arch       isa.Arch
	blocks     *cfg.Blocks
	loops      *cfg.Blocks
	kernel     asm.Stream
	kernelErr  error
	content    string
	width      int
	height     int
}

func newExploreModel(source string, profile isa.Profile, lines asm.Stream) exploreModel {
	labels := cfg.JumpLabels(lines)
	loops := cfg.LoopBodies(lines)

	items := make([]list.Item, 0, labels.Len())
	for p := labels.Oldest(); p != nil; p = p.Next() {
		_, loop := loops.Get(p.Key)
		items = append(items, labelItem{
			name:       p.Key,
			title:      demangle.Filter(p.Key),
			lineNumber: p.Value.LineNumber,
			loop:       loop,
		})
	}

	labelsList := list.New(items, itemDelegate{}, 80, 24)
	labelsList.SetShowStatusBar(false)
	labelsList.SetFilteringEnabled(true)
	labelsList.Title = fmt.Sprintf("Jump labels (%d total)", labels.Len())
	labelsList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	labelsList.SetShowHelp(true)

	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	kernel, kernelErr := marker.ReduceToSection(lines, profile, marker.WithLogger(logging.Discard()))

	return exploreModel{
		labelsList: labelsList,
		viewport:   vp,
		mode:       viewLabels,
		source:     source,
		arch:       profile.Arch,
		blocks:     cfg.BasicBlocks(lines),
		loops:      loops,
		kernel:     kernel,
		kernelErr:  kernelErr,
		width:      80,
		height:     24,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

// showLabel fills the viewport with the loop body of name, or its basic
// block when it is not a loop.
func (m *exploreModel) showLabel(name string) {
	var r *report.Report
	if body, ok := m.loops.Get(name); ok {
		r = report.FromRegion(m.source, m.arch, report.KindLoops, name, body)
	} else if block, ok := m.blocks.Get(name); ok {
		r = report.FromRegion(m.source, m.arch, report.KindBlocks, name, block)
	} else {
		return
	}
	m.setReport(r)
}

func (m *exploreModel) showKernel() {
	if m.kernelErr != nil {
		m.setContent(fmt.Sprintf("no kernel: %v", m.kernelErr))
		return
	}
	m.setReport(report.FromKernel(m.source, m.arch, m.kernel))
}

func (m *exploreModel) setReport(r *report.Report) {
	var buf bytes.Buffer
	if err := r.WriteText(&buf, true); err != nil {
		slog.Error("Failed to render region", "error", err)
		return
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).
		Render(fmt.Sprintf("%s  %s", r.Kind, r.Source))
	m.setContent(title + "\n\n" + buf.String())
}

func (m *exploreModel) setContent(s string) {
	m.content = s
	m.viewport.SetContent(s)
	m.viewport.GotoTop()
	m.mode = viewRegion
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(msg.Height - 2)
		m.labelsList.SetWidth(msg.Width)
		m.labelsList.SetHeight(msg.Height - 2)

	case tea.KeyMsg:
		// While filtering, the list gets every key except quit
		if m.mode == viewLabels && m.labelsList.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.mode == viewLabels {
				if item, ok := m.labelsList.SelectedItem().(labelItem); ok {
					m.showLabel(item.name)
				}
			}
			return m, nil
		case "m":
			m.showKernel()
			return m, nil
		case "esc", "backspace", "l":
			if m.mode == viewRegion {
				m.mode = viewLabels
				return m, nil
			}
		case "tab":
			if m.mode == viewLabels && m.content != "" {
				m.mode = viewRegion
			} else {
				m.mode = viewLabels
			}
			return m, nil
		}
	}

	switch m.mode {
	case viewRegion:
		m.viewport, cmd = m.viewport.Update(msg)
	default:
		m.labelsList, cmd = m.labelsList.Update(msg)
	}
	return m, cmd
}

func (m exploreModel) View() string {
	var content, menu string
	switch m.mode {
	case viewRegion:
		content = m.viewport.View()
		menu = " L: labels • M: marked kernel • Tab: switch • Q: quit "
	default:
		content = m.labelsList.View()
		menu = " Enter: view region • M: marked kernel • /: filter • Q: quit "
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func newExploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore FILE",
		Short: "Browse jump labels, blocks and loops interactively",
		Long: `Open a terminal UI listing the jump labels of FILE. Enter shows the loop
body of the selected label, or its basic block when it is not a loop.
M shows the marked kernel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			lines, source, err := readSource(cmd, args[0], st.profile.Syntax)
			if err != nil {
				return err
			}

			program := tea.NewProgram(
				newExploreModel(source, st.profile, lines),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := program.Run(); err != nil {
				slog.Error("TUI run error", "error", err)
				return fmt.Errorf("TUI error: %v", err)
			}
			return nil
		},
	}
}
