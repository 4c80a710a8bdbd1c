package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"asmregion/internal/asm"
	"asmregion/internal/asm/parser"
	asmregionlog "asmregion/internal/asmregion/log"
	"asmregion/internal/isa"
	"asmregion/internal/logging"
	"asmregion/internal/report"
	"asmregion/internal/ui/colorize"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asmregion",
		Short: "Extract marked kernels and control-flow regions from assembly",
		Long: `asmregion reads compiler-generated assembly and extracts the region between
two marker sequences, lists jump labels, and partitions the code into basic
blocks and loop bodies. It understands AT&T x86 and ARMv8.1-A syntax.`,
		Example: `
# Extract the marked kernel of an x86 listing
asmregion kernel loop.s

# Same for AArch64, as JSON
asmregion kernel --isa aarch64 -o json loop.s

# Wait for a compiler to finish writing the markers
asmregion kernel --follow build/loop.s

# Browse labels, blocks and loops interactively
asmregion explore loop.s
  `,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("isa", "i", "", "Instruction set of the input (x86, aarch64)")
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolP("debug", "d", false, "Debug")
	root.PersistentFlags().Bool("no-color", false, "Disable coloured output")
	root.PersistentFlags().StringP("format", "o", "", "Output format (text, json, markdown)")
	root.PersistentFlags().Int("width", 0, "Wrap width for markdown output")

	root.AddCommand(
		newKernelCmd(),
		newLabelsCmd(),
		newBlocksCmd(),
		newLoopsCmd(),
		newExploreCmd(),
		newSchemaCmd(),
	)
	return root
}

// settings is the resolved configuration of one command invocation.
type settings struct {
	profile isa.Profile
	format  report.Format
	color   bool
	width   int
	logger  *log.Logger
	closer  io.Closer
}

func (s settings) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// resolveSettings merges the config file, flags and environment. Flags
// win over the config file.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	var cfg Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return settings{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("isa") {
		cfg.ISA, _ = flags.GetString("isa")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("width") {
		cfg.Width, _ = flags.GetInt("width")
	}

	if cfg.ISA == "" {
		cfg.ISA = string(isa.X86)
	}
	profile, err := isa.Lookup(cfg.ISA)
	if err != nil {
		return settings{}, err
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return settings{}, err
	}

	var lc *logging.LoggerCloser
	if os.Getenv("ASMREGION_LOG_TO_FILE") == "1" {
		lc = logging.NewLogger()
	} else {
		lc = logging.NewLoggerWithWriter(cmd.ErrOrStderr())
	}
	if cfg.Debug || logging.IsDebug() {
		lc.SetLevel(log.DebugLevel)
	}
	asmregionlog.Setup(cfg.Debug)

	width := cfg.Width
	if width == 0 {
		width = 80
		if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(f.Fd()) {
			if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
				width = w
			}
		}
	}

	return settings{
		profile: profile,
		format:  format,
		color:   !cfg.NoColor && !colorize.Disabled() && isTerminal(cmd.OutOrStdout()),
		width:   width,
		logger:  lc.Logger,
		closer:  lc,
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// readSource parses the named file, or standard input for "-". It returns
// the stream and a display name for the source.
func readSource(cmd *cobra.Command, name string, p parser.Parser) (asm.Stream, string, error) {
	if name == "-" {
		s, err := parser.Parse(p, cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("stdin: %w", err)
		}
		return s, "stdin", nil
	}

	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", name)
		}
		return nil, "", fmt.Errorf("cannot access file: %w", err)
	}
	defer f.Close()

	s, err := parser.Parse(p, f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", name, err)
	}
	return s, name, nil
}

func writeReport(cmd *cobra.Command, st settings, r *report.Report) error {
	return r.Write(cmd.OutOrStdout(), st.format, report.Options{Color: st.color, Width: st.width})
}

func Execute() {
	rootCmd := newRootCmd()

	// Bypass fang when output is being piped or machine readable so its
	// styled error and help rendering stays off the stream.
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "-o=json" || arg == "--format=json" {
			plain = true
			break
		}
	}

	if plain {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
