package cmd

import (
	"github.com/spf13/cobra"

	"asmregion/internal/asm"
	"asmregion/internal/cfg"
	"asmregion/internal/report"
)

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels FILE",
		Short: "List jump labels in order of appearance",
		Long: `List the labels that head at least one instruction, with the line that
defines them. Labels heading only data directives are left out.`,
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
			labels := cfg.JumpLabels(lines)
			st.logger.Debug("collected jump labels", "file", source, "count", labels.Len())
			return writeReport(cmd, st, report.FromLabels(source, st.profile.Arch, labels))
		},
	}
}

// newPartitionCmd builds a command printing one region per jump label.
func newPartitionCmd(use, short, long string, kind report.Kind, partition func(asm.Stream) *cfg.Blocks) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
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
			blocks := partition(lines)
			st.logger.Debug("partitioned", "file", source, "kind", kind, "count", blocks.Len())
			return writeReport(cmd, st, report.FromBlocks(source, st.profile.Arch, kind, blocks))
		},
	}
}

func newBlocksCmd() *cobra.Command {
	return newPartitionCmd(
		"blocks FILE",
		"Print the straight-line run leading into every jump label",
		`For every jump label, walk from the top of the file and print the lines up
to and including the first branch to a jump label or the first label
definition. A label on the first line gets an empty block.`,
		report.KindBlocks,
		cfg.BasicBlocks,
	)
}

func newLoopsCmd() *cobra.Command {
	return newPartitionCmd(
		"loops FILE",
		"Print loop bodies that branch back to their own label",
		`For every jump label whose first branch to a jump label targets the label
itself, print the lines from the label through that branch.`,
		report.KindLoops,
		cfg.LoopBodies,
	)
}
