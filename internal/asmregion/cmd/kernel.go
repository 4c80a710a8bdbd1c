package cmd

import (
	"github.com/spf13/cobra"

	"asmregion/internal/asm"
	"asmregion/internal/marker"
	"asmregion/internal/report"
	"asmregion/internal/watch"
)

func newKernelCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "kernel FILE",
		Short: "Print the code between the start and end markers",
		Long: `Print the lines between the start and end marker sequences, markers
excluded. FILE may be "-" to read standard input.

With --follow the file is tailed until both markers have been written,
which is handy while a compiler is still producing it.`,
		Example: `
asmregion kernel loop.s
asmregion kernel --isa aarch64 - < loop.s
asmregion kernel --follow --poll loop.s
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			follow, _ := cmd.Flags().GetBool("follow")
			poll, _ := cmd.Flags().GetBool("poll")

			var (
				kernel asm.Stream
				source = args[0]
			)
			if follow && source != "-" {
				st.logger.Debug("following", "file", source, "isa", st.profile.Arch)
				kernel, err = watch.Kernel(cmd.Context(), source, st.profile, watch.Options{
					Poll:   poll,
					Logger: st.logger,
				})
			} else {
				var lines asm.Stream
				if lines, source, err = readSource(cmd, source, st.profile.Syntax); err != nil {
					return err
				}
				st.logger.Debug("parsed", "file", source, "lines", len(lines))
				kernel, err = marker.ReduceToSection(lines, st.profile, marker.WithLogger(st.logger))
			}
			if err != nil {
				return err
			}
			return writeReport(cmd, st, report.FromKernel(source, st.profile.Arch, kernel))
		},
	}
	c.Flags().BoolP("follow", "f", false, "Wait for the markers to appear in a growing file")
	c.Flags().Bool("poll", false, "Poll for changes instead of using inotify (with --follow)")
	return c
}
