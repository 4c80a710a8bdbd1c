// Package watch follows a growing assembly file and reports the marked
// kernel as soon as both markers have been written.
package watch

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nxadm/tail"

	"asmregion/internal/asm"
	"asmregion/internal/asm/parser"
	"asmregion/internal/isa"
	"asmregion/internal/logging"
	"asmregion/internal/marker"
)

// Options tunes Kernel.
type Options struct {
	// Poll uses stat polling instead of inotify.
	Poll bool
	// Logger receives scan warnings for the final extraction.
	Logger *log.Logger
}

// Kernel tails path from its beginning and returns the kernel once the
// start and end markers are both present. It blocks until then, until ctx
// is done, or until the file can no longer be read.
func Kernel(ctx context.Context, path string, profile isa.Profile, opts Options) (asm.Stream, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		MustExist: true,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	probe := marker.NewScanner(profile, logging.Discard())
	var lines asm.Stream
	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Err(); err != nil {
					return nil, err
				}
				return nil, errors.New("tail stopped before both markers were seen")
			}
			if line.Err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, line.Err)
			}
			n++
			if lines, err = parser.Append(lines, profile.Syntax, n, line.Text); err != nil {
				return nil, err
			}
			// a marker can only complete on its payload line
			if !lines[len(lines)-1].IsDirective("byte") {
				continue
			}
			if start, end := probe.Find(lines); start == -1 || end == -1 {
				continue
			}
			return marker.ReduceToSection(lines, profile, marker.WithLogger(opts.Logger))
		}
	}
}
