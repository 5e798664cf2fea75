package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/baaaaaaaka/claude_transcripts/internal/config"
	"github.com/baaaaaaaka/claude_transcripts/internal/transcript"
)

func newBatchCmd(root *rootOptions) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Build transcripts for every session in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			return runBatch(cmd, args[0], flags, settings, writeOptions(cmd, flags, settings))
		},
	}
	addRenderFlags(cmd, flags)
	return cmd
}

func runBatch(cmd *cobra.Command, dir string, flags *renderFlags, settings config.Settings, opts transcript.WriteOptions) error {
	files, err := transcript.CollectSessionFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no session files found")
		return nil
	}

	// Files that are compaction predecessors of another file get folded
	// into that file's build; running them on their own would duplicate
	// the older history.
	predecessors := map[string]bool{}
	for _, file := range files {
		ids, err := transcript.LineagePredecessors(file)
		if err != nil {
			continue
		}
		for _, id := range ids {
			predecessors[id] = true
		}
	}

	mapper, err := transcript.ScanSubagents(dir, delegationDetector(settings))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: subagent scan: %v\n", err)
		mapper = nil
	}

	showProgress := term.IsTerminal(int(os.Stderr.Fd()))
	outRoot := outputRoot(flags.outDir, settings)

	var processed, skipped, failed int
	for i, file := range files {
		if predecessors[transcript.SessionIDFromPath(file)] {
			skipped++
			continue
		}
		if showProgress {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %s", i+1, len(files), transcript.SessionIDFromPath(file))
		}
		outDir := sessionOutDir(outRoot, transcript.SessionIDFromPath(file))
		if _, err := transcript.BuildSession(file, outDir, mapper, opts); err != nil {
			failed++
			if showProgress {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", file, err)
			continue
		}
		processed++
	}
	if showProgress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, skipped %d, failed %d\n", processed, skipped, failed)
	if processed == 0 && failed > 0 {
		return fmt.Errorf("all %d sessions failed", failed)
	}
	return nil
}
