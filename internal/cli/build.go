package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/claude_transcripts/internal/transcript"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "build <session.jsonl>",
		Short: "Build transcripts for one session log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}

			path := args[0]
			mapper, err := transcript.ScanSubagents(filepath.Dir(path), delegationDetector(settings))
			if err != nil {
				// The heuristic is best-effort; a broken sibling file
				// must not block the session itself.
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: subagent scan: %v\n", err)
				mapper = nil
			}

			outDir := sessionOutDir(outputRoot(flags.outDir, settings), transcript.SessionIDFromPath(path))
			report, err := transcript.BuildSession(path, outDir, mapper, writeOptions(cmd, flags, settings))
			if err != nil {
				return err
			}
			printReport(cmd, report, outDir)
			return nil
		},
	}
	addRenderFlags(cmd, flags)
	return cmd
}

func printReport(cmd *cobra.Command, report *transcript.BuildReport, outDir string) {
	out := cmd.OutOrStdout()
	label := string(report.Type)
	if report.Type == transcript.SessionSubagent || report.Type == transcript.SessionSidechain {
		label += " (" + report.AgentName + ")"
	}
	fmt.Fprintf(out, "session %s [%s]\n", report.SessionID, label)
	fmt.Fprintf(out, "  files: %d, messages: %d, branches: %d (%d sidechains)\n",
		len(report.SourceFiles), report.Messages, report.Branches, report.Sidechains)
	if report.SkippedLines > 0 {
		fmt.Fprintf(out, "  skipped lines: %d\n", report.SkippedLines)
	}
	if report.Stats.DuplicateIDs > 0 || report.Stats.DanglingParents > 0 {
		fmt.Fprintf(out, "  duplicates: %d, dangling parents: %d\n",
			report.Stats.DuplicateIDs, report.Stats.DanglingParents)
	}
	fmt.Fprintf(out, "  written to %s\n", outDir)
}
