package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/claude_transcripts/internal/transcript"
	"github.com/baaaaaaaka/claude_transcripts/internal/tui"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "browse <dir>",
		Short: "Pick a session interactively and build its transcripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			dir := args[0]

			selection, err := tui.SelectSession(cmd.Context(), tui.Options{
				Title: "claude-transcripts " + buildVersion(),
				LoadSessions: func(ctx context.Context) ([]tui.SessionRow, error) {
					return loadSessionRows(dir)
				},
				Preview: previewSession,
			})
			if err != nil {
				return err
			}
			if selection == nil {
				return nil
			}

			mapper, err := transcript.ScanSubagents(dir, delegationDetector(settings))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: subagent scan: %v\n", err)
				mapper = nil
			}
			outDir := sessionOutDir(outputRoot(flags.outDir, settings), selection.SessionID)
			report, err := transcript.BuildSession(selection.Path, outDir, mapper, writeOptions(cmd, flags, settings))
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

func loadSessionRows(dir string) ([]tui.SessionRow, error) {
	files, err := transcript.CollectAllSessionFiles(dir)
	if err != nil {
		return nil, err
	}
	rows := make([]tui.SessionRow, 0, len(files))
	for _, file := range files {
		row := tui.SessionRow{
			Path:      file,
			SessionID: transcript.SessionIDFromPath(file),
			TypeLabel: "session",
		}
		if transcript.IsAgentSessionFileName(filepath.Base(file)) {
			row.TypeLabel = "agent"
		}
		if info, err := os.Stat(file); err == nil {
			row.Modified = info.ModTime().Format("2006-01-02 15:04")
		}
		if store, err := transcript.LoadSessionFile(file); err == nil {
			row.Messages = len(store.Messages)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// previewSession renders a short simple transcript of one file, without
// its compaction lineage, for the picker's preview pane.
func previewSession(path string) (string, error) {
	store, err := transcript.LoadSessionFile(path)
	if err != nil {
		return "", err
	}
	g := transcript.Assemble([]*transcript.FileMessages{store})
	opts := transcript.DefaultFormatOptions()
	opts.PreviewChars = 200
	return transcript.FormatSimple(g, transcript.LinearFlow(g), opts), nil
}
