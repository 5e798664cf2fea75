package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/claude_transcripts/internal/transcript"
)

type sessionListing struct {
	SessionID     string `json:"sessionId"`
	Path          string `json:"path"`
	Type          string `json:"type,omitempty"`
	AgentName     string `json:"agentName,omitempty"`
	Messages      int    `json:"messages"`
	SkippedLines  int    `json:"skippedLines,omitempty"`
	CompactedFrom string `json:"compactedFrom,omitempty"`
	AgentFile     bool   `json:"agentFile,omitempty"`
	Error         string `json:"error,omitempty"`
}

func newListCmd(root *rootOptions) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List discovered sessions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			dir := args[0]
			files, err := transcript.CollectAllSessionFiles(dir)
			if err != nil {
				return err
			}

			mapper, err := transcript.ScanSubagents(dir, delegationDetector(settings))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: subagent scan: %v\n", err)
				mapper = nil
			}

			listings := make([]sessionListing, 0, len(files))
			for _, file := range files {
				listings = append(listings, listSession(file, mapper))
			}

			payload := map[string]any{"sessions": listings}
			out, err := json.Marshal(payload)
			if pretty {
				out, err = json.MarshalIndent(payload, "", "  ")
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON")
	return cmd
}

func listSession(file string, mapper *transcript.SubagentMapper) sessionListing {
	entry := sessionListing{
		SessionID: transcript.SessionIDFromPath(file),
		Path:      file,
		AgentFile: transcript.IsAgentSessionFileName(filepath.Base(file)),
	}
	store, err := transcript.LoadSessionFile(file)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Messages = len(store.Messages)
	entry.SkippedLines = store.SkippedLines()
	entry.CompactedFrom = store.CompactedFrom

	g := transcript.Assemble([]*transcript.FileMessages{store})
	transcript.Classify(g, mapper)
	entry.Type = string(g.Type)
	entry.AgentName = g.AgentName
	return entry
}
