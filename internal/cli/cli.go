package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/claude_transcripts/internal/config"
	"github.com/baaaaaaaka/claude_transcripts/internal/transcript"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type rootOptions struct {
	configPath string
}

func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "claude-transcripts",
		Short:         "Build readable transcripts from Claude Code session logs",
		SilenceErrors: false,
		SilenceUsage:  true,
		Version:       buildVersion(),
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Override config file path (default: OS user config dir)")

	cmd.AddCommand(
		newBuildCmd(opts),
		newBatchCmd(opts),
		newListCmd(opts),
		newBrowseCmd(opts),
	)

	return cmd
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}

// renderFlags are the per-command overrides for persisted settings.
type renderFlags struct {
	outDir        string
	preview       int
	payload       int
	includeSystem bool
	compressRaw   bool
}

func addRenderFlags(cmd *cobra.Command, f *renderFlags) {
	cmd.Flags().StringVar(&f.outDir, "out", "", "Output directory (default: config outputDir or ./transcripts)")
	cmd.Flags().IntVar(&f.preview, "preview", 0, "Preview character cap for the simple transcript")
	cmd.Flags().IntVar(&f.payload, "payload", 0, "Payload character cap for the extended transcript")
	cmd.Flags().BoolVar(&f.includeSystem, "include-system", false, "Keep system messages in the simple transcript")
	cmd.Flags().BoolVar(&f.compressRaw, "compress-raw", false, "Store the raw session copy xz-compressed")
}

// writeOptions merges persisted settings with explicit flag overrides.
// A flag counts only when the user set it, so config values survive
// commands that leave the flags alone.
func writeOptions(cmd *cobra.Command, f *renderFlags, settings config.Settings) transcript.WriteOptions {
	opts := transcript.WriteOptions{
		Format: transcript.FormatOptions{
			PreviewChars:  settings.PreviewChars,
			PayloadChars:  settings.PayloadChars,
			IncludeSystem: settings.IncludeSystem,
		},
		CompressRaw: settings.CompressRaw,
	}
	flags := cmd.Flags()
	if flags.Changed("preview") {
		opts.Format.PreviewChars = f.preview
	}
	if flags.Changed("payload") {
		opts.Format.PayloadChars = f.payload
	}
	if flags.Changed("include-system") {
		opts.Format.IncludeSystem = f.includeSystem
	}
	if flags.Changed("compress-raw") {
		opts.CompressRaw = f.compressRaw
	}
	return opts
}

func loadSettings(root *rootOptions) (config.Settings, error) {
	store, err := config.NewStore(root.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	return store.Load()
}

// outputRoot resolves the base directory transcripts land under.
func outputRoot(flagOut string, settings config.Settings) string {
	if flagOut != "" {
		return flagOut
	}
	if settings.OutputDir != "" {
		return settings.OutputDir
	}
	return "transcripts"
}

func sessionOutDir(root string, sessionID string) string {
	return filepath.Join(root, sessionID)
}

func delegationDetector(settings config.Settings) *transcript.PhraseDetector {
	phrases := settings.DelegationPhrases
	if len(phrases) == 0 {
		phrases = transcript.DefaultDelegationPhrases
	}
	return transcript.NewPhraseDetector(phrases)
}
