package main

import (
	"os"

	"github.com/baaaaaaaka/claude_transcripts/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
