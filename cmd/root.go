package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "media-analyzer",
	Short: "Analyze remote media for AI-generated and dangerous content",
	Long: `media-analyzer accepts media URLs, fetches and transcribes them, and runs
the transcript through a content classifier. Work happens asynchronously:
submission returns a job id, and clients poll for status and results.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
