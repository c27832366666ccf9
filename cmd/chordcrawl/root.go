// Package main provides the entry point for the chordcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for chordcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chordcrawl",
		Short: "Collect song chord metadata from public chord sites",
		Long: `chordcrawl crawls public chord sites and extracts one record per
published transcription: artist, title, URL, and whatever rating,
difficulty, tonality, and popularity data the source lists.

Crawls are resumable: progress is persisted per source, and an
interrupted run picks up where it left off without refetching
pages it already processed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
