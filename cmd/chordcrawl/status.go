package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwitek/chordcrawl/internal/config"
	"github.com/kwitek/chordcrawl/internal/frontier"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <source>",
		Short: "Show crawl progress for a source",
		Long: `Status reports how far a source's crawl has progressed: how many
pages its frontier database holds and how many are still waiting to
be fetched. A source with zero unprocessed pages is fully crawled;
re-running crawl on it only replays the stored records.`,
		Args: cobra.ExactArgs(1),
		RunE: runStatusCmd,
	}

	cmd.Flags().String("data-dir", "",
		"Directory for per-source progress databases (default: XDG data dir)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg := config.NewConfig()
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	path := cfg.DatabasePath(source)
	opts := frontier.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := frontier.Open(path, opts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no crawl data for %q: expected database at %s", source, path)
		}
		return fmt.Errorf("failed to open frontier store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	total, err := store.Total(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}
	unprocessed, err := store.Unprocessed(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unprocessed pages: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source:      %s\n", source)
	fmt.Fprintf(out, "Database:    %s\n", path)
	fmt.Fprintf(out, "Pages:       %d\n", total)
	fmt.Fprintf(out, "Unprocessed: %d\n", unprocessed)
	if total > 0 && unprocessed == 0 {
		fmt.Fprintln(out, "Crawl complete.")
	}
	return nil
}
