package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/kwitek/chordcrawl/internal/config"
	"github.com/kwitek/chordcrawl/internal/crawler"
	"github.com/kwitek/chordcrawl/internal/extract"
	"github.com/kwitek/chordcrawl/internal/fetcher"
	"github.com/kwitek/chordcrawl/internal/frontier"
	"github.com/kwitek/chordcrawl/internal/log"
	"github.com/kwitek/chordcrawl/internal/model"
	"github.com/kwitek/chordcrawl/internal/report"
)

// Source names accepted as the crawl argument.
const (
	sourceUltimateGuitar = "ultimate-guitar"
	sourceWywrota        = "wywrota"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <source>",
		Short: "Crawl a chord source and write its records as CSV",
		Long: `Crawl walks one source's artist directory, fetches every chord
page listing, and writes one CSV row per published transcription.

Progress is persisted in a per-source database under the data
directory, so an interrupted crawl resumes without refetching
pages it already processed. Use --in-memory for throwaway runs.

Sources:
  ultimate-guitar   band directory, artist pages, and ranked explore pages
  wywrota           Polish songbook artist index (guitar songs only)

Examples:
  # Full crawl of the Polish songbook
  chordcrawl crawl wywrota

  # Narrow Ultimate Guitar crawl to two directory prefixes
  chordcrawl crawl ultimate-guitar --prefixes a,b

  # Throwaway run of a few explore pages, CSV to stdout-adjacent file
  chordcrawl crawl ultimate-guitar --in-memory --prefixes a --explore-pages 2 -o /tmp/ug.csv

  # Markdown run summary next to the CSV
  chordcrawl crawl wywrota --markdown --report wywrota.md

Configuration file (.chordcrawl) example:
  defaults:
    concurrency: 2
  sources:
    ultimate-guitar:
      prefixes: ["a", "b"]
    wywrota:
      baseURL: "http://localhost:8080"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-attempt request timeout")
	cmd.Flags().Duration("wait-floor", config.DefaultWaitFloor,
		"Minimum wait between retries of one fetch")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Retry ceiling per fetch, shared across failure kinds")
	cmd.Flags().IntP("concurrency", "n", 0,
		"Simultaneous fetch limit (default: 1 for ultimate-guitar, 4 for wywrota)")

	// Scope flags
	cmd.Flags().StringSlice("prefixes", nil,
		"Restrict ultimate-guitar to these directory prefixes (0-9, a..z)")
	cmd.Flags().StringSlice("letters", nil,
		"Restrict wywrota to these artist index letters (A..Z)")
	cmd.Flags().Int("explore-pages", config.DefaultExplorePages,
		"Ranked explore pages to fetch per ultimate-guitar run (0 to skip)")

	// Storage flags
	cmd.Flags().String("data-dir", "",
		"Directory for per-source progress databases (default: XDG data dir)")
	cmd.Flags().Bool("in-memory", false,
		"Keep crawl progress in memory; the run is not resumable")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .chordcrawl in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"CSV output path (default: <source>.csv in the current directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Write the run summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write the run summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the run summary to this file instead of stdout")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with oversized attributes cut
	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Source = args[0]

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.WaitFloor, err = cmd.Flags().GetDuration("wait-floor")
	if err != nil {
		return nil, err
	}
	cfg.MaxAttempts, err = cmd.Flags().GetInt("max-attempts")
	if err != nil {
		return nil, err
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.Concurrency = defaultConcurrency(cfg.Source, concurrency)

	cfg.Prefixes, err = cmd.Flags().GetStringSlice("prefixes")
	if err != nil {
		return nil, err
	}
	cfg.Letters, err = cmd.Flags().GetStringSlice("letters")
	if err != nil {
		return nil, err
	}
	cfg.ExplorePages, err = cmd.Flags().GetInt("explore-pages")
	if err != nil {
		return nil, err
	}

	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.InMemory, err = cmd.Flags().GetBool("in-memory")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = cfg.Source + ".csv"
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-source overrides from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SourceConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SourceConfigs = &config.File{
			Sources: make(map[string]config.SourceConfig),
		}
	}
	applySourceConfig(cfg)

	return cfg, nil
}

// defaultConcurrency resolves the fetch limit when the flag is left at
// zero. Ultimate Guitar's directory is one big dependent tree, crawled
// sequentially with durable batches; Wywrota's letter indexes are
// independent and crawl well in parallel.
func defaultConcurrency(source string, flag int) int {
	if flag > 0 {
		return flag
	}
	if source == sourceUltimateGuitar {
		return 1
	}
	return config.DefaultConcurrency
}

// applySourceConfig layers the config file's per-source overrides onto
// cfg. Flags the user set explicitly are not overridden; the file only
// fills values still at their defaults.
func applySourceConfig(cfg *config.Config) {
	sc := cfg.SourceConfigs.GetSourceConfig(cfg.Source)

	if len(cfg.Prefixes) == 0 && len(sc.Prefixes) > 0 {
		cfg.Prefixes = sc.Prefixes
	}
	if len(cfg.Letters) == 0 && len(sc.Letters) > 0 {
		cfg.Letters = sc.Letters
	}
	if cfg.ExplorePages == config.DefaultExplorePages && sc.ExplorePages != 0 {
		cfg.ExplorePages = sc.ExplorePages
	}
	if sc.Concurrency != 0 {
		cfg.Concurrency = sc.Concurrency
	}
}

// buildSource constructs the extractor for the configured source and
// returns the collation language for its artist names.
func buildSource(cfg *config.Config) (crawler.Source, language.Tag, error) {
	sc := cfg.SourceConfigs.GetSourceConfig(cfg.Source)

	switch cfg.Source {
	case sourceUltimateGuitar:
		opts := []extract.UGOption{extract.WithExplorePages(cfg.ExplorePages)}
		if sc.BaseURL != "" {
			opts = append(opts, extract.WithUGBaseURL(sc.BaseURL))
		}
		if len(cfg.Prefixes) > 0 {
			opts = append(opts, extract.WithUGPrefixes(cfg.Prefixes))
		}
		return extract.NewUltimateGuitar(opts...), language.English, nil

	case sourceWywrota:
		var opts []extract.WywrotaOption
		if sc.BaseURL != "" {
			opts = append(opts, extract.WithWywrotaBaseURL(sc.BaseURL))
		}
		if len(cfg.Letters) > 0 {
			opts = append(opts, extract.WithWywrotaLetters(cfg.Letters))
		}
		return extract.NewWywrota(opts...), language.Polish, nil

	default:
		return nil, language.Und, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.Source)
	}
}

// runCrawl executes the crawl and writes the CSV and the run summary.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	source, lang, err := buildSource(cfg)
	if err != nil {
		return err
	}

	storePath := frontier.InMemory
	if !cfg.InMemory {
		storePath = cfg.DatabasePath(cfg.Source)
	}
	store, err := frontier.Open(storePath, frontier.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open frontier store: %w", err)
	}
	defer store.Close()

	client := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithWaitFloor(cfg.WaitFloor),
		fetcher.WithMaxAttempts(cfg.MaxAttempts),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithLogger(logger),
	)

	c := crawler.New(source, store, client,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithBatchSize(cfg.BatchSize),
		crawler.WithLogger(logger),
	)

	rep := model.NewCrawlReport(cfg.Source)
	for record, err := range c.Crawl(ctx) {
		if err != nil {
			rep.Error = err.Error()
			continue
		}
		rep.Records = append(rep.Records, record)
	}
	rep.Finished = time.Now()

	stats := c.Stats()
	rep.PagesFetched = stats.PagesFetched
	rep.PagesSkipped = stats.PagesSkipped
	rep.FailedPages = stats.FailedPages

	// Write outputs even for a partial run: every record in the report
	// was durably extracted and stays valid.
	if err := writeCSV(cfg, rep); err != nil {
		return err
	}
	if err := writeSummary(cfg, rep, lang); err != nil {
		return err
	}

	if rep.Partial() {
		return fmt.Errorf("crawl of %s incomplete: %s", cfg.Source, rep.Error)
	}
	return nil
}

// writeCSV writes the record table to the configured output path.
func writeCSV(cfg *config.Config, rep *model.CrawlReport) error {
	if dir := filepath.Dir(cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(cfg.OutputFile) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := report.NewCSVWriter(f).Write(rep); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return f.Close()
}

// writeSummary writes the run summary in the configured format.
func writeSummary(cfg *config.Config, rep *model.CrawlReport, lang language.Tag) error {
	var out *os.File
	if cfg.ReportFile != "" {
		f, err := os.Create(cfg.ReportFile) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	} else {
		out = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out, report.WithLanguage(lang))
	default:
		w = report.NewSimpleWriter(out)
	}
	if _, err := w.Write(rep); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}
