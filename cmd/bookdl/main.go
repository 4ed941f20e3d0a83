package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
	"github.com/kalisz/bookdl/config"
	"github.com/kalisz/bookdl/fs"
	"github.com/kalisz/bookdl/goquery"
	"github.com/kalisz/bookdl/rod"
	"github.com/kalisz/bookdl/scrape"
	bookslog "github.com/kalisz/bookdl/slog"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Data directory holding chapter files and source metadata. Set
	// before calling Run(); the --data-dir flag overrides it.
	DataDir string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DataDir: defaultDataDir(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("bookdl"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'bookdl --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	if cli.NoColor {
		color.NoColor = true
	}
	if cli.DataDir != "" {
		m.DataDir = cli.DataDir
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, nil))
	}

	// Wire the stores and the assembly tools into dependencies
	querier := goquery.NewQuerier()
	chapters := fs.NewChapterStore(m.DataDir)

	var metadata bookdl.MetadataStore = fs.NewMetadataStore(filepath.Join(m.DataDir, "metadata"))
	if cli.Verbose {
		metadata = bookslog.NewLoggingMetadataStore(metadata, logger)
	}

	deps.Metadata = metadata
	deps.Chapters = chapters
	deps.Merger = &book.Merger{Chapters: chapters, Querier: querier, Logger: logger}
	deps.Replacer = &book.Replacer{Chapters: chapters, Logger: logger}

	// The task command's browser settings come from the task file, so the
	// file is loaded before the browser is wired.
	if cmd == "task" {
		task, err := config.Load(cli.Task.Config)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Run 'bookdl validate' to check the task file")
			return err
		}
		deps.Task = task
	}

	// Wire the browser for commands that fetch pages
	if cmd == "parse" || cmd == "download" || cmd == "task" {
		opts := []rod.Option{
			rod.WithHeadless(cli.Headless),
			rod.WithPageBudget(cli.PageBudget),
		}
		if cli.ChromePath != "" {
			opts = append(opts, rod.WithBrowserBin(cli.ChromePath))
		}
		if cli.Proxy != "" {
			opts = append(opts, rod.WithProxy(cli.Proxy))
		}
		if cmd == "task" {
			opts = browserOptions(deps.Task.Browser, cli.PageBudget)
		}

		fetcher, err := rod.NewFetcher(opts...)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer fetcher.Close()

		var fetch bookdl.Fetcher = fetcher
		if cli.Verbose {
			fetch = bookslog.NewLoggingFetcher(fetch, logger)
		}

		walker := &scrape.Walker{
			Fetcher: fetch,
			Querier: querier,
			Waiter:  &scrape.Waiter{Detector: goquery.NewDetector(), Logger: logger},
			// One request per second per domain; concurrency bounds the
			// in-flight work, the limiter bounds the request rate.
			Limiter: scrape.NewDomainLimiter(1.0),
			Logger:  logger,
		}
		deps.Walker = walker
		deps.Downloader = &scrape.Downloader{
			Walker:      walker,
			Querier:     querier,
			Chapters:    chapters,
			Concurrency: scrape.DefaultConcurrency,
			Logger:      logger,
		}
	}

	return kongCtx.Run(deps)
}

// browserOptions maps a task file's browser section to fetcher options.
func browserOptions(b config.Browser, pageBudget int64) []rod.Option {
	opts := []rod.Option{
		rod.WithHeadless(b.Headless),
		rod.WithPageBudget(pageBudget),
	}
	if b.ChromePath != "" {
		opts = append(opts, rod.WithBrowserBin(b.ChromePath))
	}
	if b.Proxy != "" {
		opts = append(opts, rod.WithProxy(b.Proxy))
	}
	return opts
}

func defaultDataDir() string {
	if dir := os.Getenv("BOOKDL_DATA"); dir != "" {
		return dir
	}
	return "chapters"
}
