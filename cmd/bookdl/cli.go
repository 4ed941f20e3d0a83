package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
	"github.com/kalisz/bookdl/config"
	"github.com/kalisz/bookdl/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Metadata bookdl.MetadataStore
	Chapters bookdl.ChapterStore

	// Walker and Downloader are wired only for commands that fetch pages.
	Walker     *scrape.Walker
	Downloader *scrape.Downloader

	Merger   *book.Merger
	Replacer *book.Replacer

	// Task is the loaded task file. Main loads it before dispatch so the
	// browser can be wired from the file's settings.
	Task *config.Task
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DataDir    string `help:"Directory holding chapter files and metadata (default: $BOOKDL_DATA or ./chapters)" placeholder:"DIR"`
	Verbose    bool   `short:"v" help:"Log fetch and store operations to stderr"`
	NoColor    bool   `help:"Disable colored output"`
	ChromePath string `help:"Chrome or Chromium binary to launch" placeholder:"PATH"`
	Proxy      string `help:"Proxy address for browser traffic (e.g. 127.0.0.1:10808)"`
	Headless   bool   `default:"true" negatable:"" help:"Run the browser headless"`
	PageBudget int64  `default:"75" help:"Pages served before the browser is recycled"`

	Parse    ParseCmd    `cmd:"" help:"Discover a chapter list and store it as a source"`
	Download DownloadCmd `cmd:"" help:"Download the chapters of a stored source"`
	Sources  SourcesCmd  `cmd:"" help:"List stored sources"`
	Merge    MergeCmd    `cmd:"" help:"Merge downloaded chapters into a single book file"`
	Replace  ReplaceCmd  `cmd:"" help:"Rewrite text across downloaded chapter files"`
	Task     TaskCmd     `cmd:"" help:"Run a complete workflow from a task file"`
	Validate ValidateCmd `cmd:"" help:"Validate a task file"`
}

// ParseCmd is the "parse" subcommand.
type ParseCmd struct {
	URL                       string `arg:"" help:"Chapter-list page URL"`
	ChapterSelector           string `required:"" help:"CSS selector matching chapter links"`
	ContentSelector           string `required:"" help:"CSS selector matching chapter content nodes"`
	ListPaginationSelector    string `help:"Selector for the chapter list's next-page link"`
	ChapterPaginationSelector string `help:"Selector for next-page links inside chapters"`
	ContentFilter             string `help:"Regex applied to chapter content before replacements"`
	SourceID                  string `help:"Pin the source id instead of deriving it from the URL"`
}

// DownloadCmd is the "download" subcommand.
type DownloadCmd struct {
	SourceID      string `arg:"" optional:"" help:"Source id; defaults to the most recently parsed"`
	Concurrency   int    `short:"c" default:"3" help:"Concurrent chapter downloads"`
	ContentFilter string `help:"Override the stored content filter for this run"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}

// MergeCmd is the "merge" subcommand.
type MergeCmd struct {
	SourceID string `arg:"" optional:"" help:"Source id; defaults to the most recently parsed"`
	Title    string `default:"Downloaded Novel" help:"Book title"`
	Author   string `help:"Author name"`
	Format   string `default:"txt" enum:"txt,epub" help:"Output format: txt or epub"`
	Output   string `help:"Output path; defaults to the title in the current directory"`
	Reverse  bool   `help:"Merge chapters in reverse order"`
}

// ReplaceCmd is the "replace" subcommand.
type ReplaceCmd struct {
	SourceID          string `arg:"" optional:"" help:"Source id; defaults to the most recently parsed"`
	Replacements      string `help:"JSON array of [old, new] literal pairs"`
	RegexReplacements string `help:"JSON array of [pattern, replacement] regex pairs"`
	CaseSensitive     bool   `help:"Match literal pairs case sensitively"`
	Backup            bool   `help:"Keep a .bak copy of each file before its first modification"`
	DryRun            bool   `help:"Report changes without writing files"`
}

// TaskCmd is the "task" subcommand.
type TaskCmd struct {
	Config string `arg:"" help:"Path to the JSON task file"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	Config string `arg:"" help:"Path to the JSON task file"`
}

// loadSource resolves the source a command operates on: the given id, or
// the most recently parsed source when the id is empty.
func loadSource(deps *Dependencies, id string) (*bookdl.Source, error) {
	if id != "" {
		source, err := deps.Metadata.Load(deps.Ctx, id)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: source %q not found. Run 'bookdl sources' to see stored sources.\n", id)
			return nil, err
		}
		return source, nil
	}

	source, err := deps.Metadata.FindBest(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: no stored sources. Run 'bookdl parse' first.\n")
		return nil, err
	}
	return source, nil
}
