package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/scrape"
)

// Run executes the download command.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	source, err := loadSource(deps, c.SourceID)
	if err != nil {
		return err
	}

	if c.ContentFilter != "" {
		source.ContentFilter = c.ContentFilter
	}
	if c.Concurrency > 0 {
		deps.Downloader.Concurrency = c.Concurrency
	}

	fmt.Fprintf(deps.Stdout, "Downloading %d chapters from %s\n", len(source.Chapters), source.ListURL)

	stats, err := deps.Downloader.DownloadAll(deps.Ctx, source, downloadProgress(deps))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	printStats(deps.Stdout, stats)
	return nil
}

// downloadProgress reports per-chapter progress: green for downloads,
// yellow for skips, red for failures.
func downloadProgress(deps *Dependencies) scrape.ProgressFunc {
	downloaded := color.New(color.FgGreen)
	skipped := color.New(color.FgYellow)
	failed := color.New(color.FgRed)

	return func(event scrape.ProgressEvent) {
		switch event.Type {
		case scrape.ProgressDownloaded:
			downloaded.Fprintf(deps.Stdout, "  [%d/%d] downloaded %s\n", event.Completed, event.Total, event.Chapter.Title)
		case scrape.ProgressSkipped:
			skipped.Fprintf(deps.Stdout, "  [%d/%d] skipped %s\n", event.Completed, event.Total, event.Chapter.Title)
		case scrape.ProgressFailed:
			failed.Fprintf(deps.Stderr, "  [%d/%d] failed %s: %v\n", event.Completed, event.Total, event.Chapter.Title, event.Error)
		case scrape.ProgressFinished:
			// Summary printed after the run completes
		}
	}
}

// printStats prints the download run summary.
func printStats(w io.Writer, stats *scrape.Stats) {
	fmt.Fprintf(w, "Done: %d downloaded, %d skipped, %d failed (total %d)\n",
		stats.Downloaded, stats.Skipped, stats.Failed, stats.Total)
}
