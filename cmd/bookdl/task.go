package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
	"github.com/kalisz/bookdl/config"
)

// Run executes the task command: parse, download, replace, merge, as one
// workflow driven by the task file Main loaded into deps.
func (c *TaskCmd) Run(deps *Dependencies) error {
	cfg := deps.Task
	fmt.Fprintf(deps.Stdout, "Task %q\n", cfg.TaskName)

	source, err := parseStep(deps, cfg)
	if err != nil {
		return err
	}
	if err := downloadStep(deps, cfg, source); err != nil {
		return err
	}
	if err := replaceStep(deps, cfg, source); err != nil {
		return err
	}
	return mergeStep(deps, cfg, source)
}

// parseStep discovers and stores the chapter list. A stored source for the
// same URL is reused as-is; its selectors win over the task file's so a
// settled chapter list is never invalidated by config edits. The content
// filter is the exception: it only affects future downloads, so the task
// file's value wins when set.
func parseStep(deps *Dependencies, cfg *config.Task) (*bookdl.Source, error) {
	fresh := cfg.Source()

	stored, err := deps.Metadata.Load(deps.Ctx, fresh.ID)
	if err == nil && stored.ListURL == fresh.ListURL {
		fmt.Fprintf(deps.Stdout, "[1/4] Using stored chapter list (%d chapters)\n", len(stored.Chapters))
		if fresh.ContentFilter != "" {
			stored.ContentFilter = fresh.ContentFilter
		}
		return stored, nil
	}
	if err == nil {
		fmt.Fprintf(deps.Stdout, "[1/4] Stored source %s is for a different URL, re-parsing\n", fresh.ID)
	} else {
		fmt.Fprintf(deps.Stdout, "[1/4] Parsing chapter list from %s\n", fresh.ListURL)
	}

	chapters, err := deps.Walker.DiscoverChapters(deps.Ctx, fresh.ListURL, fresh.ChapterSelector, fresh.ListPaginationSelector)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return nil, err
	}
	if len(chapters) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no chapters found, check parsing.chapter_selector\n")
		return nil, bookdl.Errorf(bookdl.ENOCONTENT, "no chapters found at %q", fresh.ListURL)
	}

	fresh.Chapters = chapters
	fresh.ParsedAt = time.Now()
	if err := deps.Metadata.Save(deps.Ctx, fresh); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return nil, err
	}

	fmt.Fprintf(deps.Stdout, "      Found %d chapters\n", len(chapters))
	return fresh, nil
}

// downloadStep downloads every chapter that is not yet on disk.
func downloadStep(deps *Dependencies, cfg *config.Task, source *bookdl.Source) error {
	fmt.Fprintf(deps.Stdout, "[2/4] Downloading %d chapters\n", len(source.Chapters))

	deps.Downloader.Concurrency = cfg.Downloading.Concurrency
	stats, err := deps.Downloader.DownloadAll(deps.Ctx, source, downloadProgress(deps))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	printStats(deps.Stdout, stats)
	return nil
}

// replaceStep rewrites chapter files per the processing section. Nothing
// to apply means the step is skipped.
func replaceStep(deps *Dependencies, cfg *config.Task, source *bookdl.Source) error {
	p := cfg.Processing
	if len(p.Replacements) == 0 && len(p.RegexReplacements) == 0 {
		fmt.Fprintln(deps.Stdout, "[3/4] No replacements configured, skipping")
		return nil
	}

	fmt.Fprintln(deps.Stdout, "[3/4] Processing content")
	result, err := deps.Replacer.Run(deps.Ctx, source.ID, book.ReplaceOptions{
		Replacements:      p.Replacements,
		RegexReplacements: p.RegexReplacements,
		CaseSensitive:     p.CaseSensitive,
		Backup:            p.Backup,
		DryRun:            p.DryRun,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "      Modified %d of %d files (%d replacements)\n",
		result.Changed, result.Files, result.Replacements)
	return nil
}

// mergeStep assembles the final book file.
func mergeStep(deps *Dependencies, cfg *config.Task, source *bookdl.Source) error {
	fmt.Fprintln(deps.Stdout, "[4/4] Merging chapters")

	name := cfg.Novel.OutputFilename
	if name == "" {
		name = bookdl.SanitizeTitle(cfg.Novel.Title)
	}

	path, err := deps.Merger.Merge(deps.Ctx, source, book.MergeOptions{
		Title:   cfg.Novel.Title,
		Author:  cfg.Novel.Author,
		Format:  cfg.Merging.Format,
		Output:  filepath.Join(outputDir(cfg), name),
		Reverse: cfg.Merging.Reverse,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "      Wrote %s\n", path)
	return nil
}

// outputDir resolves merging.output_dir, defaulting to a Novels directory
// under the user's Downloads.
func outputDir(cfg *config.Task) string {
	if cfg.Merging.OutputDir != "" {
		return cfg.Merging.OutputDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads", "Novels")
}
