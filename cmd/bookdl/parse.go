package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kalisz/bookdl"
)

// sourceIDPattern matches pinned source ids. The same rule applies to
// parsing.source_id in task files.
var sourceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Run executes the parse command.
func (c *ParseCmd) Run(deps *Dependencies) error {
	if c.SourceID != "" && !sourceIDPattern.MatchString(c.SourceID) {
		fmt.Fprintf(deps.Stderr, "error: source id may contain only letters, digits, and underscores\n")
		return bookdl.Errorf(bookdl.EINVALID, "invalid source id %q", c.SourceID)
	}

	chapters, err := deps.Walker.DiscoverChapters(deps.Ctx, c.URL, c.ChapterSelector, c.ListPaginationSelector)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}
	if len(chapters) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no chapters found, check the chapter selector\n")
		return bookdl.Errorf(bookdl.ENOCONTENT, "no chapters found at %q", c.URL)
	}

	source := &bookdl.Source{
		ID:                        c.SourceID,
		ListURL:                   c.URL,
		ParsedAt:                  time.Now(),
		ChapterSelector:           c.ChapterSelector,
		ContentSelector:           c.ContentSelector,
		ListPaginationSelector:    c.ListPaginationSelector,
		ChapterPaginationSelector: c.ChapterPaginationSelector,
		ContentFilter:             c.ContentFilter,
		Chapters:                  chapters,
	}

	if err := deps.Metadata.Save(deps.Ctx, source); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Parsed %d chapters from %s\n", len(chapters), c.URL)
	fmt.Fprintf(deps.Stdout, "Saved source %s\n", source.ID)
	return nil
}
