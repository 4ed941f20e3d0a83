package main

import (
	"fmt"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
)

// Run executes the merge command.
func (c *MergeCmd) Run(deps *Dependencies) error {
	source, err := loadSource(deps, c.SourceID)
	if err != nil {
		return err
	}

	path, err := deps.Merger.Merge(deps.Ctx, source, book.MergeOptions{
		Title:   c.Title,
		Author:  c.Author,
		Format:  c.Format,
		Output:  c.Output,
		Reverse: c.Reverse,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
	return nil
}
