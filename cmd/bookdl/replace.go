package main

import (
	"encoding/json"
	"fmt"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/book"
)

// Run executes the replace command.
func (c *ReplaceCmd) Run(deps *Dependencies) error {
	replacements, err := parsePairs(c.Replacements)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: --replacements: %s\n", bookdl.ErrorMessage(err))
		return err
	}
	regexReplacements, err := parsePairs(c.RegexReplacements)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: --regex-replacements: %s\n", bookdl.ErrorMessage(err))
		return err
	}
	if len(replacements) == 0 && len(regexReplacements) == 0 {
		fmt.Fprintf(deps.Stderr, "error: pass --replacements or --regex-replacements\n")
		return bookdl.Errorf(bookdl.EINVALID, "no replacements given")
	}

	source, err := loadSource(deps, c.SourceID)
	if err != nil {
		return err
	}

	result, err := deps.Replacer.Run(deps.Ctx, source.ID, book.ReplaceOptions{
		Replacements:      replacements,
		RegexReplacements: regexReplacements,
		CaseSensitive:     c.CaseSensitive,
		Backup:            c.Backup,
		DryRun:            c.DryRun,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Processed %d files, modified %d (%d replacements)\n",
		result.Files, result.Changed, result.Replacements)
	if c.DryRun {
		fmt.Fprintln(deps.Stdout, "Dry run: no files were written")
	}
	return nil
}

// parsePairs decodes a JSON array of two-element [old, new] arrays.
func parsePairs(raw string) ([]bookdl.Replacement, error) {
	if raw == "" {
		return nil, nil
	}

	var pairs [][]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, bookdl.Errorf(bookdl.EINVALID, "expected a JSON array of [old, new] pairs: %v", err)
	}

	replacements := make([]bookdl.Replacement, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, bookdl.Errorf(bookdl.EINVALID, "pair %d must have exactly two elements", i)
		}
		replacements = append(replacements, bookdl.Replacement{Old: pair[0], New: pair[1]})
	}
	return replacements, nil
}
