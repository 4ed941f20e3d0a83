package main

import (
	"fmt"
	"strconv"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/scrape"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	sources, err := deps.Metadata.List(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources found. Use 'bookdl parse' to create one.")
		return nil
	}

	rows := make([][]string, 0, len(sources))
	for _, source := range sources {
		rows = append(rows, []string{
			source.ID,
			strconv.Itoa(len(source.Chapters)),
			source.ParsedAt.Format("2006-01-02 15:04"),
			scrape.TruncateURL(source.ListURL, 60),
		})
	}

	table := tablewriter.NewTable(deps.Stdout)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header([]string{"ID", "Chapters", "Parsed", "URL"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
