package main

import (
	"fmt"

	"github.com/kalisz/bookdl"
	"github.com/kalisz/bookdl/config"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	task, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bookdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Task %q is valid\n", task.TaskName)
	fmt.Fprintf(deps.Stdout, "  URL:         %s\n", task.Novel.MenuURL)
	fmt.Fprintf(deps.Stdout, "  Title:       %s\n", task.Novel.Title)
	fmt.Fprintf(deps.Stdout, "  Concurrency: %d\n", task.Downloading.Concurrency)
	fmt.Fprintf(deps.Stdout, "  Format:      %s\n", task.Merging.Format)
	return nil
}
