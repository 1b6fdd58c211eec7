package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/hal"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := hal.HistoryFilter{Limit: c.Limit}
	if c.Kind != "" && c.Kind != "all" {
		kind := hal.HistoryKind(c.Kind)
		filter.Kind = &kind
	}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	entries, err := deps.History.List(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", hal.ErrorMessage(err))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No history yet. Use 'hal browse' or 'hal filing' to fetch something.")
		return nil
	}

	for _, e := range entries {
		method := string(e.Method)
		if method == "" {
			method = "-"
		}
		fmt.Fprintf(deps.Stdout, "%s  %-6s  %-6s  %s  %s\n",
			e.RecordedAt.UTC().Format(time.RFC3339), e.Kind, method, e.URL, e.Path)
	}
	return nil
}
