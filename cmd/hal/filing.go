package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/hal"
)

// Run executes the filing command.
func (c *FilingCmd) Run(deps *Dependencies) error {
	req := hal.NewFilingRequest(c.Ticker)
	req.Forms = c.Forms
	req.IncludeExhibits = c.Exhibits
	req.Format = c.Format
	req.Download = !c.NoDownload

	result, err := deps.Filings.Lookup(deps.Ctx, req)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", hal.ErrorMessage(err))
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(deps.Stdout, result.String())
	fmt.Fprintf(deps.Stdout, "source: %s\n", result.SourceURL)
	if result.DownloadPath != "" {
		fmt.Fprintf(deps.Stdout, "saved: %s\n", result.DownloadPath)
	}
	for _, e := range result.Exhibits {
		fmt.Fprintf(deps.Stdout, "exhibit: %s\n", e)
	}
	if c.Format == hal.FormatText {
		fmt.Fprintf(deps.Stdout, "\n%s\n", result.TextMarkdown)
	}
	return nil
}
