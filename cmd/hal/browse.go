package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/fs"
)

// Run executes the browse command.
func (c *BrowseCmd) Run(deps *Dependencies) error {
	reqs := make([]*hal.FetchRequest, 0, len(c.URLs))
	for _, u := range c.URLs {
		req := c.request(u)
		if err := req.Validate(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", hal.ErrorMessage(err))
			return err
		}
		reqs = append(reqs, req)
	}

	var writer *fs.Writer
	if c.Out != "" {
		writer = fs.NewWriter(c.Out)
	}
	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for _, o := range deps.Ladder.BrowseAll(deps.Ctx, reqs, c.Concurrency) {
		if o.Err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", o.Request.URL, hal.ErrorMessage(o.Err))
			continue
		}
		for _, w := range o.Result.Warnings {
			fmt.Fprintf(deps.Stderr, "warning: %s: %s\n", o.Request.URL, w)
		}

		switch {
		case writer != nil:
			path, err := writer.WriteResult(o.Result)
			if err != nil {
				failed++
				fmt.Fprintf(deps.Stderr, "error: %s: %v\n", o.Request.URL, err)
				continue
			}
			fmt.Fprintf(deps.Stdout, "%s  %s  %.2f  %s\n", o.Result.MethodUsed, o.Result.URL, o.Result.Confidence, path)
		case c.JSON:
			if err := enc.Encode(o.Result); err != nil {
				return err
			}
		default:
			fmt.Fprint(deps.Stdout, fs.FormatResult(o.Result))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(reqs))
	}
	return nil
}

func (c *BrowseCmd) request(url string) *hal.FetchRequest {
	req := hal.NewFetchRequest(url)
	req.Mode = hal.Mode(c.Mode)
	req.Wait.TimeoutMS = c.WaitTimeout
	req.Wait.NetworkIdle = !c.NoIdle
	req.Wait.Selector = c.WaitSelector
	req.Screenshot.Selectors = c.Selectors
	return req
}
