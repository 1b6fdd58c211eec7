package ladder

import (
	"context"

	"github.com/fwojciec/hal"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of requests BrowseAll runs at once when
// no limit is given.
const DefaultConcurrency = 4

// BrowseAll runs independent ladders for reqs, at most concurrency at a
// time. Outcomes are returned in input order; one request failing does not
// stop the others.
func (l *Ladder) BrowseAll(ctx context.Context, reqs []*hal.FetchRequest, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := l.Fetch(ctx, req)
			outcomes[i] = Outcome{Request: req, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
