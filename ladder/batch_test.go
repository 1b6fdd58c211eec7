package ladder_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLadder_BrowseAll(t *testing.T) {
	t.Parallel()

	t.Run("returns outcomes in input order", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.ladder.Validator = &mock.TargetValidator{
			ValidateFn: func(_ context.Context, url string) error {
				if url == "https://blocked.example/" {
					return hal.Blocked(hal.BlockNotAllowlisted, "blocked.example is not allowlisted")
				}
				return nil
			},
		}
		reqs := []*hal.FetchRequest{
			hal.NewFetchRequest("https://example.com/one"),
			hal.NewFetchRequest("https://blocked.example"),
			hal.NewFetchRequest("https://example.com/three"),
		}

		outcomes := f.ladder.BrowseAll(context.Background(), reqs, 2)

		require.Len(t, outcomes, 3)
		for i, o := range outcomes {
			assert.Same(t, reqs[i], o.Request)
		}
		require.NoError(t, outcomes[0].Err)
		assert.Equal(t, "https://example.com/one", outcomes[0].Result.URL)
		assert.Equal(t, hal.EBLOCKED, hal.ErrorCode(outcomes[1].Err))
		assert.Nil(t, outcomes[1].Result)
		require.NoError(t, outcomes[2].Err)
		assert.Equal(t, "https://example.com/three", outcomes[2].Result.URL)
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		var inFlight, peak atomic.Int32
		inner := f.ladder.Renderer
		f.ladder.Renderer = &mock.Renderer{
			RenderFn: func(ctx context.Context, url string, opts hal.RenderOptions) (*hal.Rendering, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				return inner.Render(ctx, url, opts)
			},
		}
		reqs := make([]*hal.FetchRequest, 8)
		for i := range reqs {
			reqs[i] = hal.NewFetchRequest("https://example.com/" + string(rune('a'+i)))
		}

		outcomes := f.ladder.BrowseAll(context.Background(), reqs, 3)

		require.Len(t, outcomes, 8)
		for _, o := range outcomes {
			assert.NoError(t, o.Err)
		}
		assert.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		assert.Empty(t, f.ladder.BrowseAll(context.Background(), nil, 0))
	})
}
