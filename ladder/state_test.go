package ladder_test

import (
	"testing"

	"github.com/fwojciec/hal/ladder"
	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    ladder.State
		want     string
		terminal bool
	}{
		{ladder.StateStart, "start", false},
		{ladder.StateCacheLookup, "cache_lookup", false},
		{ladder.StateValidating, "validating", false},
		{ladder.StateRendering, "rendering", false},
		{ladder.StateDomExtracting, "dom_extracting", false},
		{ladder.StateScoring, "scoring", false},
		{ladder.StateVisionExtracting, "vision_extracting", false},
		{ladder.StateDone, "done", true},
		{ladder.StateFailed, "failed", true},
		{ladder.State(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}
