package ladder

// State is a stage of the extraction ladder.
type State int

// Ladder states. A run starts in StateStart and ends in StateDone or
// StateFailed; stages never run out of this order.
const (
	StateStart State = iota
	StateCacheLookup
	StateValidating
	StateRendering
	StateDomExtracting
	StateScoring
	StateVisionExtracting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateStart:            "start",
	StateCacheLookup:      "cache_lookup",
	StateValidating:       "validating",
	StateRendering:        "rendering",
	StateDomExtracting:    "dom_extracting",
	StateScoring:          "scoring",
	StateVisionExtracting: "vision_extracting",
	StateDone:             "done",
	StateFailed:           "failed",
}

// String returns the state's name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
