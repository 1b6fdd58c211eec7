package hal

import "strings"

// Scoring defaults. The weights are tunable through Scorer; these values
// reproduce the behaviour the extraction ladder was calibrated against.
const (
	DefaultEscalationThreshold = 0.55
	DefaultMinContentChars     = 800
	DefaultHintPenalty         = 0.25
)

// DefaultHints are phrases that indicate the page did not render its real
// content (bot walls, paywalls, JavaScript shells).
var DefaultHints = []string{
	"enable javascript",
	"captcha",
	"subscribe to read",
	"paywall",
	"access denied",
}

// Assessment is the outcome of scoring a candidate.
type Assessment struct {
	Score float64

	// Hints lists the negative hints found in the candidate text.
	Hints []string

	// Boilerplate is set when most lines are short, navigation-like lines.
	Boilerplate bool

	// Escalate is set when a more expensive extraction should be tried.
	Escalate bool
}

// Scorer computes a confidence score for a structural candidate.
//
// The score is 0.55 plus up to 0.35 for content length (saturating at
// MinContentChars) plus up to 0.1 for density (extracted text relative to
// the page's rendered text), minus HintPenalty when a negative hint fires.
// More content or higher density never lowers the score.
type Scorer struct {
	Threshold       float64
	MinContentChars int
	HintPenalty     float64
	Hints           []string
}

// NewScorer returns a Scorer with default weights.
func NewScorer() *Scorer {
	return &Scorer{
		Threshold:       DefaultEscalationThreshold,
		MinContentChars: DefaultMinContentChars,
		HintPenalty:     DefaultHintPenalty,
		Hints:           DefaultHints,
	}
}

// Score rates c against the page's rendered text.
func (s *Scorer) Score(c *Candidate, renderedText string) Assessment {
	minChars := s.MinContentChars
	if minChars <= 0 {
		minChars = DefaultMinContentChars
	}

	text := strings.TrimSpace(c.Text)
	chars := len([]rune(text))

	length := float64(chars) / float64(minChars)
	if length > 1 {
		length = 1
	}

	var density float64
	if rendered := len([]rune(strings.TrimSpace(renderedText))); rendered > 0 {
		density = float64(chars) / float64(rendered)
		if density > 1 {
			density = 1
		}
	}

	score := 0.55 + 0.35*length + 0.1*density

	hints := s.findHints(text)
	if len(hints) > 0 {
		score -= s.HintPenalty
	}
	score = clamp(score)

	return Assessment{
		Score:       score,
		Hints:       hints,
		Boilerplate: shortLineRatio(text) > 0.7,
		Escalate:    score < s.Threshold || chars < minChars || len(hints) > 0,
	}
}

func (s *Scorer) findHints(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, h := range s.Hints {
		if strings.Contains(lower, h) {
			found = append(found, h)
		}
	}
	return found
}

// shortLineRatio returns the fraction of non-blank lines shorter than 40 characters.
func shortLineRatio(text string) float64 {
	var total, short int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if len([]rune(line)) < 40 {
			short++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(short) / float64(total)
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
