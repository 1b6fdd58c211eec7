package ladder

import (
	"context"
	"errors"
	"strings"

	"github.com/fwojciec/hal"
)

// step runs the work of state s and returns the next state.
func (l *Ladder) step(ctx context.Context, r *run, s State) State {
	switch s {
	case StateStart:
		return l.start(r)
	case StateCacheLookup:
		return l.lookup(ctx, r)
	case StateValidating:
		if err := l.Validator.Validate(ctx, r.url); err != nil {
			return r.fail(err)
		}
		return StateRendering
	case StateRendering:
		rendering, err := l.Renderer.Render(ctx, r.url, r.renderOptions)
		if err != nil {
			return r.fail(err)
		}
		r.rendering = rendering
		return StateDomExtracting
	case StateDomExtracting:
		r.candidate = l.extractDOM(r)
		return StateScoring
	case StateScoring:
		return l.score(ctx, r)
	case StateVisionExtracting:
		return l.extractVision(ctx, r)
	}
	return r.fail(hal.Errorf(hal.EINTERNAL, "no transition from state %s", s))
}

// start normalizes the request and settles the effective mode.
func (l *Ladder) start(r *run) State {
	u, err := hal.NormalizeURL(r.req.URL)
	if err != nil {
		return r.fail(err)
	}
	r.url = u
	r.key = hal.NewCacheKey(u, r.now, r.req.Mode)

	r.mode = r.req.Mode
	if r.mode != hal.ModeDOM && !l.vision().Available() {
		r.mode = hal.ModeDOM
		r.noVision = true
		r.warn("%s", WarnVisionUnavailable)
	}
	return StateCacheLookup
}

// lookup serves a cached result unless vision is forced and the cached
// result came from the DOM rungs.
func (l *Ladder) lookup(ctx context.Context, r *run) State {
	artifact, err := l.Cache.Get(ctx, r.key)
	if hal.ErrorCode(err) == hal.ENOTFOUND {
		return StateValidating
	} else if err != nil {
		if ctx.Err() != nil {
			return r.fail(err)
		}
		if hal.ErrorCode(err) != hal.ECACHEIO {
			err = hal.Wrapf(hal.ECACHEIO, err, "cache read failed: %v", err)
		}
		return r.fail(err)
	}

	if r.mode == hal.ModeVision && artifact.Result.MethodUsed == hal.MethodDOM {
		return StateValidating
	}

	result := artifact.Result
	result.Cached = true
	result.CacheKey = r.key
	r.result = &result
	return StateDone
}

// score assesses the DOM candidate and decides whether to escalate.
func (l *Ladder) score(ctx context.Context, r *run) State {
	text := ""
	if r.rendering != nil {
		text = r.rendering.Text
	}
	r.assessment = l.scorer().Score(r.candidate, text)
	r.candidate.Confidence = r.assessment.Score

	if len(r.assessment.Hints) > 0 {
		r.warn("%s (%s)", WarnHints, strings.Join(r.assessment.Hints, ", "))
	}
	if r.assessment.Boilerplate {
		r.warn("%s", WarnBoilerplate)
	}

	switch {
	case r.noVision:
		// Vision was wanted but cannot run: lower confidence when it would
		// have been used.
		if r.req.Mode == hal.ModeVision || (r.req.Mode == hal.ModeAuto && r.assessment.Escalate) {
			r.candidate.Confidence = lowered(r.candidate.Confidence, 0.1)
		}
		return l.done(ctx, r)
	case r.mode == hal.ModeDOM:
		return l.done(ctx, r)
	case r.mode == hal.ModeVision:
		return StateVisionExtracting
	case r.assessment.Escalate:
		r.warn("%s", WarnAutoEscalated)
		return StateVisionExtracting
	}
	return l.done(ctx, r)
}

// extractVision runs the vision collaborator once. Failures fall back to
// the DOM candidate.
func (l *Ladder) extractVision(ctx context.Context, r *run) State {
	vr, err := l.readScreenshots(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return r.fail(ctx.Err())
		}
		r.warn("vision extraction failed: %v", err)
		r.candidate.Confidence = lowered(r.candidate.Confidence, 0.2)
		return l.done(ctx, r)
	}

	dom := r.candidate
	title := vr.Title
	if title == "" {
		title = dom.Title
	}
	r.candidate = &hal.Candidate{
		Title:      title,
		Text:       vr.Text,
		Tables:     vr.Tables,
		Links:      dom.Links,
		Method:     hal.MethodVision,
		Confidence: vr.Confidence,
	}
	r.warnings = append(r.warnings, vr.Warnings...)
	return l.done(ctx, r)
}

func (l *Ladder) readScreenshots(ctx context.Context, r *run) (*hal.VisionResult, error) {
	if len(r.rendering.Screenshots) == 0 {
		return nil, errors.New("no screenshots captured")
	}
	vr, err := l.vision().Extract(ctx, &hal.VisionRequest{
		URL:         r.url,
		Screenshots: r.rendering.Screenshots,
		Hint:        r.candidate.Text,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(vr.Text) == "" {
		return nil, errors.New("vision model returned no text")
	}
	return vr, nil
}

// done promotes the winning candidate to a result and writes it to the
// cache. A failed write is reported as a warning; a cancelled run is not
// cached at all.
func (l *Ladder) done(ctx context.Context, r *run) State {
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	c := r.candidate
	result := hal.Result{
		URL:            r.url,
		FetchedAt:      r.now,
		MethodUsed:     c.Method,
		Title:          c.Title,
		TextMarkdown:   c.Text,
		TablesMarkdown: c.Tables,
		Links:          c.Links,
		Screenshots:    []string{},
		Confidence:     c.Confidence,
		Warnings:       r.warnings,
		CacheKey:       r.key,
	}
	if result.Links == nil {
		result.Links = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	artifact := &hal.Artifact{
		Key:         r.key,
		Mode:        r.req.Mode,
		FinalURL:    r.rendering.FinalURL,
		HTML:        r.rendering.HTML,
		Result:      result,
		Screenshots: r.rendering.Screenshots,
	}
	artifact.Result.Citations = hal.Citations(r.url, c.Method, nil)

	if err := l.Cache.Put(ctx, r.key, artifact); err != nil {
		if ctx.Err() != nil {
			return r.fail(ctx.Err())
		}
		result.Warnings = append(result.Warnings, "cache write failed: "+err.Error())
	} else {
		result.Screenshots = artifact.Result.Screenshots
	}
	result.Citations = hal.Citations(r.url, c.Method, result.Screenshots)

	r.result = &result
	return StateDone
}

// lowered reduces confidence by delta without going below 0.2.
func lowered(confidence, delta float64) float64 {
	return max(0.2, confidence-delta)
}
