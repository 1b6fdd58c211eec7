package hal

import "context"

// VisionRequest asks a vision model to read the main content of a page
// from its screenshots.
type VisionRequest struct {
	URL         string
	Screenshots []Screenshot

	// Hint is the structural extraction, passed along to help the model
	// orient itself. It may be empty.
	Hint string
}

// VisionResult is the model's reading of a page.
type VisionResult struct {
	Title      string
	Text       string
	Tables     string
	Confidence float64
	Warnings   []string
}

// Vision extracts page content from screenshots.
type Vision interface {
	// Available reports whether the capability is configured. The ladder
	// never calls Extract on an unavailable Vision.
	Available() bool

	// Extract reads the screenshots in req.
	// Returns EVISIONUNAVAILABLE when the capability is not configured.
	Extract(ctx context.Context, req *VisionRequest) (*VisionResult, error)
}

var _ Vision = DisabledVision{}

// DisabledVision is the Vision used when no model is configured.
type DisabledVision struct {
	// Reason is reported in warnings and errors, e.g. "GEMINI_API_KEY not set".
	Reason string
}

// Available always returns false.
func (v DisabledVision) Available() bool { return false }

// Extract always returns EVISIONUNAVAILABLE.
func (v DisabledVision) Extract(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	return nil, Errorf(EVISIONUNAVAILABLE, "%s", v.reason())
}

func (v DisabledVision) reason() string {
	if v.Reason == "" {
		return "vision extraction is not configured"
	}
	return v.Reason
}

