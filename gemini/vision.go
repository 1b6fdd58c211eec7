// Package gemini implements screenshot-based extraction with Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/hal"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const (
	// defaultConfidence is reported when the model omits a confidence.
	defaultConfidence = 0.5

	maxOutputTokens = 1800

	// DefaultHintTokens bounds the rendered-text hint sent with screenshots.
	DefaultHintTokens = 4000
)

// Ensure Vision implements hal.Vision at compile time.
var _ hal.Vision = (*Vision)(nil)

// Generator generates model content. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Counter counts tokens in text.
type Counter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Vision implements hal.Vision using Google Gemini.
type Vision struct {
	gen   Generator
	model string

	// Counter trims the hint to HintTokens when set. Without it the hint is
	// trimmed by a characters-per-token estimate.
	Counter    Counter
	HintTokens int
}

// NewVision creates a new Vision. An empty model selects DefaultModel.
func NewVision(gen Generator, model string) *Vision {
	if model == "" {
		model = DefaultModel
	}
	return &Vision{gen: gen, model: model, HintTokens: DefaultHintTokens}
}

// Model returns the configured model name.
func (v *Vision) Model() string {
	return v.model
}

// Available reports whether a client is configured.
func (v *Vision) Available() bool {
	return v.gen != nil
}

// Extract reads the page content out of the request's screenshots.
func (v *Vision) Extract(ctx context.Context, req *hal.VisionRequest) (*hal.VisionResult, error) {
	if !v.Available() {
		return nil, hal.Errorf(hal.EVISIONUNAVAILABLE, "gemini client not configured")
	}
	if req == nil || len(req.Screenshots) == 0 {
		return nil, hal.Errorf(hal.EINVALID, "at least one screenshot required")
	}

	hint, err := v.trimHint(ctx, req.Hint)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{{Text: BuildPrompt(req.URL, hint)}}
	for _, shot := range req.Screenshots {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: shot.Data},
		})
	}

	resp, err := v.gen.GenerateContent(ctx, v.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		BuildConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return nil, hal.Errorf(hal.EINTERNAL, "gemini returned nil result")
	}

	return ParseResponse(resp.Text())
}

// trimHint shortens hint to the configured token budget.
func (v *Vision) trimHint(ctx context.Context, hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" || v.HintTokens <= 0 {
		return hint, nil
	}

	// Roughly four characters per token.
	limit := v.HintTokens * 4
	if v.Counter == nil {
		if len(hint) > limit {
			hint = truncateRunes(hint, limit)
		}
		return hint, nil
	}

	for {
		n, err := v.Counter.CountTokens(ctx, hint)
		if err != nil {
			return "", fmt.Errorf("count hint tokens: %w", err)
		}
		if n <= v.HintTokens {
			return hint, nil
		}
		// Shrink proportionally, a little below the estimate.
		next := len(hint) * v.HintTokens / n * 9 / 10
		if next <= 0 {
			return "", nil
		}
		hint = truncateRunes(hint, next)
	}
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// BuildConfig returns the GenerateContentConfig for vision calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You read webpage screenshots and transcribe their main content as clean Markdown. Only report what is visible in the screenshots.",
			}},
		},
		Temperature:      &temp,
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":           {Type: genai.TypeString},
				"text_markdown":   {Type: genai.TypeString},
				"tables_markdown": {Type: genai.TypeString},
				"confidence":      {Type: genai.TypeNumber},
				"warnings":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"missing_notes":   {Type: genai.TypeString},
			},
			Required: []string{"text_markdown"},
		},
	}
}

// BuildPrompt builds the instruction sent ahead of the screenshots.
func BuildPrompt(pageURL, hint string) string {
	var sb strings.Builder
	sb.WriteString("Extract the main textual content from these webpage screenshots.\n")
	sb.WriteString("Return JSON with keys: title, text_markdown, tables_markdown, confidence (0..1), warnings (array of strings), missing_notes.\n")
	sb.WriteString("Render tables as Markdown tables. Add a warning for tiny or blurred text.\n")
	if pageURL != "" {
		fmt.Fprintf(&sb, "<source>%s</source>\n", pageURL)
	}
	if hint != "" {
		fmt.Fprintf(&sb, "<rendered_text>\n%s\n</rendered_text>\n", hint)
	}
	return sb.String()
}

type response struct {
	Title          string   `json:"title"`
	TextMarkdown   string   `json:"text_markdown"`
	TablesMarkdown string   `json:"tables_markdown"`
	Confidence     *float64 `json:"confidence"`
	Warnings       []string `json:"warnings"`
	MissingNotes   string   `json:"missing_notes"`
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse decodes the model's JSON payload. A payload wrapped in prose
// or code fences is located by its outermost braces.
func ParseResponse(raw string) (*hal.VisionResult, error) {
	var r response
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		m := jsonObject.FindString(raw)
		if m == "" {
			return nil, hal.Errorf(hal.EINTERNAL, "vision model returned non-JSON payload")
		}
		if err := json.Unmarshal([]byte(m), &r); err != nil {
			return nil, hal.Errorf(hal.EINTERNAL, "vision model returned invalid JSON: %v", err)
		}
	}

	confidence := defaultConfidence
	if r.Confidence != nil {
		confidence = min(1, max(0, *r.Confidence))
	}

	warnings := r.Warnings
	if notes := strings.TrimSpace(r.MissingNotes); notes != "" {
		warnings = append(warnings, "vision missing content: "+notes)
	}

	return &hal.VisionResult{
		Title:      strings.TrimSpace(r.Title),
		Text:       strings.TrimSpace(r.TextMarkdown),
		Tables:     strings.TrimSpace(r.TablesMarkdown),
		Confidence: confidence,
		Warnings:   warnings,
	}, nil
}
