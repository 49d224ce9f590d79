// Package answer turns a classified quiz task into an answer value by
// prompting the reasoning service and validating its structured response.
package answer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/llm"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// Outcome is a validated reasoning-service response.
type Outcome struct {
	// Answer is the decoded answer value (number, string, or bool).
	Answer any

	// NextURL is the follow-up task URL, empty when the chain ends here.
	NextURL string
}

// Engine formats task prompts, invokes the reasoning service, and parses
// its response against the expected schema. Malformed responses are
// re-prompted with a schema reminder up to formatRetries times.
type Engine struct {
	completer     llm.Completer
	formatRetries int
}

// NewEngine creates an Engine. formatRetries is the number of extra
// attempts after a malformed response.
func NewEngine(completer llm.Completer, formatRetries int) *Engine {
	if formatRetries < 0 {
		formatRetries = 0
	}
	return &Engine{completer: completer, formatRetries: formatRetries}
}

// Answer resolves the task. The task's kind must already be classified.
// Transport errors from the reasoning service are returned as-is for the
// caller's retry policy; format errors are retried here with an explicit
// schema reminder before surfacing as RESPONSE_FORMAT.
func (e *Engine) Answer(ctx context.Context, task *models.QuizTask) (*Outcome, error) {
	prompt := buildPrompt(task)

	var lastErr error
	for attempt := 0; attempt <= e.formatRetries; attempt++ {
		p := prompt
		if attempt > 0 {
			p += schemaReminder
		}

		raw, err := e.completer.Complete(ctx, p, SchemaHint)
		if err != nil {
			return nil, err
		}

		outcome, err := parseResponse(raw, task.URL)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		slog.Warn("reasoning response rejected, re-prompting",
			"url", task.URL, "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

// schemaResponse is the expected reasoning-service response shape.
type schemaResponse struct {
	Answer  json.RawMessage `json:"answer"`
	NextURL string          `json:"next_url"`
}

// parseResponse validates the raw response text against the schema.
// currentURL is used for the self-loop guard.
func parseResponse(raw, currentURL string) (*Outcome, error) {
	cleaned := stripFences(raw)

	var resp schemaResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, models.NewSolveError(models.ErrCodeResponseFormat, "response is not valid JSON", err)
	}
	if len(resp.Answer) == 0 || string(resp.Answer) == "null" {
		return nil, models.NewSolveError(models.ErrCodeResponseFormat, "response has no answer field", nil)
	}

	value, err := decodeAnswer(resp.Answer)
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeResponseFormat, "answer field is malformed", err)
	}

	if resp.NextURL != "" {
		u, err := url.Parse(resp.NextURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, models.NewSolveError(models.ErrCodeResponseFormat,
				"next_url is not an absolute http(s) URL: "+resp.NextURL, err)
		}
		if resp.NextURL == currentURL {
			return nil, models.NewSolveError(models.ErrCodeResponseFormat,
				"next_url points back at the current task", nil)
		}
	}

	return &Outcome{Answer: value, NextURL: resp.NextURL}, nil
}

// decodeAnswer converts the raw answer JSON into a Go value, coercing
// numeric-looking strings into numbers (graders compare numerically).
func decodeAnswer(raw json.RawMessage) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}

	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f, nil
		}
		return trimmed, nil
	}
	return value, nil
}

// stripFences removes markdown code fences some models wrap around JSON
// despite json_object mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
