package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// scriptedCompleter returns canned responses in order, recording prompts.
type scriptedCompleter struct {
	responses []string
	err       error
	prompts   []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt, _ string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.prompts) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func newTask() *models.QuizTask {
	return &models.QuizTask{
		URL:        "https://q.example.com/1",
		TaskKind:   models.TaskLookup,
		Extraction: &models.Extraction{Text: "What is 6 times 7?"},
	}
}

func TestAnswer_Number(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"answer": 42}`}}
	e := NewEngine(c, 2)

	out, err := e.Answer(context.Background(), newTask())
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if out.Answer != float64(42) {
		t.Errorf("answer = %v (%T), want 42", out.Answer, out.Answer)
	}
	if out.NextURL != "" {
		t.Errorf("unexpected next_url %q", out.NextURL)
	}
}

func TestAnswer_NumericStringCoerced(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"answer": "42"}`}}
	e := NewEngine(c, 0)

	out, err := e.Answer(context.Background(), newTask())
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if out.Answer != float64(42) {
		t.Errorf("numeric string should coerce to a number, got %v (%T)", out.Answer, out.Answer)
	}
}

func TestAnswer_FencedJSON(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"```json\n{\"answer\": true}\n```"}}
	e := NewEngine(c, 0)

	out, err := e.Answer(context.Background(), newTask())
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if out.Answer != true {
		t.Errorf("answer = %v, want true", out.Answer)
	}
}

func TestAnswer_NextURL(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"answer": "done", "next_url": "https://q.example.com/2"}`}}
	e := NewEngine(c, 0)

	out, err := e.Answer(context.Background(), newTask())
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if out.NextURL != "https://q.example.com/2" {
		t.Errorf("next_url = %q", out.NextURL)
	}
}

func TestAnswer_RelativeNextURLRejected(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"answer": 1, "next_url": "/2"}`}}
	e := NewEngine(c, 1)

	_, err := e.Answer(context.Background(), newTask())
	se, ok := err.(*models.SolveError)
	if !ok || se.Code != models.ErrCodeResponseFormat {
		t.Fatalf("expected RESPONSE_FORMAT, got %v", err)
	}
}

func TestAnswer_SelfLoopRejected(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"answer": 1, "next_url": "https://q.example.com/1"}`}}
	e := NewEngine(c, 0)

	_, err := e.Answer(context.Background(), newTask())
	se, ok := err.(*models.SolveError)
	if !ok || se.Code != models.ErrCodeResponseFormat {
		t.Fatalf("expected RESPONSE_FORMAT for self-loop next_url, got %v", err)
	}
}

func TestAnswer_MissingAnswerExhaustsRetries(t *testing.T) {
	c := &scriptedCompleter{responses: []string{`{"next_url": "https://q.example.com/2"}`}}
	e := NewEngine(c, 2)

	_, err := e.Answer(context.Background(), newTask())
	se, ok := err.(*models.SolveError)
	if !ok || se.Code != models.ErrCodeResponseFormat {
		t.Fatalf("expected RESPONSE_FORMAT, got %v", err)
	}
	if len(c.prompts) != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", len(c.prompts))
	}
}

func TestAnswer_ReminderAppendedOnRetry(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"not json at all", `{"answer": 7}`}}
	e := NewEngine(c, 1)

	out, err := e.Answer(context.Background(), newTask())
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if out.Answer != float64(7) {
		t.Errorf("answer = %v, want 7", out.Answer)
	}
	if len(c.prompts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(c.prompts))
	}
	if strings.Contains(c.prompts[0], "REMINDER") {
		t.Error("first attempt should not carry the schema reminder")
	}
	if !strings.Contains(c.prompts[1], "REMINDER") {
		t.Error("retry should carry the schema reminder")
	}
}

func TestAnswer_TransportErrorPassedThrough(t *testing.T) {
	transportErr := models.NewSolveError(models.ErrCodeLLMFailure, "connection refused", errors.New("dial tcp"))
	c := &scriptedCompleter{err: transportErr}
	e := NewEngine(c, 2)

	_, err := e.Answer(context.Background(), newTask())
	if !errors.Is(err, transportErr) {
		t.Fatalf("transport error should pass through unchanged, got %v", err)
	}
	if len(c.prompts) != 1 {
		t.Errorf("transport errors are the caller's retry concern, got %d attempts", len(c.prompts))
	}
}

func TestBuildPrompt_StatisticIncludesStats(t *testing.T) {
	task := &models.QuizTask{
		URL:      "https://q.example.com/1",
		TaskKind: models.TaskStatistic,
		Extraction: &models.Extraction{
			Text: "What is the sum of Value?",
			Table: &models.Table{
				Headers: []string{"Value"},
				Rows:    [][]string{{"10"}, {"32"}},
			},
		},
	}

	prompt := buildPrompt(task)
	if !strings.Contains(prompt, "sum=42") {
		t.Errorf("statistic prompt should embed pre-computed stats, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Value") {
		t.Errorf("prompt should include the table, got:\n%s", prompt)
	}
}
