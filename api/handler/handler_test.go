package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/answer"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/solver"
)

type fetchFunc func(ctx context.Context, url string, renderJS bool) (*models.FetchResult, error)

func (f fetchFunc) Fetch(ctx context.Context, url string, renderJS bool) (*models.FetchResult, error) {
	return f(ctx, url, renderJS)
}

type extractFunc func(kind models.ContentKind, body []byte, sourceURL string) (*models.Extraction, error)

func (f extractFunc) Extract(kind models.ContentKind, body []byte, sourceURL string) (*models.Extraction, error) {
	return f(kind, body, sourceURL)
}

type answerFunc func(ctx context.Context, task *models.QuizTask) (*answer.Outcome, error)

func (f answerFunc) Answer(ctx context.Context, task *models.QuizTask) (*answer.Outcome, error) {
	return f(ctx, task)
}

func testController(answerValue any, fetchErr error) *solver.Controller {
	fetcher := fetchFunc(func(_ context.Context, url string, _ bool) (*models.FetchResult, error) {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return &models.FetchResult{Kind: models.KindHTML, Body: []byte("<html></html>"), FinalURL: url}, nil
	})
	extractor := extractFunc(func(_ models.ContentKind, _ []byte, _ string) (*models.Extraction, error) {
		return &models.Extraction{Text: "what is six times seven"}, nil
	})
	answerer := answerFunc(func(_ context.Context, _ *models.QuizTask) (*answer.Outcome, error) {
		return &answer.Outcome{Answer: answerValue}, nil
	})
	classify := func(string, *models.Extraction) models.TaskKind { return models.TaskLookup }

	return solver.New(fetcher, extractor, classify, answerer, nil, config.SolverConfig{
		DefaultBudget: 2 * time.Second,
		StepTimeout:   time.Second,
		RetryBackoff:  time.Millisecond,
		MaxSteps:      5,
	})
}

func solveRouter(ctrl *solver.Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/quiz", Solve(ctrl, 2*time.Second))
	return r
}

func postQuiz(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quiz", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSolveHandler_Success(t *testing.T) {
	r := solveRouter(testController(float64(42), nil))
	w := postQuiz(r, `{"email": "u@example.com", "secret": "s", "url": "https://q.example.com/1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.SolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Correct {
		t.Error("expected correct=true")
	}
	if resp.URL != nil {
		t.Errorf("single-step chain should report url=null, got %q", *resp.URL)
	}
	if resp.Error != nil {
		t.Errorf("unexpected error detail: %+v", resp.Error)
	}
}

func TestSolveHandler_ChainFailureIsStill200(t *testing.T) {
	fetchErr := models.NewSolveError(models.ErrCodeFetch, "host unreachable", nil)
	r := solveRouter(testController(nil, fetchErr))
	w := postQuiz(r, `{"email": "u@example.com", "secret": "s", "url": "https://q.example.com/1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("chain failures must stay 200, got %d", w.Code)
	}

	var resp models.SolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Correct {
		t.Error("expected correct=false")
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeFetch {
		t.Errorf("error detail = %+v, want FETCH_FAILED", resp.Error)
	}
}

func TestSolveHandler_BadRequest(t *testing.T) {
	r := solveRouter(testController(1, nil))
	w := postQuiz(r, `{"email": "not-an-email", "secret": "s", "url": "https://q.example.com/1"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		stats StatsFunc
		want  string
	}{
		{"no browser", nil, "healthy"},
		{"pool idle", func() models.PoolStats { return models.PoolStats{MaxPages: 4, ActivePages: 1} }, "healthy"},
		{"pool saturated", func() models.PoolStats { return models.PoolStats{MaxPages: 4, ActivePages: 4} }, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", Health(tt.stats, time.Now()))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var resp models.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("parse response: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("status = %q, want %q", resp.Status, tt.want)
			}
		})
	}
}
