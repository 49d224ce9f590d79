// Package solver drives the fetch→extract→classify→answer loop across a
// chain of quiz URLs, enforcing the global deadline and per-step retries,
// and aggregating the final verdict.
package solver

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/answer"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/simhash"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/submit"
)

// loopThreshold is the max simhash distance at which two steps' extracted
// text counts as the same task revisited.
const loopThreshold = 3

// Fetcher retrieves raw content for a URL (see the fetcher package).
type Fetcher interface {
	Fetch(ctx context.Context, url string, renderJS bool) (*models.FetchResult, error)
}

// Extractor normalizes raw content (see the extract package).
type Extractor interface {
	Extract(kind models.ContentKind, body []byte, sourceURL string) (*models.Extraction, error)
}

// Answerer resolves a classified task (see the answer package).
type Answerer interface {
	Answer(ctx context.Context, task *models.QuizTask) (*answer.Outcome, error)
}

// Submitter posts an answer to a grading endpoint. It is pre-bound to the
// deployment credentials, so the controller never sees them.
type Submitter interface {
	Submit(ctx context.Context, endpoint, quizURL string, answerValue any) (*submit.Receipt, error)
}

// ClassifyFunc assigns a task kind from extracted evidence.
type ClassifyFunc func(text string, ex *models.Extraction) models.TaskKind

// Controller is the chain state machine. One Controller serves all chains;
// each Solve call owns its session state, so concurrent chains never share
// mutable data.
type Controller struct {
	fetcher   Fetcher
	extractor Extractor
	classify  ClassifyFunc
	answerer  Answerer
	submitter Submitter // nil disables grading submission
	cfg       config.SolverConfig
}

// New creates a Controller.
func New(f Fetcher, e Extractor, cl ClassifyFunc, a Answerer, s Submitter, cfg config.SolverConfig) *Controller {
	return &Controller{
		fetcher:   f,
		extractor: e,
		classify:  cl,
		answerer:  a,
		submitter: s,
		cfg:       cfg,
	}
}

// Solve runs the chain starting at seedURL under the given wall-clock
// budget. It always returns exactly one verdict in state DONE or FAILED;
// chain-level failures are folded into the verdict, never raw errors.
//
// The deadline is checked before each step, never mid-step: a started step
// runs to completion or its own local timeout. Each step's context is
// bounded by min(StepTimeout, remaining budget), so one in-flight step is
// the most the chain can overshoot by.
func (c *Controller) Solve(ctx context.Context, seedURL string, budget time.Duration) *models.Verdict {
	if budget <= 0 {
		budget = c.cfg.DefaultBudget
	}
	session := models.NewChainSession(budget)
	log := slog.With("chain", session.ChainID, "seed", seedURL)
	log.Info("chain starting", "budget", budget)

	visited := map[string]struct{}{seedURL: {}}
	var fingerprints []uint64
	currentURL := seedURL
	finalURL := "" // last URL the chain advanced to, "" until it advances

	for step := 0; step < c.cfg.MaxSteps; step++ {
		remaining := session.Remaining()
		if remaining <= 0 {
			return c.fail(session, log, finalURL,
				models.NewSolveError(models.ErrCodeDeadline, "budget exhausted before step could start", nil))
		}

		stepCtx, cancel := context.WithTimeout(ctx, minDuration(c.cfg.StepTimeout, remaining))
		task, receipt, stepErr := c.runStep(stepCtx, log, session, currentURL, &fingerprints)
		cancel()

		if stepErr != nil {
			return c.fail(session, log, finalURL, stepErr)
		}

		// ── ADVANCING ───────────────────────────────────────────────
		next := task.NextURL
		correct := true
		if receipt != nil {
			correct = receipt.Correct
			next = receipt.NextURL
			task.NextURL = next
		}

		if next == "" {
			session.Verdict = &models.Verdict{
				State:    models.StateDone,
				Correct:  correct,
				Answer:   task.Answer,
				FinalURL: finalURL,
				Steps:    len(session.Steps),
			}
			log.Info("chain done", "steps", len(session.Steps), "correct", correct)
			return session.Verdict
		}

		if err := validateNextURL(next); err != nil {
			return c.fail(session, log, finalURL, err)
		}
		if _, seen := visited[next]; seen {
			return c.fail(session, log, finalURL,
				models.NewSolveError(models.ErrCodeLoop, "chain revisits "+next, nil))
		}
		visited[next] = struct{}{}
		finalURL = next
		currentURL = next
		log.Info("chain advancing", "step", step+1, "next", next)
	}

	return c.fail(session, log, finalURL,
		models.NewSolveError(models.ErrCodeChainDepth, "chain exceeded maximum depth", nil))
}

// runStep executes one FETCHING→EXTRACTING→CLASSIFYING→ANSWERING
// (→SUBMITTING) pass. The returned receipt is nil when the page advertises
// no grading endpoint.
func (c *Controller) runStep(ctx context.Context, log *slog.Logger, session *models.ChainSession, taskURL string, fingerprints *[]uint64) (*models.QuizTask, *submit.Receipt, *models.SolveError) {
	task := &models.QuizTask{URL: taskURL, StartedAt: time.Now()}
	session.Steps = append(session.Steps, task)

	// ── FETCHING (retried with backoff) ─────────────────────────────
	result, err := c.fetchWithRetry(ctx, task)
	if err != nil {
		return task, nil, models.AsSolveError(err)
	}
	task.RawContent = result.Body
	task.ContentKind = result.Kind

	// ── EXTRACTING (never retried) ──────────────────────────────────
	ex, err := c.extractor.Extract(task.ContentKind, task.RawContent, task.URL)
	if err != nil {
		return task, nil, models.AsSolveError(err)
	}
	task.Extraction = ex

	// Content-level loop guard: a step whose text is near-identical to an
	// earlier step means the chain is circling even if the URLs differ.
	fp := simhash.Fingerprint(ex.Text)
	for _, prev := range *fingerprints {
		if fp != 0 && simhash.Similar(fp, prev, loopThreshold) {
			return task, nil, models.NewSolveError(models.ErrCodeLoop,
				"step content repeats an earlier step", nil)
		}
	}
	*fingerprints = append(*fingerprints, fp)

	// ── CLASSIFYING (degrades to unknown, never fails) ──────────────
	task.TaskKind = c.classify(ex.Text, ex)
	log.Debug("task classified", "url", task.URL, "kind", task.TaskKind, "contentKind", task.ContentKind)

	// ── ANSWERING (transport errors retried with backoff) ───────────
	outcome, err := c.answerWithRetry(ctx, task)
	if err != nil {
		return task, nil, models.AsSolveError(err)
	}
	task.Answer = outcome.Answer
	task.NextURL = outcome.NextURL

	// ── SUBMITTING (only when the page advertises a grader) ─────────
	if ex.SubmitURL == "" || c.submitter == nil {
		return task, nil, nil
	}
	receipt, err := c.submitWithRetry(ctx, ex.SubmitURL, task)
	if err != nil {
		return task, nil, models.AsSolveError(err)
	}
	log.Info("answer graded", "url", task.URL, "correct", receipt.Correct, "next", receipt.NextURL)
	return task, receipt, nil
}

func (c *Controller) fetchWithRetry(ctx context.Context, task *models.QuizTask) (*models.FetchResult, error) {
	var lastErr error
	backoff := c.cfg.RetryBackoff

	for attempt := 0; attempt <= c.cfg.FetchRetries; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, backoff) {
				break
			}
			backoff *= 2
		}
		task.AttemptCount++

		result, err := c.fetcher.Fetch(ctx, task.URL, false)
		if err == nil {
			return result, nil
		}
		lastErr = err
		slog.Warn("fetch attempt failed", "url", task.URL, "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Controller) answerWithRetry(ctx context.Context, task *models.QuizTask) (*answer.Outcome, error) {
	var lastErr error
	backoff := c.cfg.RetryBackoff

	for attempt := 0; attempt <= c.cfg.AnswerRetries; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, backoff) {
				break
			}
			backoff *= 2
		}

		outcome, err := c.answerer.Answer(ctx, task)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		slog.Warn("answer attempt failed", "url", task.URL, "attempt", attempt+1, "error", err)

		// Format errors already exhausted their reformulation budget
		// inside the engine; more attempts won't change the outcome.
		if se, ok := err.(*models.SolveError); ok && se.Code == models.ErrCodeResponseFormat {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Controller) submitWithRetry(ctx context.Context, endpoint string, task *models.QuizTask) (*submit.Receipt, error) {
	var lastErr error
	backoff := c.cfg.RetryBackoff

	for attempt := 0; attempt <= c.cfg.FetchRetries; attempt++ {
		if attempt > 0 {
			if !sleepCtx(ctx, backoff) {
				break
			}
			backoff *= 2
		}

		receipt, err := c.submitter.Submit(ctx, endpoint, task.URL, task.Answer)
		if err == nil {
			return receipt, nil
		}
		lastErr = err
		slog.Warn("submission attempt failed", "endpoint", endpoint, "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// fail records the FAILED verdict on the session and returns it.
func (c *Controller) fail(session *models.ChainSession, log *slog.Logger, finalURL string, err *models.SolveError) *models.Verdict {
	session.Verdict = &models.Verdict{
		State:    models.StateFailed,
		Correct:  false,
		FinalURL: finalURL,
		Steps:    len(session.Steps),
		Err:      err,
	}
	log.Warn("chain failed", "steps", len(session.Steps), "code", err.Code, "error", err)
	return session.Verdict
}

// validateNextURL enforces the absolute-URL invariant on chain pointers.
func validateNextURL(next string) *models.SolveError {
	u, err := url.Parse(next)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewSolveError(models.ErrCodeClassification,
			"next task URL is not absolute http(s): "+next, err)
	}
	return nil
}

// sleepCtx sleeps for d unless the context expires first; reports whether
// the full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
