package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// ContentKind tags the format of fetched page content.
type ContentKind string

const (
	KindHTML ContentKind = "html"
	KindPDF  ContentKind = "pdf"
	KindCSV  ContentKind = "csv"
	KindXLSX ContentKind = "xlsx"
	KindJSON ContentKind = "json"
)

// TaskKind is the inferred category of a quiz step, driving how it is answered.
type TaskKind string

const (
	TaskScrape    TaskKind = "scrape"
	TaskStatistic TaskKind = "statistic"
	TaskFileParse TaskKind = "file_parse"
	TaskLookup    TaskKind = "lookup"
	TaskUnknown   TaskKind = "unknown"
)

// ChainState is the ChainController's state machine position.
type ChainState string

const (
	StatePending     ChainState = "PENDING"
	StateFetching    ChainState = "FETCHING"
	StateExtracting  ChainState = "EXTRACTING"
	StateClassifying ChainState = "CLASSIFYING"
	StateAnswering   ChainState = "ANSWERING"
	StateSubmitting  ChainState = "SUBMITTING"
	StateAdvancing   ChainState = "ADVANCING"
	StateDone        ChainState = "DONE"
	StateFailed      ChainState = "FAILED"
)

// Table is a structured tabular payload extracted from a page or data file.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column returns the index of the named header (case-insensitive) or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Extraction is the normalized output of the ContentExtractor: a
// human-readable text summary for prompting plus structured payloads
// for deterministic computation.
type Extraction struct {
	// Text is the prompt-ready text rendering of the content.
	Text string

	// Table is the first/largest structured table found, nil when the
	// content has no tabular data.
	Table *Table

	// Object is the decoded payload for JSON content.
	Object any

	// FileLinks lists absolute URLs of data files referenced by the page
	// (.csv, .xlsx, .pdf, .json).
	FileLinks []string

	// SubmitURL is the grading endpoint advertised by the page, if any.
	SubmitURL string
}

// QuizTask carries the state of one chain step. It is created when the
// controller begins a step, mutated in place as each component fills its
// fields, and owned exclusively by that loop iteration.
type QuizTask struct {
	URL          string
	RawContent   []byte
	ContentKind  ContentKind
	TaskKind     TaskKind
	Extraction   *Extraction
	Answer       any
	NextURL      string
	AttemptCount int
	StartedAt    time.Time
}

// Verdict is the single, explicit outcome of a chain. Every exit from the
// controller yields exactly one Verdict in state DONE or FAILED.
type Verdict struct {
	State    ChainState
	Correct  bool
	Answer   any
	FinalURL string // last URL the chain advanced to; empty when it never advanced
	Steps    int
	Err      *SolveError // set only when State == StateFailed
}

// ChainSession owns the ordered sequence of QuizTasks for one solve request.
// The budget invariant is checked before starting a new step, never mid-step.
type ChainSession struct {
	ChainID  string
	Deadline time.Time
	Steps    []*QuizTask
	Verdict  *Verdict
}

// NewChainSession creates a session with an absolute deadline derived from
// the caller's budget.
func NewChainSession(budget time.Duration) *ChainSession {
	return &ChainSession{
		ChainID:  newChainID(),
		Deadline: time.Now().Add(budget),
	}
}

// Remaining returns the wall-clock time left before the deadline.
func (s *ChainSession) Remaining() time.Duration {
	return time.Until(s.Deadline)
}

// newChainID returns a random 16-hex-char identifier for log correlation.
func newChainID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "chain-unknown"
	}
	return hex.EncodeToString(b[:])
}
