// Package submit posts answers to the grading endpoint a quiz page
// advertises and parses the grader's reply, which carries the correctness
// signal and the next chain URL.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// payload is the grader's expected request body.
type payload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer any    `json:"answer"`
}

// Receipt is the grader's reply.
type Receipt struct {
	// Correct reports whether the grader accepted the answer.
	Correct bool `json:"correct"`

	// NextURL is the follow-up quiz URL, empty at the end of the chain.
	NextURL string `json:"url"`

	// Message is an optional grader note, kept for logging.
	Message string `json:"message"`
}

// Client posts submissions over plain net/http.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a submission client. Pass nil to use a default client
// with a 30s timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Bound is a Client pre-bound to the deployment's credentials, so the
// chain controller can submit answers without ever holding the secret.
type Bound struct {
	client *Client
	email  string
	secret string
}

// Bind attaches credentials to the client.
func (c *Client) Bind(email, secret string) *Bound {
	return &Bound{client: c, email: email, secret: secret}
}

// Submit posts the answer for quizURL to the endpoint and returns the
// grader's receipt.
func (b *Bound) Submit(ctx context.Context, endpoint, quizURL string, answer any) (*Receipt, error) {
	return b.client.submit(ctx, endpoint, payload{
		Email:  b.email,
		Secret: b.secret,
		URL:    quizURL,
		Answer: answer,
	})
}

func (c *Client) submit(ctx context.Context, endpoint string, p payload) (*Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeSubmit, "marshal submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeSubmit, "create submission request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "quizd/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeSubmit, "deliver submission to "+endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeSubmit, "read grader response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, models.NewSolveError(models.ErrCodeSubmit,
			fmt.Sprintf("grader returned status %d", resp.StatusCode), nil)
	}

	var receipt Receipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		return nil, models.NewSolveError(models.ErrCodeSubmit, "grader response is not valid JSON", err)
	}
	return &receipt, nil
}
