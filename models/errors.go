package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeFetch          = "FETCH_FAILED"
	ErrCodeFetchTimeout   = "FETCH_TIMEOUT"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"
	ErrCodeExtraction     = "EXTRACTION_FAILED"
	ErrCodeClassification = "CLASSIFICATION_AMBIGUOUS"
	ErrCodeResponseFormat = "RESPONSE_FORMAT"
	ErrCodeDeadline       = "DEADLINE_EXCEEDED"
	ErrCodeLoop           = "CHAIN_LOOP_DETECTED"
	ErrCodeChainDepth     = "CHAIN_TOO_DEEP"
	ErrCodeSubmit         = "SUBMIT_FAILED"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternal       = "INTERNAL_ERROR"

	// Reasoning-service error codes.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SolveError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type SolveError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SolveError) Unwrap() error {
	return e.Err
}

// NewSolveError creates a new SolveError.
func NewSolveError(code, message string, err error) *SolveError {
	return &SolveError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *SolveError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AsSolveError coerces any error into a *SolveError, wrapping unknown
// errors under ErrCodeInternal so callers always see a coded error.
func AsSolveError(err error) *SolveError {
	if se, ok := err.(*SolveError); ok {
		return se
	}
	return NewSolveError(ErrCodeInternal, err.Error(), err)
}
