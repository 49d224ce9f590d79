package models

// SolveResponse is the response for POST /quiz.
//
// URL is the final chain URL reached (useful for audit) and null when no
// further chaining occurred.
type SolveResponse struct {
	Correct bool    `json:"correct"`
	URL     *string `json:"url"`

	// Error is populated only when the request itself was rejected
	// (bad input, auth failure). Chain failures still return 200 with
	// correct=false, matching the grader contract.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for the health endpoints.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
