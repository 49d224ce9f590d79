package models

// SolveRequest is the payload for POST /quiz.
//
// Email and Secret authenticate the caller (checked by the API layer with a
// constant-time comparison); URL seeds the chain. The core solver never
// sees the credentials.
type SolveRequest struct {
	// Email is the registered operator email. Required.
	Email string `json:"email" binding:"required,email"`

	// Secret is the shared secret for this deployment. Required.
	Secret string `json:"secret" binding:"required"`

	// URL is the seed quiz URL. Required, must be absolute.
	URL string `json:"url" binding:"required,url"`
}
