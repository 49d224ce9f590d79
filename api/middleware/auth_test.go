package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
)

func authRouter(cfg config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/quiz", Auth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quiz", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	cfg := config.AuthConfig{Email: "user@example.com", Secret: "s3cret"}

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "valid credentials",
			body: `{"email": "user@example.com", "secret": "s3cret", "url": "https://q.example.com/1"}`,
			want: http.StatusOK,
		},
		{
			name: "email case insensitive",
			body: `{"email": "USER@example.com", "secret": "s3cret", "url": "https://q.example.com/1"}`,
			want: http.StatusOK,
		},
		{
			name: "wrong secret",
			body: `{"email": "user@example.com", "secret": "nope", "url": "https://q.example.com/1"}`,
			want: http.StatusForbidden,
		},
		{
			name: "wrong email",
			body: `{"email": "other@example.com", "secret": "s3cret", "url": "https://q.example.com/1"}`,
			want: http.StatusForbidden,
		},
		{
			name: "missing url field",
			body: `{"email": "user@example.com", "secret": "s3cret"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "relative url rejected by binding",
			body: `{"email": "user@example.com", "secret": "s3cret", "url": "/q/1"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "not json",
			body: `email=user`,
			want: http.StatusBadRequest,
		},
	}

	r := authRouter(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuth_OpenWhenUnconfigured(t *testing.T) {
	r := authRouter(config.AuthConfig{})
	w := postJSON(r, `{"email": "anyone@example.com", "secret": "whatever", "url": "https://q.example.com/1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no secret is configured", w.Code)
	}
}
