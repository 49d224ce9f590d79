package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetcher   FetcherConfig
	Solver    SolverConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance used for JS rendering.
type BrowserConfig struct {
	// Enabled toggles the browser engine. When false (or when the launch
	// fails), fetches stay on the static HTTP path.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string
}

// FetcherConfig controls page fetching behavior.
type FetcherConfig struct {
	// StaticTimeout is the deadline for the pure HTTP path.
	StaticTimeout time.Duration // default: 8s

	// RenderTimeout is the deadline for the browser rendering path.
	RenderTimeout time.Duration // default: 25s

	// BlockedResourceTypes lists browser resource types to block while
	// rendering. default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// EngineMemoryTTL is how long a domain's preferred engine is remembered.
	EngineMemoryTTL time.Duration // default: 24h

	// MaxBodyBytes caps the downloaded body size.
	MaxBodyBytes int64 // default: 10 MiB
}

// SolverConfig controls the chain controller.
type SolverConfig struct {
	// DefaultBudget is the wall-clock budget for one chain.
	DefaultBudget time.Duration // default: 180s

	// StepTimeout bounds a single step including its local retries.
	StepTimeout time.Duration // default: 45s

	// FetchRetries is the number of extra fetch attempts per step.
	FetchRetries int // default: 2

	// AnswerRetries is the number of extra reasoning attempts per step
	// after transport failures (format reformulation is counted separately
	// inside the answer engine).
	AnswerRetries int // default: 2

	// RetryBackoff is the initial backoff between local retries; doubled
	// on each attempt.
	RetryBackoff time.Duration // default: 500ms

	// MaxSteps bounds the chain depth.
	MaxSteps int // default: 20
}

// LLMConfig controls the reasoning-service client.
type LLMConfig struct {
	// APIKey authenticates against the OpenAI-compatible backend. Required.
	APIKey string

	// Model is the chat model identifier.
	Model string // default: "gpt-4o-mini"

	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string // default: "https://api.openai.com/v1"

	// Timeout bounds a single completion call.
	Timeout time.Duration // default: 60s

	// FormatRetries is the number of re-prompts after a malformed response.
	FormatRetries int // default: 2
}

// AuthConfig carries the boundary-layer credentials. The chain controller
// never receives these; the API layer checks them and the submitter is
// bound to them at startup.
type AuthConfig struct {
	// Email is the registered operator email.
	Email string

	// Secret is the shared secret compared against inbound requests.
	Secret string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client.
	Burst int // default: 5
}

// CacheConfig controls the fetch-result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached fetch results.
	MaxEntries int // default: 256

	// TTL is how long a cached fetch result stays valid.
	TTL time.Duration // default: 5m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("QUIZD_HOST", "0.0.0.0"),
			Port: envIntOr("QUIZD_PORT", 8080),
			Mode: envOr("QUIZD_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:      envBoolOr("QUIZD_BROWSER_ENABLED", true),
			Headless:     envBoolOr("QUIZD_HEADLESS", true),
			MaxPages:     envIntOr("QUIZD_MAX_PAGES", 4),
			NoSandbox:    envBoolOr("QUIZD_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("QUIZD_BROWSER_BIN"),
			DefaultProxy: os.Getenv("QUIZD_PROXY"),
		},
		Fetcher: FetcherConfig{
			StaticTimeout: envDurationOr("QUIZD_STATIC_TIMEOUT", 8*time.Second),
			RenderTimeout: envDurationOr("QUIZD_RENDER_TIMEOUT", 25*time.Second),
			BlockedResourceTypes: envSliceOr("QUIZD_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			EngineMemoryTTL: envDurationOr("QUIZD_ENGINE_MEMORY_TTL", 24*time.Hour),
			MaxBodyBytes:    int64(envIntOr("QUIZD_MAX_BODY_BYTES", 10<<20)),
		},
		Solver: SolverConfig{
			DefaultBudget: envDurationOr("QUIZD_BUDGET", 180*time.Second),
			StepTimeout:   envDurationOr("QUIZD_STEP_TIMEOUT", 45*time.Second),
			FetchRetries:  envIntOr("QUIZD_FETCH_RETRIES", 2),
			AnswerRetries: envIntOr("QUIZD_ANSWER_RETRIES", 2),
			RetryBackoff:  envDurationOr("QUIZD_RETRY_BACKOFF", 500*time.Millisecond),
			MaxSteps:      envIntOr("QUIZD_MAX_STEPS", 20),
		},
		LLM: LLMConfig{
			APIKey:        os.Getenv("OPENAI_API_KEY"),
			Model:         envOr("QUIZD_LLM_MODEL", "gpt-4o-mini"),
			BaseURL:       envOr("QUIZD_LLM_BASE_URL", "https://api.openai.com/v1"),
			Timeout:       envDurationOr("QUIZD_LLM_TIMEOUT", 60*time.Second),
			FormatRetries: envIntOr("QUIZD_LLM_FORMAT_RETRIES", 2),
		},
		Auth: AuthConfig{
			Email:  os.Getenv("QUIZD_EMAIL"),
			Secret: os.Getenv("QUIZD_SECRET"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("QUIZD_RATE_RPS", 2.0),
			Burst:             envIntOr("QUIZD_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("QUIZD_CACHE_MAX_ENTRIES", 256),
			TTL:        envDurationOr("QUIZD_CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("QUIZD_LOG_LEVEL", "info"),
			Format: envOr("QUIZD_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
