package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/answer"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/api"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/api/handler"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/cache"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/classify"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/extract"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/fetcher"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/llm"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/solver"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/submit"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("quizd starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"budget", cfg.Solver.DefaultBudget,
		"model", cfg.LLM.Model,
	)

	if cfg.LLM.APIKey == "" {
		slog.Error("OPENAI_API_KEY is not set; chains cannot be answered")
		os.Exit(1)
	}
	if cfg.Auth.Secret == "" {
		slog.Warn("QUIZD_SECRET is not set; the quiz endpoint is open")
	}

	// ── 3. Launch browser (optional) ────────────────────────────────
	// A launch failure degrades to static-only fetching rather than
	// refusing to start: most quiz pages don't need JS rendering.
	var renderer fetcher.Renderer
	var stats handler.StatsFunc
	if cfg.Browser.Enabled {
		browser, err := fetcher.NewBrowser(cfg.Browser, cfg.Fetcher)
		if err != nil {
			slog.Warn("browser launch failed, continuing static-only", "error", err)
		} else {
			defer browser.Close()
			renderer = browser
			stats = browser.Stats
		}
	} else {
		slog.Info("browser engine disabled, static-only fetching")
	}

	// ── 4. Assemble the solving pipeline ────────────────────────────
	fetchCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	f := fetcher.New(cfg.Fetcher, cfg.Browser.DefaultProxy, renderer, fetchCache)
	defer f.Stop()

	extractor := extract.New()
	llmClient := llm.NewClient(nil, cfg.LLM)
	answerer := answer.NewEngine(llmClient, cfg.LLM.FormatRetries)
	submitter := submit.NewClient(nil).Bind(cfg.Auth.Email, cfg.Auth.Secret)

	ctrl := solver.New(f, extractor, classify.Classify, answerer, submitter, cfg.Solver)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(ctrl, stats, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight chains 5 seconds to wind down. Anything still
	// running is cut off by the request context when the server closes.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("quizd stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
