// Package fetcher retrieves raw quiz content for a URL, choosing between a
// static HTTP path and a JS-rendering browser path.
package fetcher

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/cache"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// Fetcher coordinates the static engine and the renderer with staged
// escalation: static first, browser when the static body looks like an
// unrendered shell or the static fetch fails. Per-domain engine memory
// skips the static attempt for hosts known to need rendering.
type Fetcher struct {
	static   *StaticEngine
	renderer Renderer // nil when the browser engine is disabled
	memory   *EngineMemory
	cache    *cache.Cache
	cfg      config.FetcherConfig
}

// New creates a Fetcher. renderer may be nil (static-only mode) and
// fetchCache may be nil (no caching).
func New(cfg config.FetcherConfig, proxy string, renderer Renderer, fetchCache *cache.Cache) *Fetcher {
	return &Fetcher{
		static:   NewStaticEngine(proxy, cfg.MaxBodyBytes),
		renderer: renderer,
		memory:   NewEngineMemory(cfg.EngineMemoryTTL),
		cache:    fetchCache,
		cfg:      cfg,
	}
}

// Fetch retrieves content for an absolute http(s) URL. renderJS forces the
// browser path; otherwise it is inferred from the static body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, renderJS bool) (*models.FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, models.NewSolveError(models.ErrCodeInvalidInput, "url must be absolute http(s): "+rawURL, err)
	}

	cacheKey := cache.Key(rawURL, renderJS)
	if f.cache != nil {
		if cached, hit := f.cache.Get(cacheKey); hit {
			slog.Debug("fetch cache hit", "url", rawURL)
			return cached, nil
		}
	}

	result, err := f.fetch(ctx, rawURL, renderJS, u.Hostname())
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(cacheKey, result)
	}
	return result, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, renderJS bool, domain string) (*models.FetchResult, error) {
	if f.renderer != nil && (renderJS || f.memory.Get(domain) == "browser") {
		result, err := f.renderer.Render(ctx, rawURL)
		if err == nil {
			f.memory.Set(domain, "browser")
			return result, nil
		}
		if renderJS {
			return nil, err
		}
		// Memory entry failed; forget it and fall through to the static path.
		slog.Info("remembered browser engine failed, retrying static", "domain", domain, "error", err)
		f.memory.Delete(domain)
	}

	staticCtx, cancel := context.WithTimeout(ctx, f.cfg.StaticTimeout)
	result, staticErr := f.static.Fetch(staticCtx, rawURL)
	cancel()

	switch {
	case staticErr == nil && result.Kind == models.KindHTML && NeedsRender(result.Body):
		slog.Debug("static body looks unrendered, escalating to browser", "url", rawURL)
	case staticErr == nil:
		f.memory.Set(domain, "static")
		return result, nil
	default:
		slog.Debug("static fetch failed, escalating to browser", "url", rawURL, "error", staticErr)
	}

	if f.renderer == nil {
		if staticErr != nil {
			return nil, staticErr
		}
		// Unrendered shell but no browser available; the static body is
		// still the best content we have.
		return result, nil
	}

	rendered, renderErr := f.renderer.Render(ctx, rawURL)
	if renderErr != nil {
		if staticErr != nil {
			return nil, renderErr
		}
		slog.Warn("render escalation failed, keeping static body", "url", rawURL, "error", renderErr)
		return result, nil
	}
	f.memory.Set(domain, "browser")
	return rendered, nil
}

// Stop releases background resources (engine memory cleanup loop).
func (f *Fetcher) Stop() {
	f.memory.Stop()
}
