package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/config"
	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// Renderer is the opaque rendering-service interface the fetcher escalates
// to for JS-heavy quiz pages. Production uses the rod-backed Browser; tests
// inject a fake.
type Renderer interface {
	Render(ctx context.Context, url string) (*models.FetchResult, error)
}

// Browser manages the global headless-browser lifecycle and the page pool.
// It is safe for concurrent use. A page is acquired per Render call and
// returned via defer — never held across chain steps.
type Browser struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	fetcherCfg  config.FetcherConfig
	activePages atomic.Int32
}

// NewBrowser launches a headless browser and initialises the reusable page pool.
func NewBrowser(cfg config.BrowserConfig, fetcherCfg config.FetcherConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewSolveError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewSolveError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Browser{
		browser:    browser,
		pagePool:   pool,
		cfg:        cfg,
		fetcherCfg: fetcherCfg,
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (b *Browser) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    b.cfg.MaxPages,
		ActivePages: int(b.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	b.browser.MustClose()
	slog.Info("browser shutdown complete")
}

// Render navigates a pooled page to the URL, waits for the DOM to settle,
// and returns the rendered HTML.
//
// Lifecycle:
//
//  1. Timeout guard       – hard deadline on the entire operation
//  2. Acquire page        – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup      – about:blank + return to pool (leak prevention)
//  4. Stealth injection   – mask navigator.webdriver etc. (before navigation!)
//  5. Hijack mount        – block images/CSS/fonts/media (before navigation!)
//  6. Context binding     – propagate timeout to all Rod operations
//  7. Navigate + wait     – DOM-stable wait instead of network idle
//  8. Extract             – page.HTML() + document.title + status code
//
// Steps 4-5 must happen before navigation: stealth JS and resource blocking
// only take effect for navigations installed before them. Step 3's
// about:blank uses the original page reference (without request context),
// so cleanup succeeds even if the request context has expired.
func (b *Browser) Render(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	// ── 1. Timeout guard ────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, b.fetcherCfg.RenderTimeout)
	defer cancel()

	// ── 2. Acquire page from pool ───────────────────────────────────
	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, acquireErr := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewSolveError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", acquireErr)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ────────────────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	// ── 4b. Referer header (quiz graders occasionally check it) ────
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
			}),
		}.Call(page)
	}

	// ── 5. Mount hijack router (blocks Image/Stylesheet/Font/Media) ─
	router := setupHijack(page, b.fetcherCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind request context to page ─────────────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate + wait for the DOM to settle ────────────────────
	if navErr := p.Navigate(targetURL); navErr != nil {
		return nil, categorizeRenderError(navErr, "navigation to quiz URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	// ── 8. Extract rendered HTML, title, final URL, status ──────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeRenderError(htmlErr, "failed to extract rendered HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	// Status code via the navigation performance entry; avoids CDP event
	// listeners that conflict with the hijack router's Fetch domain.
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	return &models.FetchResult{
		Kind:       models.KindHTML,
		Body:       []byte(rawHTML),
		Title:      title,
		FinalURL:   finalURL,
		StatusCode: statusCode,
		Engine:     "browser",
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeRenderError wraps raw rod errors into typed SolveErrors.
func categorizeRenderError(err error, msg string) *models.SolveError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewSolveError(models.ErrCodeFetchTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewSolveError(models.ErrCodeFetchTimeout, "render canceled", err)
	default:
		return models.NewSolveError(models.ErrCodeFetch, msg, err)
	}
}
