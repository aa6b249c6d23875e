package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// BrowserOptions configures the headless Chrome engine.
type BrowserOptions struct {
	Headless             bool
	NoSandbox            bool
	Bin                  string
	Proxy                string
	MaxPages             int
	Stealth              bool
	InsecureTLS          bool
	BlockedResourceTypes []string
}

// BrowserEngine renders documents in headless Chrome. Chrome is launched
// lazily on the first Fetch so deployments that never route a source to
// the browser never start it.
type BrowserEngine struct {
	opts BrowserOptions

	once      sync.Once
	launchErr error
	browser   *rod.Browser
	pagePool  rod.Pool[rod.Page]

	activePages atomic.Int32
}

// NewBrowserEngine creates a BrowserEngine without launching Chrome.
func NewBrowserEngine(opts BrowserOptions) *BrowserEngine {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 2
	}
	return &BrowserEngine{opts: opts}
}

func (e *BrowserEngine) Name() string { return "browser" }

// ActivePages reports how many pages are currently borrowed from the pool.
func (e *BrowserEngine) ActivePages() int { return int(e.activePages.Load()) }

func (e *BrowserEngine) launch() error {
	e.once.Do(func() {
		l := launcher.New().
			Headless(e.opts.Headless).
			NoSandbox(e.opts.NoSandbox)

		if e.opts.Bin != "" {
			l = l.Bin(e.opts.Bin)
		}
		if e.opts.Proxy != "" {
			l = l.Proxy(e.opts.Proxy)
		}
		if e.opts.InsecureTLS {
			l.Set(flags.Flag("ignore-certificate-errors"))
		}
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			e.launchErr = fmt.Errorf("browser_engine: launch: %w", err)
			return
		}
		slog.Info("browser launched", "controlURL", controlURL)

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			e.launchErr = fmt.Errorf("browser_engine: connect: %w", err)
			return
		}
		e.browser = browser
		e.pagePool = rod.NewPagePool(e.opts.MaxPages)
	})
	return e.launchErr
}

// Fetch navigates a pooled page to the URL and returns the rendered HTML.
//
// Stealth injection, extra headers and the hijack router are installed
// before navigation; they only affect navigations that start afterwards.
func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if err := e.launch(); err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	e.activePages.Add(1)
	defer e.activePages.Add(-1)

	page, err := e.pagePool.Get(func() (*rod.Page, error) {
		return e.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("browser_engine: acquire page: %w", err)
	}
	// Uses the page without the request context so cleanup still runs
	// after the deadline has passed.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("browser_engine: reset page failed", "error", navErr)
		}
		e.pagePool.Put(page)
	}()

	if e.opts.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("browser_engine: stealth injection failed", "error", evalErr)
		}
	}

	if len(req.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(req.Headers)}.Call(page)
	}

	router := setupHijack(page, e.opts.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)
	if err := p.Navigate(req.URL); err != nil {
		return nil, navigationError(err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("browser_engine: DOM did not settle, using current DOM", "url", req.URL, "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, navigationError(err)
	}

	status := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		status = res.Value.Int()
	}
	if status >= 400 {
		return nil, &StatusError{StatusCode: status, URL: req.URL}
	}

	finalURL := req.URL
	if res, evalErr := p.Eval(`() => window.location.href`); evalErr == nil && res.Value.Str() != "" {
		finalURL = res.Value.Str()
	}

	return &FetchResult{
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  status,
		FinalURL:    finalURL,
		EngineName:  e.Name(),
	}, nil
}

// Close drains the page pool and kills the browser process, if it was
// ever launched.
func (e *BrowserEngine) Close() {
	if e.browser == nil {
		return
	}
	e.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := e.browser.Close(); err != nil {
		slog.Warn("browser_engine: close failed", "error", err)
	}
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders
// (map[string]gson.JSON).
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// navigationError wraps a rod failure. Context errors stay in the chain
// unchanged, so a deadline classifies as a timeout and a cancelled
// request (client gone) does not.
func navigationError(err error) error {
	return fmt.Errorf("browser_engine: navigation: %w", err)
}
