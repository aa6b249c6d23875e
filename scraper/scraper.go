// Package scraper is the single fetch path shared by every quote route.
// It picks the engine for a source, decodes the body to UTF-8, observes
// structural drift and hands back goquery documents or decoded JSON.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"

	"github.com/agrodash/pizarra/alert"
	"github.com/agrodash/pizarra/config"
	"github.com/agrodash/pizarra/drift"
	"github.com/agrodash/pizarra/engine"
	"github.com/agrodash/pizarra/models"
	"github.com/agrodash/pizarra/telemetry"
)

const tracerName = "github.com/agrodash/pizarra/scraper"

// Options wires a Scraper. Browser may be nil when no source uses it.
type Options struct {
	HTTP           engine.Engine
	Browser        engine.Engine
	BrowserSources config.BrowserConfig
	Timeout        time.Duration
	Tracker        *drift.Tracker
	Notifier       *alert.Notifier

	// Headers holds extra request headers per source id.
	Headers map[string]map[string]string
}

// Scraper fetches upstream documents. It is safe for concurrent use.
type Scraper struct {
	http     engine.Engine
	browser  engine.Engine
	routing  config.BrowserConfig
	timeout  time.Duration
	tracker  *drift.Tracker
	notifier *alert.Notifier
	headers  map[string]map[string]string
	tracer   trace.Tracer
}

// New creates a Scraper from explicit engines.
func New(opts Options) *Scraper {
	tracker := opts.Tracker
	if tracker == nil {
		tracker = drift.NewTracker(12)
	}
	return &Scraper{
		http:     opts.HTTP,
		browser:  opts.Browser,
		routing:  opts.BrowserSources,
		timeout:  opts.Timeout,
		tracker:  tracker,
		notifier: opts.Notifier,
		headers:  opts.Headers,
		tracer:   otel.Tracer(tracerName),
	}
}

// FromConfig builds the HTTP engine (and the browser engine when any source
// is routed to it) from cfg. headers is keyed by source id.
func FromConfig(cfg *config.Config, headers map[string]map[string]string) *Scraper {
	httpEngine := engine.NewHTTPEngine(engine.HTTPOptions{
		Timeout:      cfg.Fetch.Timeout,
		InsecureTLS:  cfg.Fetch.InsecureTLS,
		UserAgent:    cfg.Fetch.UserAgent,
		Proxy:        cfg.Fetch.Proxy,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	telemetry.InstrumentResty(httpEngine.Client(), tracerName)

	var browserEngine engine.Engine
	if len(cfg.Browser.Sources) > 0 {
		browserEngine = engine.NewBrowserEngine(engine.BrowserOptions{
			Headless:             cfg.Browser.Headless,
			NoSandbox:            cfg.Browser.NoSandbox,
			Bin:                  cfg.Browser.BrowserBin,
			Proxy:                cfg.Fetch.Proxy,
			MaxPages:             cfg.Browser.MaxPages,
			Stealth:              cfg.Browser.Stealth,
			InsecureTLS:          cfg.Fetch.InsecureTLS,
			BlockedResourceTypes: cfg.Browser.BlockedResourceTypes,
		})
	}

	return New(Options{
		HTTP:           httpEngine,
		Browser:        browserEngine,
		BrowserSources: cfg.Browser,
		Timeout:        cfg.Fetch.Timeout,
		Tracker:        drift.NewTracker(cfg.Drift.Threshold),
		Notifier:       alert.NewNotifier(cfg.Alert.WebhookURL, cfg.Alert.Secret),
		Headers:        headers,
	})
}

// Close releases the browser, if one was created.
func (s *Scraper) Close() {
	if c, ok := s.browser.(interface{ Close() }); ok {
		c.Close()
	}
}

// EngineFor returns the name of the engine that serves source.
func (s *Scraper) EngineFor(source string) string {
	return s.engineFor(source).Name()
}

func (s *Scraper) engineFor(source string) engine.Engine {
	if s.browser != nil && s.routing.UsesBrowser(source) {
		return s.browser
	}
	return s.http
}

// Page is one fetched upstream document.
type Page struct {
	Source string
	URL    string

	// Body is UTF-8 for HTML documents and untouched for JSON.
	Body       []byte
	JSON       bool
	StatusCode int
	FinalURL   string
	Engine     string

	// Drift is only populated for HTML documents.
	Drift drift.Observation
}

// Fetch retrieves url on behalf of source.
func (s *Scraper) Fetch(ctx context.Context, source, url string) (*Page, error) {
	eng := s.engineFor(source)

	ctx, span := s.tracer.Start(ctx, "scraper.fetch", trace.WithAttributes(
		attribute.String("pizarra.source", source),
		attribute.String("pizarra.engine", eng.Name()),
		attribute.String("url.full", url),
	))
	defer span.End()

	start := time.Now()
	res, err := eng.Fetch(ctx, &engine.FetchRequest{
		URL:     url,
		Headers: s.headers[source],
		Timeout: s.timeout,
	})
	if err != nil {
		serr := classify(source, eng.Name(), err)
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Code)
		return nil, serr
	}

	page := &Page{
		Source:     source,
		URL:        url,
		StatusCode: res.StatusCode,
		FinalURL:   res.FinalURL,
		Engine:     res.EngineName,
		JSON:       isJSON(res.ContentType),
	}

	if page.JSON {
		page.Body = res.Body
	} else {
		body, err := decodeCharset(res.Body, res.ContentType)
		if err != nil {
			serr := models.NewSourceError(source, models.ErrCodeDecode, "charset decoding failed", err)
			span.RecordError(serr)
			span.SetStatus(codes.Error, serr.Code)
			return nil, serr
		}
		page.Body = body
		page.Drift = s.observe(source, url, body)
		span.SetAttributes(attribute.Int("pizarra.drift_distance", page.Drift.Distance))
	}

	slog.Debug("source fetched",
		"source", source,
		"url", url,
		"engine", page.Engine,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"elapsed", time.Since(start),
	)
	return page, nil
}

// Document fetches url and parses it as HTML.
func (s *Scraper) Document(ctx context.Context, source, url string) (*goquery.Document, error) {
	page, err := s.Fetch(ctx, source, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, models.NewSourceError(source, models.ErrCodeDecode, "html parse failed", err)
	}
	return doc, nil
}

// JSON fetches url and decodes the body into out. The declared content
// type is not trusted; some upstreams serve JSON as text/html.
func (s *Scraper) JSON(ctx context.Context, source, url string, out any) error {
	page, err := s.Fetch(ctx, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes.TrimPrefix(page.Body, []byte("\xef\xbb\xbf")), out); err != nil {
		return models.NewSourceError(source, models.ErrCodeDecode, "invalid JSON body", err)
	}
	return nil
}

// LastDrift returns the latest drift observation for source.
func (s *Scraper) LastDrift(source string) (drift.Observation, bool) {
	return s.tracker.Latest(source)
}

// LastSeen returns when the markup of source was last fingerprinted.
func (s *Scraper) LastSeen(source string) (time.Time, bool) {
	return s.tracker.LastSeen(source)
}

// BrowserPages reports how many browser pages are rendering right now.
// Zero when no browser engine is configured.
func (s *Scraper) BrowserPages() int {
	if b, ok := s.browser.(interface{ ActivePages() int }); ok {
		return b.ActivePages()
	}
	return 0
}

// ReportEmpty records that an extraction for source produced no values.
func (s *Scraper) ReportEmpty(source, url string) {
	slog.Warn("source extraction empty", "source", source, "url", url)
	s.notifier.Empty(source, url)
}

func (s *Scraper) observe(source, url string, body []byte) drift.Observation {
	obs := s.tracker.Observe(source, drift.FingerprintDOM(body))
	if obs.Drifted {
		slog.Warn("source markup drifted",
			"source", source,
			"url", url,
			"distance", obs.Distance,
			"fingerprint", obs.Hex(),
		)
		s.notifier.Drift(source, url, obs.Distance, obs.Hex())
	}
	return obs
}

// classify maps an engine error onto a SourceError code.
func classify(source, engineName string, err error) *models.SourceError {
	var statusErr *engine.StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr):
		return models.NewSourceError(source, models.ErrCodeUpstreamStatus,
			fmt.Sprintf("upstream returned HTTP %d", statusErr.StatusCode), err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return models.NewSourceError(source, models.ErrCodeTimeout, "fetch timed out", err)
	case engineName == "browser":
		return models.NewSourceError(source, models.ErrCodeBrowser, "browser fetch failed", err)
	default:
		return models.NewSourceError(source, models.ErrCodeFetch, "fetch failed", err)
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// decodeCharset converts body to UTF-8 using the declared content type,
// then <meta> sniffing. Legacy pages (cocade.com.ar) are windows-1252.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
