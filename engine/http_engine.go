package engine

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	tls "github.com/refraction-networking/utls"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPOptions configures the shared HTTP engine.
type HTTPOptions struct {
	Timeout      time.Duration
	InsecureTLS  bool
	UserAgent    string
	Proxy        string
	MaxBodyBytes int64
}

// HTTPEngine fetches documents over plain HTTP with a Chrome-like TLS
// fingerprint. A single instance is shared by every source, so all routes
// see the same TLS and header configuration.
type HTTPEngine struct {
	client  *resty.Client
	maxBody int64
}

// NewHTTPEngine creates an HTTPEngine. ALPN is locked to http/1.1 because
// Go's http.Transport cannot speak HTTP/2 over a utls connection.
func NewHTTPEngine(opts HTTPOptions) *HTTPEngine {
	insecure := opts.InsecureTLS
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, network, addr, insecure)
		},
		ForceAttemptHTTP2:   false,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = chromeUA
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7").
		SetHeader("Accept-Language", "es-AR,es;q=0.9,en;q=0.8").
		SetHeader("Cache-Control", "no-cache")

	return &HTTPEngine{client: client, maxBody: maxBody}
}

// Client exposes the underlying resty client so callers can attach
// request/response middleware (tracing).
func (e *HTTPEngine) Client() *resty.Client { return e.client }

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	r := e.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}

	resp, err := r.Get(req.URL)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, e.maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}

	finalURL := req.URL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode(), URL: finalURL}
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header().Get("Content-Type"),
		StatusCode:  resp.StatusCode(),
		FinalURL:    finalURL,
		EngineName:  e.Name(),
	}, nil
}

// dialChromeTLS establishes a TLS connection presenting a Chrome ClientHello.
// The ClientHello spec is rebuilt per connection because utls extensions carry
// per-handshake state.
func dialChromeTLS(ctx context.Context, network, addr string, insecure bool) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := chromeHTTP1Spec()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: build tls spec: %w", err)
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: insecure,
	}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		var unknownAuthority x509.UnknownAuthorityError
		if !insecure && errors.As(err, &unknownAuthority) {
			return nil, fmt.Errorf("http_engine: %s presents an untrusted chain (set PIZARRA_INSECURE_TLS=true): %w", host, err)
		}
		return nil, err
	}
	return tlsConn, nil
}

// chromeHTTP1Spec returns a Chrome ClientHello with ALPN forced to http/1.1.
func chromeHTTP1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec, nil
}
