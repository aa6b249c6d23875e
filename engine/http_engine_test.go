package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	tls "github.com/refraction-networking/utls"
	"github.com/stretchr/testify/require"
)

func newTestEngine(maxBody int64) *HTTPEngine {
	return NewHTTPEngine(HTTPOptions{
		Timeout:      5 * time.Second,
		InsecureTLS:  true,
		MaxBodyBytes: maxBody,
	})
}

func TestHTTPEngine_FetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotCustom = r.Header.Get("X-Test")
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	res, err := newTestEngine(0).Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "1"},
	})
	require.NoError(t, err)

	require.Contains(t, gotUA, "Chrome/")
	require.True(t, strings.HasPrefix(gotLang, "es-AR"))
	require.Equal(t, "1", gotCustom)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/html; charset=iso-8859-1", res.ContentType)
	require.Equal(t, "http", res.EngineName)
	require.Equal(t, "<html><body>ok</body></html>", string(res.Body))
}

func TestHTTPEngine_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestEngine(0).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestHTTPEngine_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := newTestEngine(0).Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/old"})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/new", res.FinalURL)
	require.JSONEq(t, `{"ok":true}`, string(res.Body))
}

func TestHTTPEngine_BodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	res, err := newTestEngine(10).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, res.Body, 10)
}

func TestHTTPEngine_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestEngine(0).Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Font", "Bogus"})
	require.Len(t, got, 2)
	require.Contains(t, got, proto.NetworkResourceTypeImage)
	require.Contains(t, got, proto.NetworkResourceTypeFont)
	require.Empty(t, blockedSet(nil))
}

func TestChromeHTTP1Spec_PinsALPN(t *testing.T) {
	spec, err := chromeHTTP1Spec()
	require.NoError(t, err)

	found := false
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			require.Equal(t, []string{"http/1.1"}, alpn.AlpnProtocols)
			found = true
		}
	}
	require.True(t, found, "chrome spec should carry an ALPN extension")
}
