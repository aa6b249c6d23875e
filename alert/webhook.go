// Package alert delivers operator notifications about upstream sources to
// a webhook endpoint.
package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Event types.
const (
	EventDrift = "source.drift"
	EventEmpty = "source.empty"
)

// SignatureHeader carries "sha256=<hex>" of the request body.
const SignatureHeader = "X-Pizarra-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// retryDelays are the waits before each delivery attempt.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Notifier posts signed events to a single webhook URL. A Notifier with an
// empty URL drops every event.
type Notifier struct {
	url    string
	secret string
	client *resty.Client
	delays []time.Duration
}

// NewNotifier creates a Notifier. url may be empty.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "Pizarra-Alert/1.0"),
		delays: retryDelays,
	}
}

// Enabled reports whether events are delivered anywhere.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends an event synchronously. The body is signed when a secret
// is configured.
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("alert: marshal event: %w", err)
	}

	req := n.client.R().SetContext(ctx).SetBody(body)
	if n.secret != "" {
		req.SetHeader(SignatureHeader, "sha256="+Sign(n.secret, body))
	}

	resp, err := req.Post(n.url)
	if err != nil {
		return fmt.Errorf("alert: deliver: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("alert: endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// DeliverAsync sends an event in the background, retrying after 1s, 5s and 30s.
func (n *Notifier) DeliverAsync(event *Event) {
	if !n.Enabled() {
		return
	}
	go func() {
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("alert delivered",
					"event", event.Type,
					"source", event.Source,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("alert delivery failed",
				"event", event.Type,
				"source", event.Source,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("alert delivery exhausted all retries",
			"event", event.Type,
			"source", event.Source,
		)
	}()
}

// Drift reports that a source's markup changed shape.
func (n *Notifier) Drift(source, url string, distance int, fingerprint string) {
	n.DeliverAsync(&Event{
		Type:      EventDrift,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Data: map[string]any{
			"url":       url,
			"distancia": distance,
			"huella":    fingerprint,
		},
	})
}

// Empty reports that a route extracted no values at all.
func (n *Notifier) Empty(source, url string) {
	n.DeliverAsync(&Event{
		Type:      EventEmpty,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Data:      map[string]any{"url": url},
	})
}
