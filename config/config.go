package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Browser   BrowserConfig
	Drift     DriftConfig
	Alert     AlertConfig
	Telemetry TelemetryConfig
	Log       LogConfig

	// Location is the clock used for date arithmetic on quote pages
	// (e.g. "previous business day"). Upstreams publish in Argentine time.
	Location *time.Location
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls the shared outbound HTTP client.
type FetchConfig struct {
	// Timeout is the per-fetch deadline.
	Timeout time.Duration // default: 20s

	// InsecureTLS skips certificate verification. Several upstreams
	// (bna.com.ar, ggsa.com.ar) serve incomplete chains.
	InsecureTLS bool // default: true

	// UserAgent overrides the browser-like User-Agent header.
	UserAgent string

	// Proxy is an optional http(s) proxy URL for all fetches.
	Proxy string

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MB
}

// BrowserConfig controls the optional headless Chrome engine.
type BrowserConfig struct {
	// Sources lists source ids that are fetched through the browser
	// instead of plain HTTP. Empty disables the browser entirely.
	Sources []string

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxPages is the page pool capacity.
	MaxPages int // default: 2

	// Stealth injects go-rod/stealth before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// DriftConfig controls structural drift detection on fetched documents.
type DriftConfig struct {
	// Threshold is the SimHash Hamming distance above which a source's
	// markup is considered to have changed shape.
	Threshold int // default: 12
}

// AlertConfig controls webhook notifications for drift and empty results.
type AlertConfig struct {
	WebhookURL string
	Secret     string
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP traces endpoint URL. Empty disables export.
	OTLPEndpoint string
	ServiceName  string // default: "pizarra"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory, if present, is loaded first; it
// never overrides variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("PIZARRA_HOST", "0.0.0.0"),
			Port: envIntOr("PIZARRA_PORT", 8080),
			Mode: envOr("PIZARRA_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("PIZARRA_FETCH_TIMEOUT", 20*time.Second),
			InsecureTLS:  envBoolOr("PIZARRA_INSECURE_TLS", true),
			UserAgent:    os.Getenv("PIZARRA_USER_AGENT"),
			Proxy:        os.Getenv("PIZARRA_PROXY"),
			MaxBodyBytes: int64(envIntOr("PIZARRA_MAX_BODY_BYTES", 10<<20)),
		},
		Browser: BrowserConfig{
			Sources:    envSliceOr("PIZARRA_BROWSER_SOURCES", nil),
			Headless:   envBoolOr("PIZARRA_HEADLESS", true),
			NoSandbox:  envBoolOr("PIZARRA_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PIZARRA_BROWSER_BIN"),
			MaxPages:   envIntOr("PIZARRA_MAX_PAGES", 2),
			Stealth:    envBoolOr("PIZARRA_STEALTH", true),
			BlockedResourceTypes: envSliceOr("PIZARRA_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Drift: DriftConfig{
			Threshold: envIntOr("PIZARRA_DRIFT_THRESHOLD", 12),
		},
		Alert: AlertConfig{
			WebhookURL: os.Getenv("PIZARRA_ALERT_WEBHOOK"),
			Secret:     os.Getenv("PIZARRA_ALERT_SECRET"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("PIZARRA_OTLP_ENDPOINT"),
			ServiceName:  envOr("PIZARRA_SERVICE_NAME", "pizarra"),
		},
		Log: LogConfig{
			Level:  envOr("PIZARRA_LOG_LEVEL", "info"),
			Format: envOr("PIZARRA_LOG_FORMAT", "json"),
		},
		Location: envLocationOr("PIZARRA_TIMEZONE", "America/Argentina/Buenos_Aires"),
	}
}

// UsesBrowser reports whether the given source id is routed to the browser engine.
func (c BrowserConfig) UsesBrowser(sourceID string) bool {
	for _, s := range c.Sources {
		if strings.EqualFold(s, sourceID) {
			return true
		}
	}
	return false
}

// envLocationOr loads a time zone by name. If the zone database is missing
// the name, it falls back to a fixed UTC-3 zone (Argentina has no DST).
func envLocationOr(key, fallback string) *time.Location {
	name := envOr(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("config: unknown time zone, using fixed UTC-3", "zone", name, "error", err)
		return time.FixedZone("ART", -3*60*60)
	}
	return loc
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
