package models

import "time"

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// BrowserSources lists sources routed through headless Chrome.
	BrowserSources []string `json:"motor_browser"`

	// BrowserPages is the number of browser pages currently rendering.
	BrowserPages int `json:"paginas_browser"`
}

// SourceInfo describes one upstream in GET /api/fuentes.
type SourceInfo struct {
	ID     string `json:"id"`
	Route  string `json:"ruta"`
	URL    string `json:"url"`
	Kind   string `json:"tipo"`  // "html" or "json"
	Engine string `json:"motor"` // "http" or "browser"

	// LastSeen is when the source's markup was last fingerprinted by this
	// process. Nil until the first successful HTML fetch.
	LastSeen *time.Time `json:"ultima_huella,omitempty"`
}

// SnapshotResponse is the response for GET /api/fuentes/:id/snapshot.
type SnapshotResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Content string `json:"contenido"`

	// Fingerprint is the DOM-structure SimHash of the fetched document,
	// hex encoded. Empty for JSON sources.
	Fingerprint string `json:"huella,omitempty"`

	// Distance is the Hamming distance to the previous fingerprint seen for
	// this source, or -1 when there is no previous observation.
	Distance int `json:"distancia"`

	Engine     string `json:"motor"`
	StatusCode int    `json:"status"`
}

// ErrorResponse is the body for snapshot failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
