package quotes

import (
	"time"

	"github.com/agrodash/pizarra/extract"
)

// Source ids. They name upstream documents, not routes: /api/granos reads
// two sources.
const (
	SourceOfficial    = "dolar-oficial"
	SourcePrevious    = "dolar-oficial-anterior"
	SourceBlue        = "dolar-blue"
	SourceGrainsSpot  = "granos-disponible"
	SourceGrainsBoard = "granos-pizarra"
	SourceBoard       = "pizarra-bcr"
	SourceWeather     = "clima"
)

const (
	kindHTML = "html"
	kindJSON = "json"
)

// Source is one upstream document.
type Source struct {
	ID    string
	Route string
	Kind  string

	// URL resolves the address for the given local time. Only the BNA
	// historical page depends on the date.
	URL func(now time.Time) string

	// Headers are sent on top of the engine defaults.
	Headers map[string]string
}

func fixed(url string) func(time.Time) string {
	return func(time.Time) string { return url }
}

var (
	// BNA rejects historical queries that do not come from its own board.
	bnaHeaders = map[string]string{"Referer": extract.OfficialURL}

	// The GGSA feeds are the XHR endpoints behind its quotes page.
	ggsaHeaders = map[string]string{
		"Accept":           "application/json, text/plain, */*",
		"Referer":          "https://www.ggsa.com.ar/",
		"X-Requested-With": "XMLHttpRequest",
	}
)

// Sources lists every upstream in route order.
var Sources = []Source{
	{ID: SourceOfficial, Route: "/api/dolar-oficial", Kind: kindHTML, URL: fixed(extract.OfficialURL)},
	{ID: SourcePrevious, Route: "/api/dolar-oficial-anterior", Kind: kindHTML, Headers: bnaHeaders, URL: func(now time.Time) string {
		return extract.HistoricoURL(extract.PreviousBusinessDay(now))
	}},
	{ID: SourceBlue, Route: "/api/dolar-blue", Kind: kindHTML, URL: fixed(extract.BlueURL)},
	{ID: SourceGrainsSpot, Route: "/api/granos", Kind: kindJSON, Headers: ggsaHeaders, URL: fixed(extract.GrainsSpotURL)},
	{ID: SourceGrainsBoard, Route: "/api/granos", Kind: kindJSON, Headers: ggsaHeaders, URL: fixed(extract.GrainsBoardURL)},
	{ID: SourceBoard, Route: "/api/pizarra-bcr", Kind: kindHTML, URL: fixed(extract.BoardURL)},
	{ID: SourceWeather, Route: "/api/clima", Kind: kindHTML, URL: fixed(extract.WeatherURL)},
}

// SourceHeaders maps source ids to their extra request headers, in the
// shape scraper.Options expects.
func SourceHeaders() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, s := range Sources {
		if len(s.Headers) > 0 {
			out[s.ID] = s.Headers
		}
	}
	return out
}

// LookupSource finds a source by id.
func LookupSource(id string) (Source, bool) {
	for _, s := range Sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}
