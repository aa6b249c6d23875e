package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/agrodash/pizarra/drift"
	"github.com/agrodash/pizarra/extract"
	"github.com/agrodash/pizarra/models"
	"github.com/agrodash/pizarra/scraper"
)

type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	urls    map[string]string
	seen    map[string]time.Time
	pages   int
	empties []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: map[string]string{},
		errs:   map[string]error{},
		urls:   map[string]string{},
		seen:   map[string]time.Time{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, source, url string) (*scraper.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls[source] = url
	if err := f.errs[source]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[source]
	if !ok {
		return nil, models.NewSourceError(source, models.ErrCodeFetch, "no fixture", nil)
	}
	return &scraper.Page{
		Source:     source,
		URL:        url,
		Body:       []byte(body),
		JSON:       strings.HasPrefix(strings.TrimSpace(body), "{"),
		StatusCode: 200,
		FinalURL:   url,
		Engine:     "http",
		Drift:      drift.Observation{Source: source, Fingerprint: 0xbeef, Distance: -1},
	}, nil
}

func (f *fakeFetcher) Document(ctx context.Context, source, url string) (*goquery.Document, error) {
	page, err := f.Fetch(ctx, source, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(page.Body)))
}

func (f *fakeFetcher) JSON(ctx context.Context, source, url string, out any) error {
	page, err := f.Fetch(ctx, source, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(page.Body, out)
}

func (f *fakeFetcher) EngineFor(source string) string {
	if source == SourceBlue {
		return "browser"
	}
	return "http"
}

func (f *fakeFetcher) ReportEmpty(source, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empties = append(f.empties, source)
}

func (f *fakeFetcher) LastSeen(source string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.seen[source]
	return t, ok
}

func (f *fakeFetcher) BrowserPages() int { return f.pages }

var art = time.FixedZone("ART", -3*60*60)

func newTestService(f *fakeFetcher, now time.Time) *Service {
	s := NewService(f, art)
	s.now = func() time.Time { return now }
	return s
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestOfficialDollar(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceOfficial] = `<table><tbody><tr><td>Dolar U.S.A</td><td>1050,00</td><td>1090,00</td></tr></tbody></table>`
	s := newTestService(f, time.Now())

	got := s.OfficialDollar(context.Background())
	require.JSONEq(t,
		`{"compra":"1050,00","venta":"1090,00","fuente":"https://www.bna.com.ar/Cotizador/MonedasHistorico"}`,
		toJSON(t, got))
	require.Empty(t, f.empties)
}

func TestOfficialDollar_FailureIsAllNull(t *testing.T) {
	f := newFakeFetcher()
	f.errs[SourceOfficial] = errors.New("connection reset")
	s := newTestService(f, time.Now())

	require.JSONEq(t, `{"compra":null,"venta":null,"fuente":null}`, toJSON(t, s.OfficialDollar(context.Background())))
}

func TestOfficialDollar_EmptyExtractionIsReported(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceOfficial] = `<html><body>mantenimiento</body></html>`
	s := newTestService(f, time.Now())

	got := s.OfficialDollar(context.Background())
	require.Nil(t, got.Buy)
	require.NotNil(t, got.Source)
	require.Equal(t, []string{SourceOfficial}, f.empties)
}

func TestPreviousOfficialDollar_UsesBusinessDayURL(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourcePrevious] = `<table class="table cotizacion monedaHistorico"><tbody>
<tr><td>Dolar U.S.A</td><td>1040,00</td><td>1080,00</td><td>10/10/2025</td></tr>
</tbody></table>`
	// Monday 00:30 in Buenos Aires is still Sunday in UTC-5.
	monday := time.Date(2025, 10, 13, 0, 30, 0, 0, art)
	s := newTestService(f, monday.In(time.FixedZone("X", -5*60*60)))

	got := s.PreviousOfficialDollar(context.Background())

	wantURL := "https://www.bna.com.ar/Cotizador/HistoricoPrincipales?id=monedas&fecha=10%2F10%2F2025&filtroEuro=0&filtroDolar=1"
	require.Equal(t, wantURL, f.urls[SourcePrevious])
	require.JSONEq(t, `{"compra":"1040,00","venta":"1080,00","fuente":"`+wantURL+`"}`, toJSON(t, got))
}

func TestBlueDollar_FailureIsAllNull(t *testing.T) {
	f := newFakeFetcher()
	f.errs[SourceBlue] = errors.New("timeout")
	s := newTestService(f, time.Now())

	require.JSONEq(t, `{"compra":null,"venta":null,"porcentaje":null,"fuente":null}`,
		toJSON(t, s.BlueDollar(context.Background())))
}

func TestGrains_IndependentFeeds(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceGrainsSpot] = `{"soja":{"rosario":"$415.000"}}`
	f.errs[SourceGrainsBoard] = errors.New("502")
	s := newTestService(f, time.Now())

	got := s.Grains(context.Background())
	require.Equal(t, "$415.000", got.Soy.Spot)
	require.Equal(t, extract.BoardFallback, got.Soy.Board)
	require.Equal(t, "u$s 202 c/desc", got.Wheat.Spot)
	require.Equal(t, extract.GrainsURL, got.Source)
}

func TestGrains_NonObjectBodyFallsBack(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceGrainsSpot] = `<html>error</html>`
	f.bodies[SourceGrainsBoard] = `{"pizarra":[{"maiz":{"rosario":"$250.000"}}]}`
	s := newTestService(f, time.Now())

	got := s.Grains(context.Background())
	require.Equal(t, "u$s 172 c/desc", got.Corn.Spot)
	require.Equal(t, "$250.000", got.Corn.Board)
}

func TestBoard_Failure(t *testing.T) {
	f := newFakeFetcher()
	f.errs[SourceBoard] = errors.New("boom")
	s := newTestService(f, time.Now())

	require.JSONEq(t, `{"cotizaciones":{},"fechaUltima":null,"fuente":"`+extract.BoardURL+`"}`,
		toJSON(t, s.Board(context.Background())))
}

func TestBoard(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceBoard] = `<html><body><p>16/10/2025</p><p>Soja 310.000</p></body></html>`
	s := newTestService(f, time.Now())

	got := s.Board(context.Background())
	require.JSONEq(t, `{
		"cotizaciones": {
			"soja": [{"fecha":"16/10/2025","precio":"310.000"}],
			"maiz": [], "trigo": [], "sorgo": [], "girasol": []
		},
		"fechaUltima": "16/10/2025",
		"fuente": "`+extract.BoardURL+`"
	}`, toJSON(t, got))
}

func TestWeather_FailureIsAllNull(t *testing.T) {
	f := newFakeFetcher()
	f.errs[SourceWeather] = errors.New("no route to host")
	s := newTestService(f, time.Now())

	require.JSONEq(t,
		`{"temperatura":null,"humedad":null,"precipDia":null,"intensidad":null,"precipMensual":null,"fecha":null,"hora":null,"fuente":null}`,
		toJSON(t, s.Weather(context.Background())))
}

func TestWeather_EmptyPageKeepsSource(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[SourceWeather] = `<html><body></body></html>`
	s := newTestService(f, time.Now())

	got := s.Weather(context.Background())
	require.Nil(t, got.Temperature)
	require.Equal(t, extract.WeatherURL, *got.Source)
	require.Equal(t, []string{SourceWeather}, f.empties)
}

func TestCoverage(t *testing.T) {
	resolved, total := Coverage(models.DollarQuote{Buy: models.StringOrNil("1")})
	require.Equal(t, 1, resolved)
	require.Equal(t, 2, total)

	resolved, total = Coverage(models.BoardResponse{Quotes: struct{}{}, Source: "x"})
	require.Equal(t, 0, resolved)
	require.Equal(t, 2, total)
}

func TestRoutes(t *testing.T) {
	s := newTestService(newFakeFetcher(), time.Now())

	names := make([]string, 0)
	for _, r := range s.Routes() {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{"dolar-oficial", "dolar-oficial-anterior", "dolar-blue", "granos", "pizarra-bcr", "clima"}, names)

	_, ok := s.Route("granos")
	require.True(t, ok)
	r, ok := s.Route("/api/clima")
	require.True(t, ok)
	require.Equal(t, "clima", r.Name)
	_, ok = s.Route("bitcoin")
	require.False(t, ok)
	_, ok = s.Route("/api/bitcoin")
	require.False(t, ok)
}

func TestBrowserPages(t *testing.T) {
	f := newFakeFetcher()
	f.pages = 3
	require.Equal(t, 3, newTestService(f, time.Now()).BrowserPages())
}
