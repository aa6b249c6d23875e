// Package quotes runs one fetch-and-extract cycle per route and shapes the
// result into the response consumers expect, nulls and fallbacks included.
package quotes

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agrodash/pizarra/extract"
	"github.com/agrodash/pizarra/models"
	"github.com/agrodash/pizarra/scraper"
)

// Fetcher is the subset of *scraper.Scraper the routes depend on.
type Fetcher interface {
	Fetch(ctx context.Context, source, url string) (*scraper.Page, error)
	Document(ctx context.Context, source, url string) (*goquery.Document, error)
	JSON(ctx context.Context, source, url string, out any) error
	EngineFor(source string) string
	ReportEmpty(source, url string)
	LastSeen(source string) (time.Time, bool)
	BrowserPages() int
}

// Service serves the quote routes. It keeps no state between calls.
type Service struct {
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time
}

// NewService creates a Service whose date arithmetic runs in loc.
func NewService(fetcher Fetcher, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{fetcher: fetcher, loc: loc, now: time.Now}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// BrowserPages reports how many headless browser pages are in use.
func (s *Service) BrowserPages() int {
	return s.fetcher.BrowserPages()
}

func logFailure(source, url string, err error) {
	slog.Error("source failed", "source", source, "url", url, "error", err)
}

// OfficialDollar serves GET /api/dolar-oficial.
func (s *Service) OfficialDollar(ctx context.Context) models.DollarQuote {
	url := extract.OfficialURL
	doc, err := s.fetcher.Document(ctx, SourceOfficial, url)
	if err != nil {
		logFailure(SourceOfficial, url, err)
		return models.DollarQuote{}
	}

	buy, sell := extract.OfficialDollar(doc)
	if buy == "" && sell == "" {
		s.fetcher.ReportEmpty(SourceOfficial, url)
	}
	return models.DollarQuote{
		Buy:    models.StringOrNil(buy),
		Sell:   models.StringOrNil(sell),
		Source: models.StringOrNil(url),
	}
}

// PreviousOfficialDollar serves GET /api/dolar-oficial-anterior.
func (s *Service) PreviousOfficialDollar(ctx context.Context) models.DollarQuote {
	now := s.today()
	url := extract.HistoricoURL(extract.PreviousBusinessDay(now))

	doc, err := s.fetcher.Document(ctx, SourcePrevious, url)
	if err != nil {
		logFailure(SourcePrevious, url, err)
		return models.DollarQuote{}
	}

	buy, sell := extract.PreviousOfficialDollar(doc, now)
	if buy == "" && sell == "" {
		s.fetcher.ReportEmpty(SourcePrevious, url)
	}
	return models.DollarQuote{
		Buy:    models.StringOrNil(buy),
		Sell:   models.StringOrNil(sell),
		Source: models.StringOrNil(url),
	}
}

// BlueDollar serves GET /api/dolar-blue.
func (s *Service) BlueDollar(ctx context.Context) models.BlueQuote {
	url := extract.BlueURL
	doc, err := s.fetcher.Document(ctx, SourceBlue, url)
	if err != nil {
		logFailure(SourceBlue, url, err)
		return models.BlueQuote{}
	}

	buy, sell, change := extract.BlueDollar(doc)
	if buy == "" && sell == "" && change == nil {
		s.fetcher.ReportEmpty(SourceBlue, url)
	}
	return models.BlueQuote{
		Buy:           models.StringOrNil(buy),
		Sell:          models.StringOrNil(sell),
		ChangePercent: change,
		Source:        models.StringOrNil(url),
	}
}

// Grains serves GET /api/granos. Each feed fails independently and a
// failed feed falls back to fixed values.
func (s *Service) Grains(ctx context.Context) models.GrainsResponse {
	var spot map[string]any
	if err := s.fetcher.JSON(ctx, SourceGrainsSpot, extract.GrainsSpotURL, &spot); err != nil {
		slog.Warn("spot prices unavailable", "source", SourceGrainsSpot, "error", err)
		spot = nil
	}

	var rawBoard map[string]any
	if err := s.fetcher.JSON(ctx, SourceGrainsBoard, extract.GrainsBoardURL, &rawBoard); err != nil {
		slog.Warn("board prices unavailable", "source", SourceGrainsBoard, "error", err)
		rawBoard = nil
	}

	return extract.Grains(spot, extract.FirstBoard(rawBoard))
}

// Board serves GET /api/pizarra-bcr.
func (s *Service) Board(ctx context.Context) models.BoardResponse {
	url := extract.BoardURL
	doc, err := s.fetcher.Document(ctx, SourceBoard, url)
	if err != nil {
		logFailure(SourceBoard, url, err)
		return models.BoardResponse{Quotes: struct{}{}, Source: url}
	}

	quotes, dates := extract.Board(doc)
	var latest *string
	if len(dates) > 0 {
		latest = models.StringOrNil(dates[0])
	}
	if latest == nil && boardEmpty(quotes) {
		s.fetcher.ReportEmpty(SourceBoard, url)
	}
	return models.BoardResponse{Quotes: quotes, LatestDate: latest, Source: url}
}

func boardEmpty(q models.BoardQuotes) bool {
	return len(q.Soy)+len(q.Corn)+len(q.Wheat)+len(q.Sorghum)+len(q.Sunflower) == 0
}

// Weather serves GET /api/clima.
func (s *Service) Weather(ctx context.Context) models.WeatherReport {
	url := extract.WeatherURL
	doc, err := s.fetcher.Document(ctx, SourceWeather, url)
	if err != nil {
		logFailure(SourceWeather, url, err)
		return models.WeatherReport{}
	}

	report := extract.Weather(doc)
	if report == (models.WeatherReport{}) {
		s.fetcher.ReportEmpty(SourceWeather, url)
	}
	report.Source = models.StringOrNil(url)
	return report
}
