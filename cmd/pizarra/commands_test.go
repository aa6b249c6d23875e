package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrodash/pizarra/engine"
	"github.com/agrodash/pizarra/extract"
	"github.com/agrodash/pizarra/quotes"
	"github.com/agrodash/pizarra/scraper"
)

const bnaBoard = `<html><body><table><tbody>
<tr><td>Dolar U.S.A</td><td>1050,00</td><td>1090,00</td></tr>
</tbody></table></body></html>`

// pageEngine serves the BNA board for its URL and an empty page otherwise.
type pageEngine struct{}

func (pageEngine) Name() string { return "http" }

func (pageEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	body := "<html><body><p>sin datos</p></body></html>"
	if req.URL == extract.OfficialURL {
		body = bnaBoard
	}
	return &engine.FetchResult{
		Body:        []byte(body),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  200,
		FinalURL:    req.URL,
		EngineName:  "http",
	}, nil
}

func newTestScraper() (*scraper.Scraper, *quotes.Service) {
	sc := scraper.New(scraper.Options{HTTP: pageEngine{}, Headers: quotes.SourceHeaders()})
	return sc, quotes.NewService(sc, time.UTC)
}

// tableRows splits a rendered go-pretty table into trimmed cells, skipping
// border lines.
func tableRows(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "│") {
			continue
		}
		parts := strings.Split(strings.Trim(line, "│"), "│")
		cells := make([]string, len(parts))
		for i, p := range parts {
			cells[i] = strings.TrimSpace(p)
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestRunGet(t *testing.T) {
	_, svc := newTestScraper()

	for _, name := range []string{"dolar-oficial", "/api/dolar-oficial"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, runGet(context.Background(), svc, name, &buf))
			require.JSONEq(t,
				`{"compra":"1050,00","venta":"1090,00","fuente":"`+extract.OfficialURL+`"}`,
				buf.String())
		})
	}

	err := runGet(context.Background(), svc, "/api/bitcoin", &bytes.Buffer{})
	require.EqualError(t, err, `unknown route "/api/bitcoin"`)
}

func TestRunProbe_FillsDriftOnSecondRound(t *testing.T) {
	sc, svc := newTestScraper()

	var buf bytes.Buffer
	require.NoError(t, runProbe(context.Background(), svc, sc, 2, &buf))

	rows := tableRows(buf.String())
	require.Equal(t, []string{"ROUND", "ROUTE", "ENGINE", "ELAPSED", "FIELDS", "DRIFT"}, rows[0])

	byRound := map[string][]string{}
	for _, row := range rows[1:] {
		require.Len(t, row, 6)
		if row[1] == "/api/dolar-oficial" {
			byRound[row[0]] = row
		}
	}
	require.Len(t, byRound, 2)

	require.Equal(t, "http", byRound["1"][2])
	require.Equal(t, "2/2", byRound["1"][4])
	require.Equal(t, "-", byRound["1"][5])

	require.Equal(t, "2/2", byRound["2"][4])
	require.Equal(t, "0", byRound["2"][5])
}

func TestRunProbe_GrainsListsBothFeeds(t *testing.T) {
	sc, svc := newTestScraper()

	var buf bytes.Buffer
	require.NoError(t, runProbe(context.Background(), svc, sc, 1, &buf))

	for _, row := range tableRows(buf.String()) {
		if row[1] == "/api/granos" {
			require.Equal(t, "http+http", row[2])
			return
		}
	}
	t.Fatal("granos row missing")
}
