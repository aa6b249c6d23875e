package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// OfficialURL is the Banco Nación currency board.
const OfficialURL = "https://www.bna.com.ar/Cotizador/MonedasHistorico"

const historicoURL = "https://www.bna.com.ar/Cotizador/HistoricoPrincipales?id=monedas&fecha=%02d%%2F%02d%%2F%d&filtroEuro=0&filtroDolar=1"

var (
	bodyRowSel = cascadia.MustCompile("tbody tr")

	// historicoRowSets are tried in order; the second is the "nearby
	// quotes" box BNA shows when the requested day has no table.
	historicoRowSets = []cascadia.Selector{
		cascadia.MustCompile("table.table.cotizacion.monedaHistorico tbody tr"),
		cascadia.MustCompile("div#cotizacionesCercanas table tbody tr"),
	}
)

// OfficialDollar scans every body row for the "Dolar U.S.A" label. The
// last matching row wins.
func OfficialDollar(doc *goquery.Document) (buy, sell string) {
	doc.FindMatcher(bodyRowSel).Each(func(_ int, row *goquery.Selection) {
		if strings.Contains(strings.ToLower(cell(row, 0)), "dolar u.s.a") {
			buy = cell(row, 1)
			sell = cell(row, 2)
		}
	})
	return buy, sell
}

// PreviousBusinessDay steps back three days on Mondays and one day
// otherwise. Holidays are not accounted for.
func PreviousBusinessDay(now time.Time) time.Time {
	if now.Weekday() == time.Monday {
		return now.AddDate(0, 0, -3)
	}
	return now.AddDate(0, 0, -1)
}

// HistoricoURL builds the BNA historical quotes URL for day.
func HistoricoURL(day time.Time) string {
	return fmt.Sprintf(historicoURL, day.Day(), int(day.Month()), day.Year())
}

// PreviousOfficialDollar picks the first "Dolar U.S.A" row whose date, at
// midnight, is before now. A row dated today therefore qualifies once the
// day has started. Each row set is tried in turn until both values are found.
func PreviousOfficialDollar(doc *goquery.Document, now time.Time) (buy, sell string) {
	for _, sel := range historicoRowSets {
		doc.FindMatcher(sel).EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if !strings.Contains(cell(row, 0), "Dolar U.S.A") {
				return true
			}
			day, ok := parseDMY(cell(row, 3), now.Location())
			if !ok || !day.Before(now) {
				return true
			}
			buy = cell(row, 1)
			sell = cell(row, 2)
			return false
		})
		if buy != "" && sell != "" {
			break
		}
	}
	return buy, sell
}

// parseDMY parses "D/M/YYYY". Out-of-range days roll over like time.Date.
func parseDMY(s string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	var n [3]int
	for i := range n {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	return time.Date(n[2], time.Month(n[1]), n[0], 0, 0, 0, 0, loc), true
}
