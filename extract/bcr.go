package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/agrodash/pizarra/models"
)

// BoardURL is the Bolsa de Comercio de Rosario local quotes page.
const BoardURL = "https://www.bcr.com.ar/es/mercados/mercado-de-granos/cotizaciones/cotizaciones-locales-0"

// maxBoardDates bounds how many column dates are read from the page.
const maxBoardDates = 7

var (
	boardDateRe  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	boardPriceRe = regexp.MustCompile(`(?i)[\d.,]+|S/C`)
)

// boardAliases lists the labels a grain may appear under, Spanish first.
var boardAliases = []struct {
	grain   string
	aliases []string
}{
	{"soja", []string{"soja", "soybean"}},
	{"maiz", []string{"maíz", "maiz", "yellow corn"}},
	{"trigo", []string{"trigo", "wheat"}},
	{"sorgo", []string{"sorgo", "grain sorghum", "sorghum"}},
	{"girasol", []string{"girasol", "sunseed"}},
}

// Board reads the BCR page as flat text. Column dates are the first
// dd/mm/yyyy strings on the page; each grain's prices are the numeric
// tokens between its label and the next grain label.
func Board(doc *goquery.Document) (models.BoardQuotes, []string) {
	return boardFromText(doc.Find("body").Text())
}

func boardFromText(text string) (models.BoardQuotes, []string) {
	dates := boardDateRe.FindAllString(text, maxBoardDates)

	// Labels are matched on the lowered text, prices are cut from the
	// original so tokens like "S/C" keep their case.
	lower, offsets := lowerIndex(text)

	positions := make(map[string]int, len(boardAliases))
	for _, g := range boardAliases {
		p := firstIndex(lower, g.aliases)
		if p >= 0 {
			p = offsets[p]
		}
		positions[g.grain] = p
	}

	series := make(map[string][]models.PricePoint, len(boardAliases))
	for _, g := range boardAliases {
		start := positions[g.grain]
		items := []models.PricePoint{}
		if start >= 0 {
			end := len(text)
			for other, p := range positions {
				if other != g.grain && p > start && p < end {
					end = p
				}
			}
			tokens := boardPriceRe.FindAllString(text[start:end], -1)
			n := min(len(tokens), max(1, len(dates)))
			for i := 0; i < n; i++ {
				date := fmt.Sprintf("col%d", i+1)
				if i < len(dates) {
					date = dates[i]
				}
				items = append(items, models.PricePoint{Date: date, Price: strings.TrimSpace(tokens[i])})
			}
		}
		series[g.grain] = items
	}

	return models.BoardQuotes{
		Soy:       series["soja"],
		Corn:      series["maiz"],
		Wheat:     series["trigo"],
		Sorghum:   series["sorgo"],
		Sunflower: series["girasol"],
	}, dates
}

// lowerIndex lowercases s rune by rune. offsets[i] is the byte offset in s
// of the rune that produced byte i of the result, plus a final entry for
// len(s). Lowering can change a rune's encoded length (İ becomes i).
func lowerIndex(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for range b.Len() - n {
			offsets = append(offsets, i)
		}
	}
	return b.String(), append(offsets, len(s))
}

// firstIndex returns the smallest index of any alias in s, or -1.
func firstIndex(s string, aliases []string) int {
	idx := -1
	for _, a := range aliases {
		if i := strings.Index(s, a); i >= 0 && (idx == -1 || i < idx) {
			idx = i
		}
	}
	return idx
}
