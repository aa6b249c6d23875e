package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// BlueURL is the DolarHoy home page.
const BlueURL = "https://dolarhoy.com/"

var (
	blueLinkSel    = cascadia.MustCompile(`a[href*="dolar-blue"]`)
	blueBuySel     = cascadia.MustCompile(".compra .val")
	blueSellSel    = cascadia.MustCompile(".venta .val")
	blueChangeSel  = cascadia.MustCompile(".venta .var-porcentaje")
	leadingDecimal = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// BlueDollar reads the tile holding a link to the blue dollar page. When
// several tiles link there, the first one carrying a value is used.
func BlueDollar(doc *goquery.Document) (buy, sell string, change *float64) {
	tiles := doc.FindMatcher(blueLinkSel).Closest(".tile.is-child")

	tiles.EachWithBreak(func(_ int, tile *goquery.Selection) bool {
		buy = strings.TrimSpace(tile.FindMatcher(blueBuySel).Text())
		sell = strings.TrimSpace(tile.FindMatcher(blueSellSel).Text())
		change = ParsePercent(tile.FindMatcher(blueChangeSel).Text())
		return buy == "" && sell == "" && change == nil
	})
	return buy, sell, change
}

// ParsePercent keeps only digits, dots and minus signs and reads the
// leading decimal, so "-0.8 %" is -0.8 and "+1,25%" is 125 (commas are
// dropped, not read as decimal separators). Zero and unparsable inputs
// yield nil.
func ParsePercent(s string) *float64 {
	s = keepChars(strings.TrimSpace(s), func(r rune) bool {
		return (r >= '0' && r <= '9') || r == '.' || r == '-'
	})

	m := leadingDecimal.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}
