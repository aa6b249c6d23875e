package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agrodash/pizarra/models"
)

// WeatherURL is the COCADE weather station page (plain HTTP, windows-1252).
const WeatherURL = "http://www.cocade.com.ar/ema/mb1.htm"

// Weather reads the station page. Each measurement lives in a block whose
// bold caption names it; values sit in the second cell of a nested table.
func Weather(doc *goquery.Document) models.WeatherReport {
	temperature := stationValue(doc, "TEMPERATURA", 0)
	humidity := stationValue(doc, "HUMEDAD", 0)

	var report models.WeatherReport
	if temperature != "" {
		report.Temperature = models.StringOrNil(keepChars(temperature, isNumeric) + " °C")
	}
	if humidity != "" {
		report.Humidity = models.StringOrNil(keepChars(humidity, isNumeric) + " %")
	}
	report.RainDay = models.StringOrNil(stripSpace(stationValue(doc, "LLUVIA", 0)))
	report.RainRate = models.StringOrNil(stripSpace(stationValue(doc, "LLUVIA", 1)))
	report.RainMonth = models.StringOrNil(stripSpace(stationValue(doc, "LLUVIA", 2)))
	report.Date = models.StringOrNil(secondWord(doc.Find(`p:contains("FECHA:")`).Text()))
	report.Time = models.StringOrNil(secondWord(doc.Find(`p:contains("HORA:")`).Text()))
	return report
}

// stationValue returns the trimmed second cell of the given row inside the
// block captioned label.
func stationValue(doc *goquery.Document, label string, row int) string {
	value := doc.Find(`b span:contains("` + label + `")`).
		Closest("table").
		Find("tr").Eq(1).
		Find("table").
		Find("tr").Eq(row).
		Find("td").Eq(1).
		Text()
	return strings.TrimSpace(value)
}

// secondWord splits on single spaces, so runs of spaces yield "".
func secondWord(s string) string {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
