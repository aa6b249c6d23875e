package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/agrodash/pizarra/models"
)

func TestBoardFromText(t *testing.T) {
	text := "Cotizaciones locales 15/10/2025 14/10/2025 13/10/2025 " +
		"Trigo 210,00 208,00 S/C " +
		"Maíz 180,50 179,00 178,00 " +
		"Girasol 320 " +
		"Soja 300.000 299.500 " +
		"Sorgo"

	quotes, dates := boardFromText(text)

	require.Equal(t, []string{"15/10/2025", "14/10/2025", "13/10/2025"}, dates)
	want := models.BoardQuotes{
		Soy: []models.PricePoint{
			{Date: "15/10/2025", Price: "300.000"},
			{Date: "14/10/2025", Price: "299.500"},
		},
		Corn: []models.PricePoint{
			{Date: "15/10/2025", Price: "180,50"},
			{Date: "14/10/2025", Price: "179,00"},
			{Date: "13/10/2025", Price: "178,00"},
		},
		Wheat: []models.PricePoint{
			{Date: "15/10/2025", Price: "210,00"},
			{Date: "14/10/2025", Price: "208,00"},
			{Date: "13/10/2025", Price: "S/C"},
		},
		Sorghum:   []models.PricePoint{},
		Sunflower: []models.PricePoint{{Date: "15/10/2025", Price: "320"}},
	}
	if diff := cmp.Diff(want, quotes); diff != "" {
		t.Errorf("boardFromText() mismatch (-want +got):\n%s", diff)
	}
}

func TestBoardFromText_EnglishAliasesAndNoDates(t *testing.T) {
	quotes, dates := boardFromText("Soybean 300 301 Wheat 200")

	require.Empty(t, dates)
	require.Equal(t, []models.PricePoint{{Date: "col1", Price: "300"}}, quotes.Soy)
	require.Equal(t, []models.PricePoint{{Date: "col1", Price: "200"}}, quotes.Wheat)
	require.NotNil(t, quotes.Corn)
	require.Empty(t, quotes.Corn)
}

func TestBoardFromText_DatesCapped(t *testing.T) {
	text := "01/10/2025 02/10/2025 03/10/2025 04/10/2025 05/10/2025 06/10/2025 07/10/2025 08/10/2025"
	_, dates := boardFromText(text)
	require.Len(t, dates, maxBoardDates)
	require.Equal(t, "07/10/2025", dates[6])
}

func TestBoard_FromDocument(t *testing.T) {
	doc := mustDoc(t, `<html><body><table>
<tr><th>Producto</th><th>16/10/2025</th></tr>
<tr><td>Soja</td><td> 310.000 </td></tr>
</table></body></html>`)

	quotes, dates := Board(doc)
	require.Equal(t, []string{"16/10/2025"}, dates)
	require.Equal(t, []models.PricePoint{{Date: "16/10/2025", Price: "310.000"}}, quotes.Soy)
}

func TestFirstIndex(t *testing.T) {
	require.Equal(t, 4, firstIndex("los maiz y maíz", []string{"maíz", "maiz"}))
	require.Equal(t, -1, firstIndex("nothing here", []string{"soja"}))
}

func TestBoardFromText_KeepsCaseWhenLoweringResizes(t *testing.T) {
	// "İ" is two bytes but lowers to the one-byte "i".
	text := "14/10/2025 13/10/2025 İNDİCE Soja 400,00 S/C Maíz 200,00"

	quotes, _ := boardFromText(text)
	require.Equal(t, []models.PricePoint{
		{Date: "14/10/2025", Price: "400,00"},
		{Date: "13/10/2025", Price: "S/C"},
	}, quotes.Soy)
	require.Equal(t, []models.PricePoint{{Date: "14/10/2025", Price: "200,00"}}, quotes.Corn)
}

func TestLowerIndex(t *testing.T) {
	lower, offsets := lowerIndex("İa")
	require.Equal(t, "ia", lower)
	require.Equal(t, []int{0, 2, 3}, offsets)
}
