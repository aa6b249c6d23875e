package extract

import (
	"math"

	"github.com/agrodash/pizarra/models"
)

const (
	GrainsSpotURL  = "https://www.ggsa.com.ar/get_disponible/"
	GrainsBoardURL = "https://www.ggsa.com.ar/get_pizarra/"

	// GrainsURL is the human-facing page reported as the source.
	GrainsURL = "https://www.ggsa.com.ar/#/cotizaciones"

	// BoardFallback replaces a missing board price.
	BoardFallback = "Sin datos"
)

// SpotFallbacks replace missing spot prices, per grain.
var SpotFallbacks = map[string]string{
	"soja":    "$390.000",
	"trigo":   "u$s 202 c/desc",
	"maiz":    "u$s 172 c/desc",
	"sorgo":   "u$s 175 c/desc",
	"girasol": "u$s 202 c/desc",
}

// FirstBoard returns the first element of the "pizarra" array, or nil.
func FirstBoard(raw map[string]any) map[string]any {
	list, _ := raw["pizarra"].([]any)
	if len(list) == 0 {
		return nil
	}
	first, _ := list[0].(map[string]any)
	return first
}

// Grains builds the response from the decoded spot and board objects.
// Either may be nil.
func Grains(spot, board map[string]any) models.GrainsResponse {
	price := func(grain string) models.GrainPrices {
		return models.GrainPrices{
			Spot:  orFallback(rosario(spot, grain), SpotFallbacks[grain]),
			Board: orFallback(rosario(board, grain), BoardFallback),
		}
	}
	return models.GrainsResponse{
		Soy:       price("soja"),
		Wheat:     price("trigo"),
		Corn:      price("maiz"),
		Sorghum:   price("sorgo"),
		Sunflower: price("girasol"),
		Source:    GrainsURL,
	}
}

func rosario(obj map[string]any, grain string) any {
	g, _ := obj[grain].(map[string]any)
	return g["rosario"]
}

func orFallback(v any, fallback string) any {
	if truthy(v) {
		return v
	}
	return fallback
}

// truthy treats nil, "", 0, NaN and false as missing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case bool:
		return t
	default:
		return true
	}
}
