package models

// DollarQuote is the response for GET /api/dolar-oficial and
// GET /api/dolar-oficial-anterior. Every field is null when the source
// could not be fetched or parsed.
type DollarQuote struct {
	Buy    *string `json:"compra"`
	Sell   *string `json:"venta"`
	Source *string `json:"fuente"`
}

// BlueQuote is the response for GET /api/dolar-blue.
type BlueQuote struct {
	Buy  *string `json:"compra"`
	Sell *string `json:"venta"`

	// ChangePercent is the daily variation of the sell price.
	// Null when missing, unparsable or exactly zero.
	ChangePercent *float64 `json:"porcentaje"`

	Source *string `json:"fuente"`
}

// GrainPrices holds the two Rosario prices published for a grain.
// Values pass through with whatever JSON type the upstream used.
type GrainPrices struct {
	Spot  any `json:"disponible"`
	Board any `json:"pizarra"`
}

// GrainsResponse is the response for GET /api/granos. It never carries
// nulls: missing upstream values are replaced by fixed fallbacks.
type GrainsResponse struct {
	Soy       GrainPrices `json:"soja"`
	Wheat     GrainPrices `json:"trigo"`
	Corn      GrainPrices `json:"maiz"`
	Sorghum   GrainPrices `json:"sorgo"`
	Sunflower GrainPrices `json:"girasol"`
	Source    string      `json:"fuente"`
}

// PricePoint is one dated price token from the BCR board.
type PricePoint struct {
	Date  string `json:"fecha"`
	Price string `json:"precio"`
}

// BoardQuotes groups BCR price points per grain.
type BoardQuotes struct {
	Soy       []PricePoint `json:"soja"`
	Corn      []PricePoint `json:"maiz"`
	Wheat     []PricePoint `json:"trigo"`
	Sorghum   []PricePoint `json:"sorgo"`
	Sunflower []PricePoint `json:"girasol"`
}

// BoardResponse is the response for GET /api/pizarra-bcr.
//
// Quotes holds a BoardQuotes on success and an empty object ({}) on
// failure, which is the shape consumers already expect.
type BoardResponse struct {
	Quotes     any     `json:"cotizaciones"`
	LatestDate *string `json:"fechaUltima"`
	Source     string  `json:"fuente"`
}

// WeatherReport is the response for GET /api/clima.
type WeatherReport struct {
	Temperature *string `json:"temperatura"`
	Humidity    *string `json:"humedad"`
	RainDay     *string `json:"precipDia"`
	RainRate    *string `json:"intensidad"`
	RainMonth   *string `json:"precipMensual"`
	Date        *string `json:"fecha"`
	Time        *string `json:"hora"`
	Source      *string `json:"fuente"`
}

// StringOrNil returns nil for the empty string, otherwise a pointer to s.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
