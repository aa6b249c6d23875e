package quotes

import (
	"context"
	"encoding/json"
)

// Route is one quote endpoint, runnable in-process.
type Route struct {
	Name string
	Path string
	Run  func(ctx context.Context) any
}

// Routes lists the quote routes in the order they are served.
func (s *Service) Routes() []Route {
	return []Route{
		{"dolar-oficial", "/api/dolar-oficial", func(ctx context.Context) any { return s.OfficialDollar(ctx) }},
		{"dolar-oficial-anterior", "/api/dolar-oficial-anterior", func(ctx context.Context) any { return s.PreviousOfficialDollar(ctx) }},
		{"dolar-blue", "/api/dolar-blue", func(ctx context.Context) any { return s.BlueDollar(ctx) }},
		{"granos", "/api/granos", func(ctx context.Context) any { return s.Grains(ctx) }},
		{"pizarra-bcr", "/api/pizarra-bcr", func(ctx context.Context) any { return s.Board(ctx) }},
		{"clima", "/api/clima", func(ctx context.Context) any { return s.Weather(ctx) }},
	}
}

// Route finds a route by name ("clima") or path ("/api/clima").
func (s *Service) Route(name string) (Route, bool) {
	for _, r := range s.Routes() {
		if r.Name == name || r.Path == name {
			return r, true
		}
	}
	return Route{}, false
}

// Coverage counts how many top-level response fields, other than
// "fuente", carry a value. Null, empty objects and empty arrays count as
// unresolved.
func Coverage(response any) (resolved, total int) {
	raw, err := json.Marshal(response)
	if err != nil {
		return 0, 0
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, 0
	}

	for name, v := range fields {
		if name == "fuente" {
			continue
		}
		total++
		switch t := v.(type) {
		case nil:
		case map[string]any:
			if len(t) > 0 {
				resolved++
			}
		case []any:
			if len(t) > 0 {
				resolved++
			}
		default:
			resolved++
		}
	}
	return resolved, total
}
