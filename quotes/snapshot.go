package quotes

import (
	"context"

	"github.com/agrodash/pizarra/extract"
	"github.com/agrodash/pizarra/models"
)

// Sources describes every upstream with the engine currently serving it.
func (s *Service) Sources() []models.SourceInfo {
	now := s.today()
	out := make([]models.SourceInfo, 0, len(Sources))
	for _, src := range Sources {
		info := models.SourceInfo{
			ID:     src.ID,
			Route:  src.Route,
			URL:    src.URL(now),
			Kind:   src.Kind,
			Engine: s.fetcher.EngineFor(src.ID),
		}
		if seen, ok := s.fetcher.LastSeen(src.ID); ok {
			seen = seen.In(s.loc)
			info.LastSeen = &seen
		}
		out = append(out, info)
	}
	return out
}

// Snapshot fetches a source right now and renders it for inspection.
// selector optionally narrows HTML documents before rendering.
func (s *Service) Snapshot(ctx context.Context, id, format, selector string) (*models.SnapshotResponse, error) {
	src, ok := LookupSource(id)
	if !ok {
		return nil, models.NewSourceError(id, models.ErrCodeUnknownSource, "fuente desconocida", nil)
	}
	if format == "" {
		format = extract.FormatMarkdown
	}
	if err := extract.ValidSelector(selector); err != nil {
		return nil, models.NewSourceError(src.ID, models.ErrCodeBadSelector, "selector inválido", err)
	}

	url := src.URL(s.today())
	page, err := s.fetcher.Fetch(ctx, src.ID, url)
	if err != nil {
		logFailure(src.ID, url, err)
		return nil, err
	}

	resp := &models.SnapshotResponse{
		ID:         src.ID,
		URL:        url,
		Format:     format,
		Distance:   -1,
		Engine:     page.Engine,
		StatusCode: page.StatusCode,
	}

	if page.JSON || src.Kind == kindJSON {
		resp.Format = "json"
		resp.Content = extract.RenderJSON(page.Body)
		return resp, nil
	}

	content, err := extract.RenderHTML(page.Body, page.FinalURL, format, selector)
	if err != nil {
		return nil, models.NewSourceError(src.ID, models.ErrCodeDecode, "render failed", err)
	}
	resp.Content = content
	resp.Fingerprint = page.Drift.Hex()
	resp.Distance = page.Drift.Distance
	return resp, nil
}
