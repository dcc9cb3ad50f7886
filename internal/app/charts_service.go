package app

import (
	"context"
	"errors"
	"fmt"

	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"
)

// ErrRendererUnavailable indicates that chart rendering failed upstream.
var ErrRendererUnavailable = errors.New("chart renderer unavailable")

// ChartsService encapsulates chart retrieval and dataset inspection.
type ChartsService struct {
	renderer domain.ChartRenderer
	dataset  domain.DatasetSource
	logger   logging.Logger
}

// NewChartsService creates a ChartsService backed by the given renderer and dataset.
func NewChartsService(renderer domain.ChartRenderer, dataset domain.DatasetSource, logger logging.Logger) *ChartsService {
	return &ChartsService{renderer: renderer, dataset: dataset, logger: logger}
}

// Render returns the non-empty charts for month.
func (s *ChartsService) Render(ctx context.Context, month int) (map[string][]byte, error) {
	if err := domain.ValidateMonth(month); err != nil {
		return nil, err
	}

	charts, err := s.renderer.RenderCharts(ctx, month)
	if err != nil {
		s.logger.Error(ctx, "chart rendering failed", "month", month, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
	}

	out := make(map[string][]byte, len(charts))
	for name, img := range charts {
		if len(img) == 0 {
			continue
		}
		out[name] = img
	}
	return out, nil
}

// DatasetSummary describes the loaded dataset.
func (s *ChartsService) DatasetSummary() (domain.DatasetSummary, error) {
	return s.dataset.Summary()
}
