package domain

import (
	"context"
	"errors"
)

// Chart names produced by a ChartRenderer.
const (
	ChartHistogram  = "histogram"
	ChartTrend      = "trend"
	ChartHeatmap    = "heatmap"
	ChartPollutants = "pollutants"
)

// ChartRenderer renders the monthly charts. Charts that could not be
// produced are absent from the result.
type ChartRenderer interface {
	RenderCharts(ctx context.Context, month int) (map[string][]byte, error)
}

// DatasetSummary describes the loaded AQI dataset.
type DatasetSummary struct {
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// DatasetSource exposes the currently loaded dataset. Summary returns
// ErrDatasetUnavailable when nothing usable is loaded.
type DatasetSource interface {
	Summary() (DatasetSummary, error)
}

// ErrDatasetUnavailable is returned when the dataset is missing or empty.
var ErrDatasetUnavailable = errors.New("dataset not loaded or empty")
