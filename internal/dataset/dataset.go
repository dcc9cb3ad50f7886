// Package dataset loads the monthly AQI dataset used by the debug and chart
// endpoints and keeps it fresh.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"
)

// Dataset holds the summary of the most recently loaded CSV file.
type Dataset struct {
	path   string
	logger logging.Logger

	mu      sync.RWMutex
	summary domain.DatasetSummary
	loaded  bool
}

// New returns a Dataset reading from path. Nothing is loaded until Load is called.
func New(path string, logger logging.Logger) *Dataset {
	return &Dataset{path: path, logger: logger}
}

// Load reads the file and replaces the current summary. On failure the
// previous summary is kept.
func (d *Dataset) Load(ctx context.Context) error {
	if d.path == "" {
		return domain.ErrDatasetUnavailable
	}
	f, err := os.Open(d.path)
	if err != nil {
		d.logger.Warn(ctx, "dataset not loaded", "path", d.path, "error", err)
		return fmt.Errorf("open dataset %s: %w", d.path, err)
	}
	defer f.Close() //nolint:errcheck

	summary, err := Summarize(f)
	if err != nil {
		d.logger.Warn(ctx, "dataset not loaded", "path", d.path, "error", err)
		return fmt.Errorf("read dataset %s: %w", d.path, err)
	}

	d.mu.Lock()
	d.summary = summary
	d.loaded = true
	d.mu.Unlock()

	d.logger.Info(ctx, "dataset loaded", "path", d.path, "rows", summary.Rows, "columns", len(summary.Columns))
	return nil
}

// Summary implements domain.DatasetSource.
func (d *Dataset) Summary() (domain.DatasetSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded || d.summary.Rows == 0 {
		return domain.DatasetSummary{}, domain.ErrDatasetUnavailable
	}
	cols := make([]string, len(d.summary.Columns))
	copy(cols, d.summary.Columns)
	return domain.DatasetSummary{Columns: cols, Rows: d.summary.Rows}, nil
}

// Summarize reads a CSV stream and returns its header and data row count.
func Summarize(r io.Reader) (domain.DatasetSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.DatasetSummary{}, domain.ErrDatasetUnavailable
	}
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.DatasetSummary{}, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows++
	}
	return domain.DatasetSummary{Columns: cols, Rows: rows}, nil
}
