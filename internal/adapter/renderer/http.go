// Package renderer implements domain.ChartRenderer against an external
// chart rendering service.
package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errServerError = errors.New("renderer server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// HTTPRenderer posts a month to a rendering service and decodes the
// base64 images it returns.
type HTTPRenderer struct {
	url     string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPRenderer returns a renderer that calls url with the given client.
// A nil client gets one with the given timeout.
func NewHTTPRenderer(url string, client *http.Client, timeout time.Duration) *HTTPRenderer {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chart-renderer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})
	return &HTTPRenderer{url: url, client: client, circuit: cb}
}

type renderRequest struct {
	Month int `json:"month"`
}

type renderResponse struct {
	Visualizations map[string]string `json:"visualizations"`
}

// RenderCharts implements domain.ChartRenderer.
func (r *HTTPRenderer) RenderCharts(ctx context.Context, month int) (map[string][]byte, error) {
	body, err := json.Marshal(renderRequest{Month: month})
	if err != nil {
		return nil, err
	}

	result, err := r.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		var out renderResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode renderer response: %w", err)
		}
		return out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(renderResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	charts := make(map[string][]byte, len(resp.Visualizations))
	for name, encoded := range resp.Visualizations {
		if encoded == "" {
			continue
		}
		img, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode chart %s: %w", name, err)
		}
		charts[name] = img
	}
	return charts, nil
}

// Noop renders nothing. It is used when no rendering service is configured.
type Noop struct{}

// RenderCharts implements domain.ChartRenderer.
func (Noop) RenderCharts(context.Context, int) (map[string][]byte, error) {
	return map[string][]byte{}, nil
}
