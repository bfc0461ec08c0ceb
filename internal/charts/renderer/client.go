// Package renderer talks to the remote chart-rendering service.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/natalis-app/natalis-backend/internal/charts/request"
	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
)

const (
	birthChartPath  = "/api/v4/birth-chart"
	maxResponseSize = 8 << 20
)

// Response is the raw answer of the rendering service, whatever its status.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Render posts the request. Only transport problems are errors; any HTTP
// answer is returned for the caller to inspect.
func (c *Client) Render(ctx context.Context, req *request.ChartRequest) (*Response, error) {
	start := time.Now()
	resp, err := c.render(ctx, req)
	metrics.ObserveUpstream("chart_renderer", time.Since(start), err)
	return resp, err
}

func (c *Client) render(ctx context.Context, req *request.ChartRequest) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+birthChartPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/svg+xml, application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-RapidAPI-Key", c.apiKey)
		if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
			httpReq.Header.Set("X-RapidAPI-Host", u.Host)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chart renderer request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read chart renderer response: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}
