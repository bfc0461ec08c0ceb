// Package nominatim is a small client for the OpenStreetMap Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
)

const (
	userAgent       = "natalis-backend/1.0"
	maxResponseSize = 1 << 20
)

// Address holds the address parts requested with addressdetails=1.
type Address struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Hamlet      string `json:"hamlet"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Place is a single jsonv2 search record. Coordinates arrive as strings.
type Place struct {
	PlaceID     int64   `json:"place_id"`
	OSMType     string  `json:"osm_type"`
	OSMID       int64   `json:"osm_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type Client struct {
	baseURL    string
	email      string
	language   string
	limit      int
	httpClient *http.Client
}

func NewClient(baseURL, email, language string, limit int, timeout time.Duration) *Client {
	if limit <= 0 {
		limit = 8
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		language: language,
		limit:    limit,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search runs a free-text search. Non-200 answers and non-list bodies are errors.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	start := time.Now()
	places, err := c.search(ctx, query)
	metrics.ObserveUpstream("nominatim", time.Since(start), err)
	return places, err
}

func (c *Client) search(ctx context.Context, query string) ([]Place, error) {
	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(c.limit))
	if c.email != "" {
		q.Set("email", c.email)
	}
	if c.language != "" {
		q.Set("accept-language", c.language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read geocoder response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	return places, nil
}
