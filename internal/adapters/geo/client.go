// Package geo resolves the host's country through an IP geolocation service.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// DefaultEndpoint is the ip-api.com JSON endpoint.
const DefaultEndpoint = "http://ip-api.com/json/"

// ErrNoCountry is returned when the response carries no country code.
var ErrNoCountry = errors.New("geo: response has no country code")

// Client queries a geolocation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithEndpoint overrides the lookup URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a geolocation client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Query       string `json:"query"`
}

// Locate performs a single lookup. It does not retry.
func (c *Client) Locate(ctx context.Context) (ports.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return ports.Location{}, fmt.Errorf("geo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Location{}, fmt.Errorf("geo: lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ports.Location{}, fmt.Errorf("geo: lookup returned %s", resp.Status)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return ports.Location{}, fmt.Errorf("geo: decode response: %w", err)
	}

	if body.Status == "fail" {
		return ports.Location{}, fmt.Errorf("geo: lookup failed: %s", body.Message)
	}

	code := strings.ToUpper(strings.TrimSpace(body.CountryCode))
	if code == "" {
		return ports.Location{}, ErrNoCountry
	}

	return ports.Location{
		CountryCode: code,
		Country:     body.Country,
		Query:       body.Query,
	}, nil
}

var _ ports.Locator = (*Client)(nil)
