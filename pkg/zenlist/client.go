// Package zenlist wraps the Zenlist listing API.
package zenlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.zenlist.example.com"

// Client fetches listing records by address.
type Client interface {
	Listing(ctx context.Context, address string) (*Listing, error)
}

// Listing is a Zenlist listing record. Every field is optional; zero values
// mean the listing did not carry the fact.
type Listing struct {
	MLSNumber    string   `json:"mls_number"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	ListPrice    float64  `json:"list_price"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	LivingArea   float64  `json:"living_area_sqft"`
	LotSize      string   `json:"lot_size"`
	YearBuilt    int      `json:"year_built"`
	Stories      int      `json:"stories"`
	PropertyType string   `json:"property_type"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Schools      []string `json:"schools"`
	ListingURL   string   `json:"listing_url"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) { c.limiter = l }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Zenlist API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Listing(ctx context.Context, address string) (*Listing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "zenlist: rate limit wait")
	}

	endpoint := fmt.Sprintf("%s/v2/listings?address=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "zenlist: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zenlist: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "zenlist: read response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Errorf("zenlist: no listing for %q", address)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zenlist: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var wrapper struct {
		Listing *Listing `json:"listing"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, eris.Wrap(err, "zenlist: decode response")
	}
	if wrapper.Listing == nil {
		return nil, eris.Errorf("zenlist: empty listing for %q", address)
	}
	return wrapper.Listing, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
