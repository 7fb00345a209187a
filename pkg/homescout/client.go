// Package homescout wraps the HomeScout property search API.
package homescout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.homescout.example.com"

// Client searches HomeScout property records by address.
type Client interface {
	Search(ctx context.Context, address string) (*Property, error)
}

// Property is a HomeScout property record. HomeScout nests its payload and
// uses its own field vocabulary; the source adapter flattens it.
type Property struct {
	PropertyID string  `json:"property_id"`
	FullStreet string  `json:"full_street_address"`
	Locality   string  `json:"locality"`
	Region     string  `json:"region"`
	PostalCode string  `json:"postal_code"`
	Price      float64 `json:"price"`
	Detail     Detail  `json:"detail"`
	Geo        *Geo    `json:"geo,omitempty"`
	PageURL    string  `json:"page_url"`
}

// Detail carries the structural facts of a HomeScout record.
type Detail struct {
	Beds          int      `json:"beds"`
	Baths         float64  `json:"baths"`
	FinishedSqft  float64  `json:"finished_sqft"`
	LotDescriptor string   `json:"lot_descriptor"`
	BuiltYear     int      `json:"built_year"`
	Levels        int      `json:"levels"`
	HomeType      string   `json:"home_type"`
	TaxAssessed   float64  `json:"tax_assessed"`
	AnnualTax     float64  `json:"annual_tax"`
	SchoolNames   []string `json:"school_names"`
}

// Geo is a WGS84 coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
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

// NewClient creates a HomeScout API client.
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
		limiter: rate.NewLimiter(3, 3),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, address string) (*Property, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "homescout: rate limit wait")
	}

	payload, err := json.Marshal(map[string]string{"query": address})
	if err != nil {
		return nil, eris.Wrap(err, "homescout: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "homescout: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "homescout: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "homescout: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("homescout: status %d", resp.StatusCode)
	}

	var wrapper struct {
		Results []Property `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, eris.Wrap(err, "homescout: decode response")
	}
	if len(wrapper.Results) == 0 {
		return nil, eris.Errorf("homescout: no results for %q", address)
	}
	return &wrapper.Results[0], nil
}
