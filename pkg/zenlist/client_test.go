package zenlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/listings", r.URL.Path)
		assert.Equal(t, "123 Main St, Austin, TX", r.URL.Query().Get("address"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"listing": {
			"mls_number": "ACT-4471123",
			"address": "123 Main St",
			"city": "Austin",
			"state": "TX",
			"list_price": 450000,
			"bedrooms": 3,
			"listing_url": "https://zenlist.example.com/l/123"
		}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	listing, err := client.Listing(context.Background(), "123 Main St, Austin, TX")
	require.NoError(t, err)

	assert.Equal(t, "ACT-4471123", listing.MLSNumber)
	assert.Equal(t, "Austin", listing.City)
	assert.Equal(t, 450000.0, listing.ListPrice)
	assert.Equal(t, 3, listing.Bedrooms)
	assert.Equal(t, "https://zenlist.example.com/l/123", listing.ListingURL)
}

func TestListing_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	listing, err := client.Listing(context.Background(), "999 Nowhere Ln")
	require.Error(t, err)
	assert.Nil(t, listing)
	assert.Contains(t, err.Error(), "no listing")
}

func TestListing_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Listing(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestListing_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Listing(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty listing")
}

func TestListing_RateLimitCancelled(t *testing.T) {
	// An exhausted limiter makes Wait block until the context is done.
	client := NewClient("test-key", WithRateLimit(rate.NewLimiter(0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Listing(ctx, "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("short"), 10))
	assert.Equal(t, "abcde...", truncate([]byte("abcdefghij"), 5))
}
