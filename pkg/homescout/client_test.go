package homescout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123 Main St", req["query"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{
			"property_id": "hs-987",
			"full_street_address": "123 Main St",
			"locality": "Austin",
			"price": 460000,
			"detail": {"beds": 3, "baths": 2, "built_year": 1995},
			"geo": {"lat": 30.25, "lng": -97.75}
		}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	prop, err := client.Search(context.Background(), "123 Main St")
	require.NoError(t, err)

	assert.Equal(t, "hs-987", prop.PropertyID)
	assert.Equal(t, "Austin", prop.Locality)
	assert.Equal(t, 1995, prop.Detail.BuiltYear)
	require.NotNil(t, prop.Geo)
	assert.Equal(t, 30.25, prop.Geo.Lat)
}

func TestSearch_FirstResultWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [
			{"property_id": "hs-1"},
			{"property_id": "hs-2"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	prop, err := client.Search(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.Equal(t, "hs-1", prop.PropertyID)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	prop, err := client.Search(context.Background(), "999 Nowhere Ln")
	require.Error(t, err)
	assert.Nil(t, prop)
	assert.Contains(t, err.Error(), "no results")
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Search(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Search(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
