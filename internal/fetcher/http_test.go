package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "roll-bot/2.0", r.Header.Get("User-Agent"))
		w.Write([]byte("apn,situs\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "roll-bot/2.0"})

	rc, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "apn,situs\n", string(body))
}

func TestDownload_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 3})

	rc, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()

	assert.EqualValues(t, 3, calls.Load())
}

func TestDownload_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 3})

	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.EqualValues(t, 1, calls.Load())
}

func TestDownload_PerHostRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	f := NewHTTPFetcher(HTTPOptions{
		RateLimiters: map[string]*rate.Limiter{host: rate.NewLimiter(0, 0)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Download(ctx, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("apn,situs\n0204,123 MAIN ST\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	path := filepath.Join(t.TempDir(), "roll.csv")

	n, err := f.DownloadToFile(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.EqualValues(t, 27, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "123 MAIN ST")
}
