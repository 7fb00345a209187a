// Package fetcher downloads county bulk data over HTTP and FTP and parses
// the CSV and XLSX assessment rolls counties publish.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
