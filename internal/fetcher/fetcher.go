// Package fetcher provides the HTTP and archive primitives documents are
// downloaded with.
package fetcher

import (
	"context"
	"io"
	"net/http"
)

// Fetcher defines the interface for downloading remote documents.
type Fetcher interface {
	// Get issues a GET with the given extra headers and returns the raw
	// response. The caller owns the body.
	Get(ctx context.Context, url string, headers http.Header) (*http.Response, error)

	// Download fetches the URL and returns the response body. Non-200 is an error.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
