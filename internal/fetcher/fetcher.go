// Package fetcher reads listing and boundary sources from disk and HTTP.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote data sources.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL unless the server reports the given
	// ETag is still current. Returns (body, newETag, changed, error); body is
	// nil when changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
