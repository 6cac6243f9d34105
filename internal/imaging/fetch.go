package imaging

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single panorama fetch
	DefaultFetchTimeout = 60 * time.Second

	// MaxFetchBytes caps the size of a fetched panorama (128 MB)
	MaxFetchBytes = 128 << 20
)

// Fetcher downloads panoramas from remote URLs
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher with the given timeout; zero uses the default
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: MaxFetchBytes,
	}
}

// FetchURL downloads the resource at url and returns its bytes. Responses
// that are clearly not images (HTML error pages and the like) are rejected
// before decoding is attempted.
func (f *Fetcher) FetchURL(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, &SourceLoadError{Err: fmt.Errorf("unsupported URL scheme: %s", url)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceLoadError{Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &SourceLoadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceLoadError{Err: fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && strings.HasPrefix(ct, "text/") {
		return nil, &SourceLoadError{Err: fmt.Errorf("non-image content type %q from %s", ct, url)}
	}
	if resp.ContentLength > f.maxBytes {
		return nil, &SourceLoadError{Err: fmt.Errorf("source too large: %d bytes (max %d)", resp.ContentLength, f.maxBytes)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &SourceLoadError{Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &SourceLoadError{Err: fmt.Errorf("source too large: exceeds %d bytes", f.maxBytes)}
	}

	log.Printf("[Fetcher] Downloaded %d bytes from %s", len(data), url)
	return data, nil
}
