package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// Fetcher retrieves the body of a blob by its public URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// DefaultFetchTimeout bounds a single HTTP fetch.
const DefaultFetchTimeout = 10 * time.Second

// maxBlobBytes caps the body read from a blob URL.
const maxBlobBytes = 32 << 20

// HTTPFetcher reads public blob URLs over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher whose requests time out after
// timeout. A zero timeout uses DefaultFetchTimeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build blob request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &sitecontent.TransientIOError{Op: "fetch", Key: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("fetch %s: %w", url, sitecontent.ErrNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", &sitecontent.TransientIOError{Op: "fetch", Key: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobBytes))
	if err != nil {
		return "", &sitecontent.TransientIOError{Op: "fetch", Key: url, Err: err}
	}
	return string(body), nil
}
