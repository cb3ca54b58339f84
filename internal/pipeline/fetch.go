package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher downloads media from a vendor's ephemeral URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mime string, err error)
}

const fetchTimeout = 60 * time.Second

// generous ceiling for a short clip; var so tests can shrink it
var fetchMaxBytes int64 = 256 << 20

// HTTPFetcher downloads media over plain HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs a fetcher with a bounded request timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &HTTPFetcher{client: client}
}

// Fetch retrieves the URL and returns the body with its content type.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if int64(len(data)) > fetchMaxBytes {
		return nil, "", fmt.Errorf("fetch %s: body exceeds %d bytes", url, fetchMaxBytes)
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return data, mime, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
