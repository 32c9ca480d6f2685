package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxSourceSize = 10 << 20 // 10MB

// Fetcher retrieves the raw tabular text behind a source reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// HTTPFetcher fetches a published sheet export with a plain GET.
type HTTPFetcher struct {
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
// A zero timeout means no client-side limit.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{httpClient: &http.Client{Timeout: timeout}}
}

// NewHTTPFetcherWithClient uses the given client as-is.
func NewHTTPFetcherWithClient(c *http.Client) *HTTPFetcher {
	return &HTTPFetcher{httpClient: c}
}

// Fetch GETs ref and returns the response body. Transport failures and
// non-2xx responses are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", &FetchError{URL: ref, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &FetchError{URL: ref, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return "", &FetchError{URL: ref, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(body), nil
}
