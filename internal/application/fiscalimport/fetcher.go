package fiscalimport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchError is a structured failure of a remote document fetch. It carries
// the HTTP status so callers can surface it instead of a generic error.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch document from %s: %s", e.URL, e.Status)
}

// HTTPDocumentFetcher fetches document bytes over HTTP with a bounded
// timeout and payload size
type HTTPDocumentFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPDocumentFetcher creates a fetcher with the given timeout and
// maximum payload size
func NewHTTPDocumentFetcher(timeout time.Duration, maxSize int64) *HTTPDocumentFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	return &HTTPDocumentFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// Fetch retrieves the document at url. Non-2xx responses become a FetchError.
func (f *HTTPDocumentFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid document URL %q: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document body from %s: %w", url, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("document from %s exceeds maximum size of %d bytes", url, f.maxSize)
	}

	return data, nil
}

var _ DocumentFetcher = (*HTTPDocumentFetcher)(nil)
