package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "rmg"

// HTTPFetcher est l'unique primitive réseau: un GET par appel, sans retry.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

func (f *HTTPFetcher) WithUserAgent(ua string) *HTTPFetcher {
	if strings.TrimSpace(ua) != "" {
		f.userAgent = strings.TrimSpace(ua)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json,image/*;q=0.9,*/*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		// Préserver context.Canceled pour que les appelants distinguent une annulation.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, &TransportError{URL: url, Err: ctxErr}
		}
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &TransportError{URL: url, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return b, nil
}
