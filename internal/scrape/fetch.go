package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// maxBodySize caps any single response body read (5MB).
	maxBodySize = 5 * 1024 * 1024

	// browserUA is a realistic browser identity for HTML fetches.
	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// crawlerUA is a non-browser identity used for Open Graph scrapes;
	// many sites serve richer meta tags to link-preview bots.
	crawlerUA = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
)

// httpError carries the status of a non-2xx response.
type httpError struct {
	StatusCode int
	URL        string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// fetch performs a GET with the given headers and returns the body, capped
// at maxBodySize. Non-2xx statuses are returned as *httpError.
func fetch(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// looksLikeHTML detects a bot wall: HTML served where JSON was expected.
func looksLikeHTML(body []byte) bool {
	head := strings.TrimSpace(string(body[:min(len(body), 256)]))
	lower := strings.ToLower(head)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
