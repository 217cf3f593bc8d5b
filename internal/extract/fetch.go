package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// some job boards answer scrapers with this non-standard status
const statusBotDetected = 999

// anything past this is dropped before parsing
const maxPageSize = 2 << 20

type Fetcher struct {
	client  *http.Client
	maxSize int64
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxPageSize,
	}
}

// Fetch downloads a page and returns its visible text.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == statusBotDetected:
		return "", domain.ErrBotDetected
	case resp.StatusCode >= http.StatusBadRequest:
		return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	return PageText(io.LimitReader(resp.Body, f.maxSize))
}

// SourceText resolves the input of job generation: a URL is fetched and reduced to its text,
// anything else (or a page that cannot be read) is used verbatim.
func (f *Fetcher) SourceText(ctx context.Context, input string) string {
	if !IsURL(input) {
		return input
	}

	text, err := f.Fetch(ctx, input)
	if err != nil {
		slog.Warn("could not read job page, using the input as text", "url", input, "error", err)
		return input
	}
	if text == "" {
		return input
	}

	return text
}

func IsURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
