// Package fetcher handles retrieval of raw listing pages.
package fetcher

import (
	"context"
	"time"
)

// PageContent represents fetched page data.
type PageContent struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// FetchOptions controls fetching behavior for a single request.
type FetchOptions struct {
	UserAgent       string
	Timeout         time.Duration
	Headers         map[string]string
	WaitForSelector string        // CSS selector to wait for (dynamic only)
	WaitDuration    time.Duration // Additional wait after load
}

// DefaultFetchOptions returns sensible defaults.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout: 30 * time.Second,
	}
}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts FetchOptions) (PageContent, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static" or "dynamic".
	Type() string
}

// Config holds common fetcher configuration.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
		Timeout:   30 * time.Second,
	}
}
