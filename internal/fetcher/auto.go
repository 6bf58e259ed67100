package fetcher

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects a fetching strategy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// ForMode creates a fetcher for the given mode.
func ForMode(mode Mode, cfg Config) (Fetcher, error) {
	switch mode {
	case ModeStatic:
		return NewStaticFetcher(cfg), nil
	case ModeDynamic:
		return NewDynamicFetcher(cfg)
	case ModeAuto:
		return NewAutoFetcher(cfg)
	}
	return nil, fmt.Errorf("unknown fetch mode %q (want auto, static or dynamic)", mode)
}

// AutoFetcher tries a plain HTTP fetch first and falls back to the
// browser when the page looks client-rendered. Classifieds sites move
// between server and client rendering across redesigns; auto mode
// saves a profile edit when they do.
type AutoFetcher struct {
	static  *StaticFetcher
	dynamic *DynamicFetcher
}

// NewAutoFetcher creates the fallback pair.
func NewAutoFetcher(cfg Config) (*AutoFetcher, error) {
	dynamic, err := NewDynamicFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic fetcher: %w", err)
	}
	return &AutoFetcher{
		static:  NewStaticFetcher(cfg),
		dynamic: dynamic,
	}, nil
}

// Fetch retrieves the page statically and retries in the browser when
// the static response carries an app shell instead of content.
func (f *AutoFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (PageContent, error) {
	content, err := f.static.Fetch(ctx, url, opts)
	if err != nil {
		if ctx.Err() != nil {
			return PageContent{}, ctx.Err()
		}
		return f.dynamic.Fetch(ctx, url, opts)
	}
	if clientRendered(content.HTML) {
		return f.dynamic.Fetch(ctx, url, opts)
	}
	return content, nil
}

// clientRendered reports whether the HTML looks like an empty SPA shell
// that only fills in after scripts run.
func clientRendered(html string) bool {
	lower := strings.ToLower(html)

	shells := []string{
		`<div id="root"></div>`,
		`<div id="app"></div>`,
		`<div id="__next"></div>`,
		`<div id="__nuxt"></div>`,
		`<app-root></app-root>`,
	}
	for _, shell := range shells {
		if strings.Contains(lower, shell) {
			return true
		}
	}

	if idx := strings.Index(lower, "<noscript>"); idx >= 0 {
		rest := lower[idx:]
		if end := strings.Index(rest, "</noscript>"); end >= 0 {
			warning := rest[:end]
			if strings.Contains(warning, "javascript") || strings.Contains(warning, "enable") {
				return true
			}
		}
	}
	return false
}

// Close releases the browser. The static half holds nothing.
func (f *AutoFetcher) Close() error {
	return f.dynamic.Close()
}

// Type returns the fetcher type.
func (f *AutoFetcher) Type() string {
	return "auto"
}
