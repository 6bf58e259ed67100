package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/carhunt/carhunt/internal/logger"
)

// DynamicFetcher uses chromedp for JavaScript-rendered pages. Some OLX
// detail pages only populate their parameter tables client-side.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamicFetcher creates a new dynamic fetcher with a browser instance.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	logger.Debug("creating dynamic fetcher")

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch retrieves page content using a headless browser.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts FetchOptions) (PageContent, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL)

	result := PageContent{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// New browser context per request
	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string

	actions := []chromedp.Action{}

	// The allocator's user agent is fixed at startup; the per-request
	// rotation has to go through the emulation domain.
	if opts.UserAgent != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(opts.UserAgent).Do(ctx)
		}))
	}
	actions = append(actions, chromedp.Navigate(targetURL))

	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitForSelector))
	} else {
		actions = append(actions, chromedp.WaitVisible("body"))
	}

	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}

	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	logger.Debug("dynamic fetch complete", "url", targetURL, "html_size", len(html))
	return result, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
