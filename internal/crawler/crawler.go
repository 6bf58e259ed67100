// Package crawler drives paginated ingestion of one source: fetch a
// results page, extract listings or detail links, persist, move on.
// One bad page never aborts a job; its failure shows up in the stats.
package crawler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/carhunt/carhunt/internal/extract"
	"github.com/carhunt/carhunt/internal/fetcher"
	"github.com/carhunt/carhunt/internal/logger"
	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/source"
	"github.com/carhunt/carhunt/internal/store"
)

// Sink receives the crawl's persistent side effects and hands back the
// previous run's totals snapshot. *store.Store satisfies it.
type Sink interface {
	Upsert(ctx context.Context, l *model.Listing) (store.UpsertResult, error)
	PutTotals(ctx context.Context, brand string, totalUsed, totalNew int) error
	Totals(ctx context.Context, brand string) (totalUsed, totalNew int, ok bool, err error)
}

// Config holds crawl job configuration.
type Config struct {
	Brand     string        // brand URL segment; empty crawls all brands
	Pages     int           // total page budget across used+new
	StartPage int           // 1-indexed first page (default 1)
	MinDelay  time.Duration // politeness delay bounds between fetches
	MaxDelay  time.Duration
	Timeout   time.Duration // per-request fetch timeout
	Seed      int64         // identity rotation seed (0: from the clock)
}

// DefaultConfig returns sensible crawl defaults.
func DefaultConfig() Config {
	return Config{
		Pages:     1,
		StartPage: 1,
		MinDelay:  4 * time.Second,
		MaxDelay:  7 * time.Second,
		Timeout:   30 * time.Second,
	}
}

// validate rejects unusable configuration before any network activity.
func (c *Config) validate() error {
	if c.Pages < 1 {
		return fmt.Errorf("page budget must be at least 1, got %d", c.Pages)
	}
	if c.StartPage < 1 {
		c.StartPage = 1
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay interval [%s, %s] is not a valid range", c.MinDelay, c.MaxDelay)
	}
	return nil
}

// Stats is a crawl job's terminal output besides the sink writes.
type Stats struct {
	PagesFetched int
	PagesFailed  int
	Found        int
	Inserted     int
	Duplicates   int
	Failed       int
	Brands       []string // brand identifiers observed during the crawl
}

// Job is a single sequential crawl over one source. Each job owns its
// identity rotation and delay timer, so jobs for different brands can
// run concurrently without sharing outbound state.
type Job struct {
	profile   *source.Profile
	fetch     fetcher.Fetcher
	extractor *extract.Extractor
	sink      Sink
	identity  *fetcher.Identity
	config    Config

	brands map[string]struct{}
	stats  Stats
}

// New creates a crawl job. Configuration errors are returned up front.
func New(p *source.Profile, f fetcher.Fetcher, sink Sink, cfg Config) (*Job, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Job{
		profile:   p,
		fetch:     f,
		extractor: extract.New(p),
		sink:      sink,
		identity: fetcher.NewIdentity(fetcher.IdentityConfig{
			MinDelay: cfg.MinDelay,
			MaxDelay: cfg.MaxDelay,
			Seed:     cfg.Seed,
		}),
		config: cfg,
		brands: make(map[string]struct{}),
	}, nil
}

// Run executes the crawl: read the used/new totals, split the page
// budget, then walk used pages and new pages in order. It returns the
// stats gathered so far even when cancelled mid-crawl; every persisted
// listing was committed individually.
func (j *Job) Run(ctx context.Context) (Stats, error) {
	usedTotal, newTotal, live := j.readTotals(ctx)
	pagesUsed, pagesNew := Budget(j.config.Pages, usedTotal, newTotal)

	logger.Info("crawl starting",
		"source", j.profile.Name,
		"brand", j.config.Brand,
		"total_used", usedTotal,
		"total_new", newTotal,
		"pages_used", pagesUsed,
		"pages_new", pagesNew)

	// Only freshly observed counts refresh the snapshot; a fallback
	// read must not rewrite itself with a new timestamp.
	if live && usedTotal+newTotal > 0 {
		if err := j.sink.PutTotals(ctx, j.config.Brand, usedTotal, newTotal); err != nil {
			logger.Warn("totals snapshot write failed", "brand", j.config.Brand, "error", err)
		}
	}

	if err := j.crawlPages(ctx, model.ConditionUsed, pagesUsed); err != nil {
		return j.finish(), err
	}
	if err := j.crawlPages(ctx, model.ConditionNew, pagesNew); err != nil {
		return j.finish(), err
	}
	return j.finish(), nil
}

// readTotals fetches the first used-listings page and reads both
// counters off it. When the live read fails, the previous run's
// snapshot stands in; with neither, zero totals route the whole
// budget to used listings. live reports a successful live read.
func (j *Job) readTotals(ctx context.Context) (usedTotal, newTotal int, live bool) {
	url := j.profile.SearchURL(j.profile.Segment(model.ConditionUsed), j.config.Brand, 0)
	page, err := j.fetchPage(ctx, url)
	if err != nil {
		logger.Warn("totals page fetch failed", "url", url, "error", err)
		return j.snapshotTotals(ctx)
	}
	usedTotal, newTotal, err = j.extractor.Counts(page.HTML)
	if err != nil {
		logger.Warn("totals extraction failed", "url", url, "error", err)
		return j.snapshotTotals(ctx)
	}
	return usedTotal, newTotal, true
}

// snapshotTotals reads the totals recorded by a previous run.
func (j *Job) snapshotTotals(ctx context.Context) (int, int, bool) {
	usedTotal, newTotal, ok, err := j.sink.Totals(ctx, j.config.Brand)
	if err != nil {
		logger.Warn("totals snapshot read failed", "brand", j.config.Brand, "error", err)
		return 0, 0, false
	}
	if !ok {
		return 0, 0, false
	}
	logger.Info("using totals from a previous run",
		"brand", j.config.Brand, "total_used", usedTotal, "total_new", newTotal)
	return usedTotal, newTotal, false
}

// crawlPages walks n result pages of one condition's segment.
// Page-level failures are logged and skipped. A context error aborts
// the loop; everything persisted so far stays persisted.
func (j *Job) crawlPages(ctx context.Context, condition string, n int) error {
	segment := j.profile.Segment(condition)
	for page := j.config.StartPage; page < j.config.StartPage+n; page++ {
		if err := j.identity.Wait(ctx); err != nil {
			return err
		}

		url := j.profile.SearchURL(segment, j.config.Brand, page)
		logger.Info("fetching page", "url", url, "condition", condition)

		content, err := j.fetchPage(ctx, url)
		if err != nil {
			logger.Warn("page fetch failed, skipping", "url", url, "error", err)
			j.stats.PagesFailed++
			continue
		}
		j.stats.PagesFetched++

		result, err := j.extractor.SearchPage(content.HTML, url, condition)
		if err != nil {
			logger.Warn("page extraction failed, skipping", "url", url, "error", err)
			j.stats.PagesFailed++
			continue
		}

		for _, l := range result.Listings {
			j.persist(ctx, l)
		}
		for _, link := range result.Links {
			if err := j.crawlDetail(ctx, link, condition); err != nil {
				return err
			}
		}
	}
	return nil
}

// crawlDetail visits one detail page and persists its listing. Only a
// context error propagates; anything else affects this listing alone.
func (j *Job) crawlDetail(ctx context.Context, url, condition string) error {
	if err := j.identity.Wait(ctx); err != nil {
		return err
	}
	content, err := j.fetchPage(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("detail fetch failed, skipping", "url", url, "error", err)
		j.stats.Failed++
		return nil
	}
	l, err := j.extractor.DetailPage(content.HTML, url, condition)
	if err != nil {
		logger.Warn("detail extraction failed, skipping", "url", url, "error", err)
		j.stats.Failed++
		return nil
	}
	j.persist(ctx, l)
	return nil
}

// fetchPage rotates the outbound identity and performs one fetch.
func (j *Job) fetchPage(ctx context.Context, url string) (fetcher.PageContent, error) {
	opts := fetcher.FetchOptions{
		UserAgent: j.identity.Rotate(),
		Headers:   j.identity.Headers(),
		Timeout:   j.config.Timeout,
	}
	return j.fetch.Fetch(ctx, url, opts)
}

// persist writes one listing and folds the outcome into the stats.
func (j *Job) persist(ctx context.Context, l *model.Listing) {
	j.stats.Found++
	if l.Brand != "" {
		j.brands[l.Brand] = struct{}{}
	}
	result, err := j.sink.Upsert(ctx, l)
	switch {
	case err != nil:
		logger.Warn("persist failed", "url", l.SourceURL, "error", err)
		j.stats.Failed++
	case result == store.DuplicateSkipped:
		logger.Debug("duplicate skipped", "url", l.SourceURL)
		j.stats.Duplicates++
	default:
		logger.Debug("listing stored", "url", l.SourceURL)
		j.stats.Inserted++
	}
}

// finish seals the stats with the observed brand set.
func (j *Job) finish() Stats {
	stats := j.stats
	for b := range j.brands {
		stats.Brands = append(stats.Brands, b)
	}
	sort.Strings(stats.Brands)
	logger.Info("crawl finished",
		"source", j.profile.Name,
		"pages", stats.PagesFetched,
		"found", stats.Found,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed)
	return stats
}
