package crawler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carhunt/carhunt/internal/fetcher"
	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/source"
	"github.com/carhunt/carhunt/internal/store"
)

// fakeFetcher serves canned HTML by URL. Unknown URLs fail, which is
// how page-level failure paths get exercised.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts fetcher.FetchOptions) (fetcher.PageContent, error) {
	if err := ctx.Err(); err != nil {
		return fetcher.PageContent{}, err
	}
	f.fetched = append(f.fetched, url)
	html, ok := f.pages[url]
	if !ok {
		return fetcher.PageContent{}, errors.New("status 503")
	}
	return fetcher.PageContent{URL: url, HTML: html, StatusCode: 200}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "static" }

// fakeSink records writes in memory and deduplicates on source URL the
// way the real store's unique constraint does.
type fakeSink struct {
	listings map[string]*model.Listing
	totals   map[string][2]int
	failOn   string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		listings: make(map[string]*model.Listing),
		totals:   make(map[string][2]int),
	}
}

func (s *fakeSink) Upsert(ctx context.Context, l *model.Listing) (store.UpsertResult, error) {
	if s.failOn != "" && strings.Contains(l.SourceURL, s.failOn) {
		return store.DuplicateSkipped, errors.New("disk full")
	}
	if _, ok := s.listings[l.SourceURL]; ok {
		return store.DuplicateSkipped, nil
	}
	s.listings[l.SourceURL] = l
	return store.Inserted, nil
}

func (s *fakeSink) PutTotals(ctx context.Context, brand string, totalUsed, totalNew int) error {
	s.totals[brand] = [2]int{totalUsed, totalNew}
	return nil
}

func (s *fakeSink) Totals(ctx context.Context, brand string) (int, int, bool, error) {
	t, ok := s.totals[brand]
	return t[0], t[1], ok, nil
}

func card(id, href, title, year string) string {
	return `<article data-id="` + id + `">
		<a href="` + href + `"></a>
		<h2>` + title + `</h2>
		<dd data-parameter="year">` + year + `</dd>
		<h3>50 000</h3>
	</article>`
}

func countsHeader(used, brandNew string) string {
	return `<a data-testid="select-used" href="#">Używane (` + used + `)</a>
		<a data-testid="select-new" href="#">Nowe (` + brandNew + `)</a>`
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Brand = "bmw"
	cfg.MinDelay = 0
	cfg.MaxDelay = 0
	cfg.Seed = 1
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	p := source.Otomoto()
	f := &fakeFetcher{}
	sink := newFakeSink()

	noPages := testConfig()
	noPages.Pages = 0
	if _, err := New(p, f, sink, noPages); err == nil {
		t.Error("expected an error for a zero page budget")
	}

	badDelays := testConfig()
	badDelays.MinDelay = 5
	badDelays.MaxDelay = 2
	if _, err := New(p, f, sink, badDelays); err == nil {
		t.Error("expected an error for max delay below min delay")
	}
}

func TestRun_InlineCrawlSplitsBudget(t *testing.T) {
	p := source.Otomoto()
	base := p.BaseURL

	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane/bmw": countsHeader("10", "10"),
		base + "/uzywane/bmw?page=1": `<div data-testid="search-results">` +
			card("1", base+"/oferta/u1.html", "BMW Seria 3", "2015") +
			card("2", base+"/oferta/u2.html", "BMW X5", "2018") +
			`</div>`,
		base + "/nowe/bmw?page=1": `<div data-testid="search-results">` +
			card("3", base+"/oferta/n1.html", "BMW Seria 1", "2025") +
			`</div>`,
	}}
	sink := newFakeSink()

	cfg := testConfig()
	cfg.Pages = 2
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := sink.totals["bmw"]; got != [2]int{10, 10} {
		t.Errorf("totals snapshot = %v, want [10 10]", got)
	}
	if stats.PagesFetched != 2 {
		t.Errorf("pages fetched = %d, want 1 used + 1 new", stats.PagesFetched)
	}
	if stats.Found != 3 || stats.Inserted != 3 {
		t.Errorf("found/inserted = %d/%d, want 3/3", stats.Found, stats.Inserted)
	}
	if len(sink.listings) != 3 {
		t.Errorf("sink holds %d listings, want 3", len(sink.listings))
	}
	if l := sink.listings[base+"/oferta/n1.html"]; l == nil || l.ConditionStatus != model.ConditionNew {
		t.Error("listing from the new segment should carry the new condition")
	}
	if len(stats.Brands) != 1 || stats.Brands[0] != "bmw" {
		t.Errorf("brands = %v, want [bmw]", stats.Brands)
	}
}

func TestRun_PageFailureSkipsRest(t *testing.T) {
	p := source.Otomoto()
	base := p.BaseURL

	// Totals page missing: the whole budget routes to used listings.
	// Page 1 fails, page 2 works; the job keeps going.
	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane/bmw?page=2": `<div data-testid="search-results">` +
			card("1", base+"/oferta/u1.html", "BMW Seria 3", "2015") +
			`</div>`,
	}}
	sink := newFakeSink()

	cfg := testConfig()
	cfg.Pages = 2
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if stats.PagesFailed != 1 || stats.PagesFetched != 1 {
		t.Errorf("failed/fetched = %d/%d, want 1/1", stats.PagesFailed, stats.PagesFetched)
	}
	if stats.Inserted != 1 {
		t.Errorf("inserted = %d, want the page-2 listing", stats.Inserted)
	}
	if len(sink.totals) != 0 {
		t.Error("no totals were readable, none should be snapshotted")
	}
	for _, url := range f.fetched {
		if strings.Contains(url, "/nowe/") {
			t.Errorf("zero totals should route the whole budget to used listings, fetched %s", url)
		}
	}
}

func TestRun_CountsFetchFailure_FallsBackToSnapshot(t *testing.T) {
	p := source.Otomoto()
	base := p.BaseURL

	// The counts page is unreachable, but an earlier run recorded the
	// used/new totals. The budget split follows the snapshot instead of
	// routing everything to used listings.
	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane/bmw?page=1": `<div data-testid="search-results">` +
			card("1", base+"/oferta/u1.html", "BMW Seria 3", "2015") +
			`</div>`,
		base + "/nowe/bmw?page=1": `<div data-testid="search-results">` +
			card("2", base+"/oferta/n1.html", "BMW Seria 1", "2025") +
			`</div>`,
	}}
	sink := newFakeSink()
	sink.totals["bmw"] = [2]int{10, 10}

	cfg := testConfig()
	cfg.Pages = 2
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	fetchedNew := false
	for _, url := range f.fetched {
		if strings.Contains(url, "/nowe/") {
			fetchedNew = true
		}
	}
	if !fetchedNew {
		t.Error("snapshot totals should split the budget, not route everything to used")
	}
	if stats.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", stats.Inserted)
	}
	if got := sink.totals["bmw"]; got != [2]int{10, 10} {
		t.Errorf("fallback run rewrote the snapshot: %v", got)
	}
}

func TestRun_DuplicatesCountedNotFailed(t *testing.T) {
	p := source.Otomoto()
	base := p.BaseURL

	page := `<div data-testid="search-results">` +
		card("1", base+"/oferta/u1.html", "BMW Seria 3", "2015") +
		`</div>`
	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane/bmw":        countsHeader("10", "0"),
		base + "/uzywane/bmw?page=1": page,
		base + "/uzywane/bmw?page=2": page,
	}}
	sink := newFakeSink()

	cfg := testConfig()
	cfg.Pages = 2
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Found != 2 || stats.Inserted != 1 || stats.Duplicates != 1 {
		t.Errorf("found/inserted/duplicates = %d/%d/%d, want 2/1/1",
			stats.Found, stats.Inserted, stats.Duplicates)
	}
	if stats.Failed != 0 {
		t.Errorf("failed = %d, a duplicate is not a failure", stats.Failed)
	}
}

func TestRun_PersistErrorCountedAsFailed(t *testing.T) {
	p := source.Otomoto()
	base := p.BaseURL

	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane/bmw": countsHeader("10", "0"),
		base + "/uzywane/bmw?page=1": `<div data-testid="search-results">` +
			card("1", base+"/oferta/bad.html", "BMW Seria 3", "2015") +
			card("2", base+"/oferta/good.html", "BMW X5", "2018") +
			`</div>`,
	}}
	sink := newFakeSink()
	sink.failOn = "bad.html"

	job, err := New(p, f, sink, testConfig())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Failed != 1 || stats.Inserted != 1 {
		t.Errorf("failed/inserted = %d/%d, want 1/1", stats.Failed, stats.Inserted)
	}
}

func TestRun_DetailLayoutVisitsEachLink(t *testing.T) {
	p := source.OLX()
	base := p.BaseURL

	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane": countsHeader("5", "0"),
		base + "/uzywane?page=1": `<div data-testid="listing-grid">
			<div data-cy="l-card"><a href="https://www.olx.pl/d/oferta/1.html"></a></div>
			<div data-cy="l-card"><a href="https://www.olx.pl/d/oferta/2.html"></a></div>
		</div>`,
		"https://www.olx.pl/d/oferta/1.html": `<h4 data-cy="ad_title">BMW 320d</h4>
			<h3 data-testid="ad-price-container">45 000 zł</h3>`,
		"https://www.olx.pl/d/oferta/2.html": `<h4 data-cy="ad_title">Audi A4</h4>
			<h3 data-testid="ad-price-container">39 000 zł</h3>`,
	}}
	sink := newFakeSink()

	cfg := testConfig()
	cfg.Brand = ""
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Found != 2 || stats.Inserted != 2 {
		t.Errorf("found/inserted = %d/%d, want 2/2", stats.Found, stats.Inserted)
	}
	want := []string{"audi", "bmw"}
	if len(stats.Brands) != 2 || stats.Brands[0] != want[0] || stats.Brands[1] != want[1] {
		t.Errorf("brands = %v, want %v", stats.Brands, want)
	}
}

func TestRun_DetailFetchFailureSkipsListing(t *testing.T) {
	p := source.OLX()
	base := p.BaseURL

	f := &fakeFetcher{pages: map[string]string{
		base + "/uzywane": countsHeader("5", "0"),
		base + "/uzywane?page=1": `<div data-testid="listing-grid">
			<div data-cy="l-card"><a href="https://www.olx.pl/d/oferta/gone.html"></a></div>
			<div data-cy="l-card"><a href="https://www.olx.pl/d/oferta/2.html"></a></div>
		</div>`,
		"https://www.olx.pl/d/oferta/2.html": `<h4 data-cy="ad_title">Audi A4</h4>`,
	}}
	sink := newFakeSink()

	cfg := testConfig()
	cfg.Brand = ""
	job, err := New(p, f, sink, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Failed != 1 || stats.Inserted != 1 {
		t.Errorf("failed/inserted = %d/%d, want 1/1", stats.Failed, stats.Inserted)
	}
}

func TestRun_CancelledContextStopsCrawl(t *testing.T) {
	p := source.Otomoto()
	f := &fakeFetcher{pages: map[string]string{}}
	sink := newFakeSink()

	job, err := New(p, f, sink, testConfig())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run with a cancelled context = %v, want context.Canceled", err)
	}
}
