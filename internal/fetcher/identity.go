package fetcher

import (
	"context"
	"math/rand"
	"time"
)

// defaultUserAgents is the outbound identity pool. Rotating between
// desktop browser identities keeps the crawl from presenting a single
// fingerprint across hundreds of requests.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
}

// Identity is the outbound request identity for a single crawl job.
// Each job owns one, with its own random sequence and delay timer, so
// concurrent jobs never share rotation state.
type Identity struct {
	userAgents []string
	headers    map[string]string
	minDelay   time.Duration
	maxDelay   time.Duration
	rng        *rand.Rand
	current    string
}

// IdentityConfig configures an Identity.
type IdentityConfig struct {
	UserAgents []string // pool to rotate through (default: built-in pool)
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Seed       int64 // 0 means seed from the clock
}

// NewIdentity creates a per-job identity.
func NewIdentity(cfg IdentityConfig) *Identity {
	pool := cfg.UserAgents
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	id := &Identity{
		userAgents: pool,
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language": "pl-PL,pl;q=0.8",
		},
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		rng:      rand.New(rand.NewSource(seed)),
	}
	id.current = pool[0]
	return id
}

// Rotate picks a new user agent from the pool and returns it.
func (id *Identity) Rotate() string {
	id.current = id.userAgents[id.rng.Intn(len(id.userAgents))]
	return id.current
}

// UserAgent returns the current user agent without rotating.
func (id *Identity) UserAgent() string {
	return id.current
}

// Headers returns the fixed header set sent with every request.
func (id *Identity) Headers() map[string]string {
	return id.headers
}

// Wait sleeps for a duration drawn uniformly from [MinDelay, MaxDelay].
// It returns early with the context error if the job is cancelled.
// This is the politeness throttle between fetches and must run before
// every request after the first.
func (id *Identity) Wait(ctx context.Context) error {
	if id.maxDelay <= 0 {
		return ctx.Err()
	}
	d := id.minDelay
	if span := id.maxDelay - id.minDelay; span > 0 {
		d += time.Duration(id.rng.Int63n(int64(span)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
