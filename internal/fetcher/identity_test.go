package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewIdentity_DefaultPool(t *testing.T) {
	id := NewIdentity(IdentityConfig{Seed: 1})

	if id.UserAgent() == "" {
		t.Error("a fresh identity should start with a user agent set")
	}
	ua := id.Rotate()
	if ua == "" {
		t.Error("Rotate returned an empty user agent")
	}
	found := false
	for _, known := range defaultUserAgents {
		if ua == known {
			found = true
		}
	}
	if !found {
		t.Errorf("rotated to %q, not a member of the default pool", ua)
	}
}

func TestRotate_StaysInConfiguredPool(t *testing.T) {
	pool := []string{"agent-a", "agent-b"}
	id := NewIdentity(IdentityConfig{UserAgents: pool, Seed: 1})

	for i := 0; i < 50; i++ {
		ua := id.Rotate()
		if ua != "agent-a" && ua != "agent-b" {
			t.Fatalf("rotated outside the pool: %q", ua)
		}
		if id.UserAgent() != ua {
			t.Fatal("UserAgent should report the last rotation without rotating again")
		}
	}
}

func TestRotate_IndependentPerIdentity(t *testing.T) {
	// Two jobs with the same seed produce the same sequence; advancing
	// one never advances the other.
	a := NewIdentity(IdentityConfig{Seed: 42})
	b := NewIdentity(IdentityConfig{Seed: 42})

	first := a.Rotate()
	a.Rotate()
	a.Rotate()

	if got := b.Rotate(); got != first {
		t.Errorf("identities share rotation state: %q vs %q", got, first)
	}
}

func TestHeaders_FixedSet(t *testing.T) {
	id := NewIdentity(IdentityConfig{Seed: 1})

	h := id.Headers()
	if h["Accept-Language"] == "" {
		t.Error("Accept-Language header missing")
	}
	if h["Accept"] == "" {
		t.Error("Accept header missing")
	}
}

func TestWait_ZeroDelayReturnsImmediately(t *testing.T) {
	id := NewIdentity(IdentityConfig{Seed: 1})

	start := time.Now()
	if err := id.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("zero-delay Wait should not sleep")
	}
}

func TestWait_SleepsWithinBounds(t *testing.T) {
	id := NewIdentity(IdentityConfig{
		MinDelay: 10 * time.Millisecond,
		MaxDelay: 30 * time.Millisecond,
		Seed:     1,
	})

	start := time.Now()
	if err := id.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 10*time.Millisecond {
		t.Errorf("slept %s, below the minimum delay", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("slept %s, far above the maximum delay", elapsed)
	}
}

func TestWait_CancelledContext(t *testing.T) {
	id := NewIdentity(IdentityConfig{
		MinDelay: time.Hour,
		MaxDelay: 2 * time.Hour,
		Seed:     1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := id.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled Wait should return immediately")
	}
}
