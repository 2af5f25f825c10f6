package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var loginPolicy = Policy{Name: "login", Points: 5, Window: time.Minute}

func TestMemoryStoreFixedWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore().WithClock(clock.Now)
	ctx := context.Background()

	for i := 1; i <= loginPolicy.Points; i++ {
		result, err := store.Take(ctx, "login:10.0.0.1", loginPolicy)
		if err != nil {
			t.Fatalf("Take() unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d rejected, want allowed", i)
		}
		if result.Remaining != loginPolicy.Points-i {
			t.Errorf("attempt %d remaining = %d, want %d", i, result.Remaining, loginPolicy.Points-i)
		}
	}

	clock.Advance(30 * time.Second)
	result, _ := store.Take(ctx, "login:10.0.0.1", loginPolicy)
	if result.Allowed {
		t.Fatalf("attempt over the limit allowed")
	}
	if result.ResetAfter != 30*time.Second {
		t.Errorf("ResetAfter = %v, want 30s; rejected attempts must not extend the window", result.ResetAfter)
	}

	other, _ := store.Take(ctx, "login:10.0.0.2", loginPolicy)
	if !other.Allowed {
		t.Errorf("separate key throttled by another client's budget")
	}

	clock.Advance(30 * time.Second)
	result, _ = store.Take(ctx, "login:10.0.0.1", loginPolicy)
	if !result.Allowed || result.Remaining != loginPolicy.Points-1 {
		t.Errorf("after window elapsed got %+v, want fresh window", result)
	}
}

func TestMemoryStoreConcurrentTake(t *testing.T) {
	store := NewMemoryStore()
	policy := Policy{Name: "api", Points: 60, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, _ := store.Take(context.Background(), "api:10.0.0.1", policy)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != policy.Points {
		t.Errorf("allowed = %d, want exactly %d", allowed, policy.Points)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore().WithClock(clock.Now)
	_, _ = store.Take(context.Background(), "a", loginPolicy)
	clock.Advance(10 * time.Second)
	_, _ = store.Take(context.Background(), "b", loginPolicy)

	clock.Advance(55 * time.Second)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
}
