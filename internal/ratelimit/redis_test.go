package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), server
}

func TestRedisStoreFixedWindow(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	for i := 1; i <= loginPolicy.Points; i++ {
		result, err := store.Take(ctx, "login:10.0.0.1", loginPolicy)
		if err != nil {
			t.Fatalf("Take() unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d rejected, want allowed", i)
		}
	}

	result, err := store.Take(ctx, "login:10.0.0.1", loginPolicy)
	if err != nil {
		t.Fatalf("Take() unexpected error: %v", err)
	}
	if result.Allowed || result.Remaining != 0 {
		t.Fatalf("over-limit attempt = %+v, want rejected", result)
	}
	if got, _ := server.Get("test:login:10.0.0.1"); got != "5" {
		t.Errorf("stored counter = %q, rejected attempts must not increment", got)
	}
	if result.ResetAfter <= 0 || result.ResetAfter > time.Minute {
		t.Errorf("ResetAfter = %v, want within window", result.ResetAfter)
	}

	server.FastForward(61 * time.Second)

	result, err = store.Take(ctx, "login:10.0.0.1", loginPolicy)
	if err != nil {
		t.Fatalf("Take() unexpected error: %v", err)
	}
	if !result.Allowed || result.Remaining != loginPolicy.Points-1 {
		t.Errorf("after expiry got %+v, want fresh window", result)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, server := newRedisStore(t)
	server.Close()

	if _, err := store.Take(context.Background(), "k", loginPolicy); err == nil {
		t.Fatalf("Take() with closed server returned nil error")
	}
}
