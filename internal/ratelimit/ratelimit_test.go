package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

func TestAllowConsumesTokens(t *testing.T) {
	tb := NewTokenBucket(setupTestRedis(t), 5, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := tb.Allow(ctx, "1.2.3.4", "memes")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, err := tb.Allow(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request past capacity to be denied")
	}
}

func TestGetRemaining(t *testing.T) {
	tb := NewTokenBucket(setupTestRedis(t), 5, 5)
	ctx := context.Background()

	remaining, err := tb.GetRemaining(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 5 {
		t.Fatalf("Expected a fresh bucket to hold 5 tokens, got %d", remaining)
	}

	for i := 0; i < 2; i++ {
		if _, err := tb.Allow(ctx, "1.2.3.4", "memes"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	remaining, err = tb.GetRemaining(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("Expected 3 tokens left, got %d", remaining)
	}

	// GetRemaining must not consume.
	remaining, err = tb.GetRemaining(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("Expected GetRemaining to be read-only, got %d", remaining)
	}
}

func TestReset(t *testing.T) {
	tb := NewTokenBucket(setupTestRedis(t), 1, 1)
	ctx := context.Background()

	if _, err := tb.Allow(ctx, "1.2.3.4", "memes"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	allowed, err := tb.Allow(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected bucket to be empty")
	}

	if err := tb.Reset(ctx, "1.2.3.4", "memes"); err != nil {
		t.Fatalf("Unexpected error resetting bucket: %v", err)
	}

	allowed, err = tb.Allow(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected a reset bucket to allow requests again")
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	tb := NewTokenBucket(setupTestRedis(t), 1, 1)
	ctx := context.Background()

	if _, err := tb.Allow(ctx, "1.2.3.4", "memes"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	allowed, err := tb.Allow(ctx, "1.2.3.4", "comments")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected a different action to have its own bucket")
	}

	allowed, err = tb.Allow(ctx, "5.6.7.8", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected a different key to have its own bucket")
	}
}

func TestRefillAfterWindow(t *testing.T) {
	client := setupTestRedis(t)
	tb := NewTokenBucket(client, 5, 5)
	ctx := context.Background()

	// Simulate an exhausted bucket whose last refill was a full window ago.
	key := bucketKey("1.2.3.4", "memes")
	lastRefill := time.Now().Add(-2 * time.Minute).Unix()
	if err := client.HSet(ctx, key, "tokens", "0", "last_refill", strconv.FormatInt(lastRefill, 10)).Err(); err != nil {
		t.Fatalf("Unexpected error seeding bucket: %v", err)
	}

	allowed, err := tb.Allow(ctx, "1.2.3.4", "memes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected the bucket to refill after the window elapsed")
	}
}
