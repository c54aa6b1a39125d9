package ratelimit

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const testRedisAddr = "localhost:6379"

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		resetAt time.Time
		want    time.Duration
	}{
		{name: "partial second rounds up", resetAt: now.Add(1500 * time.Millisecond), want: 2 * time.Second},
		{name: "already reset", resetAt: now.Add(-time.Second), want: time.Second},
		{name: "whole seconds", resetAt: now.Add(10 * time.Second), want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{ResetAt: tt.resetAt}
			if got := r.RetryAfter(now); got != tt.want {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLimiter_Allow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	conn, err := net.DialTimeout("tcp", testRedisAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	conn.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	limiter := NewLimiter(client, "test:"+uuid.NewString()+":")

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "client", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !result.Allowed {
			t.Errorf("request %d should be allowed", i)
		}
		if result.Remaining != 2-i {
			t.Errorf("request %d Remaining = %d, want %d", i, result.Remaining, 2-i)
		}
	}

	result, err := limiter.Allow(ctx, "client", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if result.Allowed {
		t.Error("fourth request should be rejected")
	}
	if !result.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt = %v, want in the future", result.ResetAt)
	}
}
