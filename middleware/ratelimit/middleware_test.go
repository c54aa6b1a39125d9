package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

// countingAllower admits the first limit requests per key.
type countingAllower struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	resets time.Time
}

func (a *countingAllower) Allow(_ context.Context, key string, limit int, _ time.Duration) (*Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counts == nil {
		a.counts = make(map[string]int)
	}
	n := a.counts[key]
	if n >= limit {
		return &Result{Allowed: false, Limit: limit, ResetAt: a.resets}, nil
	}
	a.counts[key] = n + 1
	return &Result{Allowed: true, Remaining: limit - n - 1, Limit: limit, ResetAt: a.resets}, nil
}

func newTestApp(m *Middleware, rule string, keyFn KeyFunc) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/login", func(c *fiber.Ctx) error {
		c.Locals("session_id", c.Get("X-Session"))
		return c.Next()
	}, m.Handler(rule, keyFn), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestNew(t *testing.T) {
	m := New(WithRedisAddr("redis:6379"), WithRule("login", 10, time.Minute))

	if name := m.Name(); name != "rate-limit" {
		t.Errorf("Name() = %q, want 'rate-limit'", name)
	}
	if got := m.config.Rules["login"]; got.Limit != 10 || got.Window != time.Minute {
		t.Errorf("login rule = %+v", got)
	}
	if m.config.KeyPrefix != "ratelimit:" {
		t.Errorf("KeyPrefix = %q, want default", m.config.KeyPrefix)
	}
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	m := New(WithRule("login", 1, time.Minute))
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	app := newTestApp(m, "login", ByIP)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusNoContent {
			t.Errorf("request %d status = %d, want 204", i, resp.StatusCode)
		}
	}
	if h := m.Health(context.Background()); !h.Healthy || h.Message != "disabled" {
		t.Errorf("Health() = %+v", h)
	}
}

func TestMiddleware_LimitsPerClient(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	m := New(WithRule("login", 2, time.Minute))
	m.now = func() time.Time { return now }
	m.UseLimiter(&countingAllower{resets: now.Add(30 * time.Second)})
	app := newTestApp(m, "login", ByLocal("session_id"))

	send := func(session string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Session", session)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := send("a"); resp.StatusCode != fiber.StatusNoContent {
			t.Fatalf("request %d status = %d, want 204", i, resp.StatusCode)
		}
	}

	resp := send("a")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want %q", got, "30")
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	if resp := send("b"); resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("other client status = %d, want 204", resp.StatusCode)
	}
}

func TestMiddleware_FailsOpen(t *testing.T) {
	m := New(WithRule("login", 1, time.Minute))
	m.UseLimiter(&countingAllower{err: errors.New("connection refused")})
	app := newTestApp(m, "login", ByIP)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusNoContent {
			t.Errorf("request %d status = %d, want 204", i, resp.StatusCode)
		}
	}
}

func TestMiddleware_UnknownRulePassesThrough(t *testing.T) {
	m := New()
	m.UseLimiter(&countingAllower{})
	app := newTestApp(m, "checkout", ByIP)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestTruncate(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if got := truncate(string(long)); len(got) != maxClientIDLength {
		t.Errorf("len(truncate()) = %d, want %d", len(got), maxClientIDLength)
	}
	if got := truncate("abc"); got != "abc" {
		t.Errorf("truncate(abc) = %q", got)
	}
}
