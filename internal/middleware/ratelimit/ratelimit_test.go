package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, rpm int, now *time.Time) *Limiter {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: rpm, CleanupInterval: time.Hour})
	rl.now = func() time.Time { return *now }
	t.Cleanup(rl.Stop)
	return rl
}

func TestLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, 2, &now)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients are counted separately")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "a new window starts after a minute")

	m := rl.GetMetrics()
	assert.Equal(t, int64(1), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, 5, &now)

	rl.Allow("1.2.3.4")
	now = now.Add(11 * time.Minute)
	rl.Allow("5.6.7.8")
	rl.cleanupStaleEntries()

	assert.Equal(t, 1, rl.ActiveClients())
}

func TestLimiter_MiddlewareCountsWritesOnly(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, 1, &now)

	h := rl.Middleware(func(*http.Request) string { return "1.2.3.4" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/expenses", nil))
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, codes(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, codes(http.MethodPost))
	assert.Equal(t, http.StatusNoContent, codes(http.MethodGet))
}
