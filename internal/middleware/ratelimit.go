package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luminedu/assess-engine/internal/response"
)

// RateLimiter throttles requests per client IP with a fixed window counter.
// It guards the login endpoints against access-code brute forcing; the
// window resets fully rather than refilling, which is coarse but cheap and
// more than enough for a credential endpoint.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	per     time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter allows limit requests per IP within each window of the
// given duration.
func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		per:     per,
	}
	go rl.evictLoop()
	return rl
}

// Middleware rejects over-limit requests with a 429 envelope.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.After(w.resetAt) {
		rl.windows[ip] = &window{count: 1, resetAt: now.Add(rl.per)}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// evictLoop drops expired windows so idle IPs do not accumulate.
func (rl *RateLimiter) evictLoop() {
	for range time.Tick(time.Minute) {
		now := time.Now()
		rl.mu.Lock()
		for ip, w := range rl.windows {
			if now.After(w.resetAt) {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}
