package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped by Sweep.
type ipRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*visitor
	rps    rate.Limit
	burst  int
	now    func() time.Time
}

// newIPRateLimiter returns a limiter; rps <= 0 disables limiting.
func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limits: make(map[string]*visitor),
		rps:    rate.Limit(rps),
		burst:  burst,
		now:    time.Now,
	}
}

func (rl *ipRateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.limits[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limits[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Sweep removes buckets not used for idle and returns how many were removed.
// A dropped bucket starts full on the next request, so idle should exceed
// burst/rps.
func (rl *ipRateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, v := range rl.limits {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
			removed++
		}
	}
	return removed
}

func (rl *ipRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

func (rl *ipRateLimiter) Allow(key string) bool {
	if rl.rps <= 0 {
		return true
	}
	return rl.getLimiter(key).Allow()
}

func (rl *ipRateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
			}
			return next(c)
		}
	}
}
