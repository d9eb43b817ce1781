package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"golang.org/x/time/rate"
)

const limiterResetInterval = time.Hour

// clientLimiter hands out one token bucket per client IP. The whole map is
// dropped every hour so idle clients do not accumulate.
type clientLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	limit       rate.Limit
	burst       int
	now         func() time.Time
}

// newClientLimiter allows perMinute requests per client. perMinute <= 0
// disables limiting and returns nil.
func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		return nil
	}
	burst := perMinute / 5
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
	}
}

func (c *clientLimiter) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now := c.now(); now.Sub(c.lastCleanup) > limiterResetInterval {
		c.limiters = make(map[string]*rate.Limiter)
		c.lastCleanup = now
	}
	l, ok := c.limiters[ip]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[ip] = l
	}
	return l
}

func (c *clientLimiter) Allow(ip string) bool {
	return c == nil || c.get(ip).Allow()
}

func rateLimitMiddleware(limiter *clientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.FromContext(r.Context()).Warn("rate limit exceeded for %s", ip)
				w.Header().Set("Retry-After", "60")
				handleError(w, r, errors.NewRateLimitedError("too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of the remote address. Proxy headers are
// only honoured when the router rewrites RemoteAddr from them.
func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
