// internal/middleware/ratelimit.go
//
// Per-client-IP token bucket.
//
// Each client address gets its own rate.Limiter.  Limiters live in a
// bounded LRU rather than a map with a sweeper goroutine: idle clients age
// out as new ones arrive, and the middleware owns no background work that
// would outlive the server.

package middleware

import (
	"math"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yanizio/kapenta/internal/metrics"
	"github.com/yanizio/kapenta/internal/requestinfo"
)

// DefaultLimiterCapacity bounds how many client limiters are retained.
const DefaultLimiterCapacity = 10000

// RateLimiter hands out one limiter per client key.
type RateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewRateLimiter returns a limiter allowing rps requests per second with
// the given burst.  A burst below one is raised to ceil(rps).
func NewRateLimiter(rps float64, burst int) (*RateLimiter, error) {
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	c, err := lru.New[string, *rate.Limiter](DefaultLimiterCapacity)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{limiters: c, rps: rate.Limit(rps), burst: burst}, nil
}

// Limiter returns the limiter for key, creating it on first use.
func (rl *RateLimiter) Limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

// RateLimit rejects requests over budget with 429 and a Retry-After hint.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			l := rl.Limiter(key)

			res := l.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				metrics.RateLimitedTotal.Inc()
				zap.L().Warn("rate limit exceeded",
					zap.String("client", key),
					zap.String("path", r.URL.Path))

				secs := int(math.Ceil(delay.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if info := requestinfo.FromContext(r.Context()); info != nil && info.Geo.IP != nil {
		return info.Geo.IP.String()
	}
	if ip := requestinfo.ClientIP(r); ip != nil {
		return ip.String()
	}
	return r.RemoteAddr
}
