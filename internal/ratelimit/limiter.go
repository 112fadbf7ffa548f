/*
Package ratelimit throttles clients by IP with one token bucket each.
Buckets live in a bounded LRU so an address scan cannot grow memory.
*/
package ratelimit

import (
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"WorkoutPlanner/internal/utility"
)

// DefaultMaxClients bounds the number of tracked client buckets.
const DefaultMaxClients = 10_000

// Limiter hands out a token bucket per client key.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
}

// New returns a Limiter allowing rps requests per second with bursts of burst.
// maxClients <= 0 means DefaultMaxClients.
func New(rps float64, burst, maxClients int) (*Limiter, error) {
	if burst < 1 {
		burst = 1
	}
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	cache, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}
	return &Limiter{rps: rate.Limit(rps), burst: burst, buckets: cache}, nil
}

// Allow consumes one token from key's bucket.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	b := rate.NewLimiter(l.rps, l.burst)
	l.buckets.Add(key, b)
	return b
}

// Middleware rejects clients over their budget with 429. Clients are keyed
// on c.RealIP(), so the echo instance's IPExtractor decides which headers,
// if any, are believed.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip) {
				utility.GetLogger(c).Warn().Str("client_ip", ip).Msg("Rate limit exceeded")
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}
