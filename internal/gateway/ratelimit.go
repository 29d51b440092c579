package gateway

import (
	"net/http"
	"sync"
	"time"

	"FitCoachAI/internal/utility"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterCacheSize = 4096

// RateLimiter hands out one token bucket per user. Buckets live in an LRU so
// idle users are forgotten. A nil *RateLimiter allows everything.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per user with a burst of the same
// size. perMinute <= 0 disables limiting and returns nil.
func NewRateLimiter(perMinute int) (*RateLimiter, error) {
	if perMinute <= 0 {
		return nil, nil
	}
	cache, err := lru.New[string, *rate.Limiter](limiterCacheSize)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiters: cache,
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}, nil
}

// Allow consumes one token for key.
func (r *RateLimiter) Allow(key string) bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	l, ok := r.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters.Add(key, l)
	}
	r.mu.Unlock()
	return l.Allow()
}

// Middleware limits by authenticated user, falling back to the client IP.
func (r *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, err := utility.GetUserIDFromContext(c)
		if err != nil {
			key = "ip:" + utility.GetRealIP(c)
		}
		if !r.Allow(key) {
			utility.GetLogger(c).Warn().Str("key", key).Msg("Generation rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Muitas requisições. Aguarde um momento e tente novamente."})
		}
		return next(c)
	}
}
