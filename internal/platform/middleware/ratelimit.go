package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int64
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
	}
}

// rateLimiterStore keeps one token bucket per client IP. Buckets idle for
// more than the stale window are evicted on the next sweep.
type rateLimiterStore struct {
	mu       sync.Mutex
	config   RateLimitConfig
	buckets  map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

const staleBucketWindow = 5 * time.Minute

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		config:    cfg,
		buckets:   make(map[string]*clientBucket),
		lastSweep: time.Now(),
	}
}

func (s *rateLimiterStore) getBucket(key string) *ratelimit.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastSweep) > staleBucketWindow {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > staleBucketWindow {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	cb, ok := s.buckets[key]
	if !ok {
		cb = &clientBucket{
			bucket: ratelimit.NewBucketWithRate(s.config.RequestsPerSecond, s.config.BurstSize),
		}
		s.buckets[key] = cb
	}
	cb.lastSeen = now
	return cb.bucket
}

// RateLimit returns a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.getBucket(c.RealIP())
			if bucket.TakeAvailable(1) == 0 {
				c.Response().Header().Set("Retry-After", "1")
				c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
			return next(c)
		}
	}
}
