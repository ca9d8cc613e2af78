package mw

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jujucrew/jubot/internal/utils"
)

type RateLimitConfig struct {
	Burst      int
	PerMinute  int
	IdleTTL    time.Duration
	TrustProxy bool // resolve IP from proxy headers when true
	sweepEvery time.Duration
}

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.PerMinute < 1 {
		cfg.PerMinute = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.sweepEvery <= 0 {
		cfg.sweepEvery = time.Minute
	}
	return &ipLimiter{
		cfg:       cfg,
		buckets:   make(map[string]*ipBucket, 64),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.sweepEvery {
		for ip, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
				delete(l.buckets, ip)
			}
		}
		l.lastSweep = now
	}

	b := l.buckets[key]
	if b == nil {
		b = &ipBucket{
			lim: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60.0), l.cfg.Burst),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// RateLimit applies a per-client-IP token bucket to the wrapped routes.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)
			if !l.allow(key, time.Now()) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
