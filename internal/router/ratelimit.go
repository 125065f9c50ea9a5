package router

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = time.Hour
	limiterSweepInterval = 10 * time.Minute
)

// IPRateLimiter keeps one token bucket per client and implements
// middleware.RateLimiterStore.
type IPRateLimiter struct {
	limit     rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
	lastSeen  map[string]time.Time
	lastSweep time.Time
	mutex     sync.Mutex
	now       func() time.Time
}

var _ middleware.RateLimiterStore = (*IPRateLimiter)(nil)

// NewIPRateLimiter allows perSecond requests per client with the given burst.
func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
		lastSeen:  make(map[string]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether the client may make another request now.
func (rl *IPRateLimiter) Allow(identifier string) (bool, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterSweepInterval {
		rl.cleanup(now)
	}

	limiter, exists := rl.limiters[identifier]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[identifier] = limiter
	}
	rl.lastSeen[identifier] = now

	return limiter.AllowN(now, 1), nil
}

// cleanup removes limiters idle for more than an hour. Caller holds the mutex.
func (rl *IPRateLimiter) cleanup(now time.Time) {
	for ip, t := range rl.lastSeen {
		if now.Sub(t) > limiterIdleTTL {
			delete(rl.limiters, ip)
			delete(rl.lastSeen, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *IPRateLimiter) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.limiters)
}
