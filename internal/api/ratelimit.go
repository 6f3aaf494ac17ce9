package api

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused member limiter is kept
const limiterIdle = 10 * time.Minute

// memberLimiter hands out one token bucket per member
type memberLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *gocache.Cache
}

func newMemberLimiter(perSecond float64, burst int) *memberLimiter {
	return &memberLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: gocache.New(limiterIdle, limiterIdle),
	}
}

// Allow reports whether memberID may perform another mutation now
func (l *memberLimiter) Allow(memberID string) bool {
	l.mu.Lock()
	var lim *rate.Limiter
	if v, ok := l.limiters.Get(memberID); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	// Refresh the idle expiry on every use
	l.limiters.SetDefault(memberID, lim)
	l.mu.Unlock()

	return lim.Allow()
}
