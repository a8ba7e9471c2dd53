package httpclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter provides per-endpoint rate limiting using a token bucket,
// one bucket per GraphQL operation name so a slow cost-aggregation scan
// cannot starve feedback pagination.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newHostLimiter(rps float64, burst int) *hostLimiter {
	return &hostLimiter{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (l *hostLimiter) get(op string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[op]
	if ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[op] = lim
	return lim
}

func (l *hostLimiter) wait(ctx context.Context, op string) error {
	return l.get(op).Wait(ctx)
}
