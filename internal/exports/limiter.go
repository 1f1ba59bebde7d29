package exports

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"siftin-engine/internal/domain"
)

// DestinationLimiter paces deliveries per destination so a burst of exports
// to one CRM does not settle all at once.
type DestinationLimiter struct {
	mu sync.Mutex
	m  map[domain.Destination]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewDestinationLimiter with perSec <= 0 never waits.
func NewDestinationLimiter(perSec float64, burst int) *DestinationLimiter {
	r := rate.Limit(perSec)
	if perSec <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &DestinationLimiter{
		m: make(map[domain.Destination]*rate.Limiter),
		r: r,
		b: burst,
	}
}

func (dl *DestinationLimiter) limiterFor(d domain.Destination) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if lim, ok := dl.m[d]; ok {
		return lim
	}
	lim := rate.NewLimiter(dl.r, dl.b)
	dl.m[d] = lim
	return lim
}

func (dl *DestinationLimiter) Wait(ctx context.Context, d domain.Destination) error {
	return dl.limiterFor(d).Wait(ctx)
}
