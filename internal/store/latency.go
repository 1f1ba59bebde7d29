package store

import (
	"context"
	"time"
)

// Latency is the simulated round trip added in front of each fixture operation.
type Latency struct {
	GetAll     time.Duration
	GetByID    time.Duration
	Create     time.Duration
	Update     time.Duration
	Delete     time.Duration
	BulkUpdate time.Duration
	Duplicate  time.Duration
	Retry      time.Duration
	Search     time.Duration
	// export creation and run previews simulate heavier work
	ExportCreate time.Duration
	Preview      time.Duration
}

func DefaultLatency() Latency {
	return Latency{
		GetAll:     300 * time.Millisecond,
		GetByID:    200 * time.Millisecond,
		Create:     400 * time.Millisecond,
		Update:     350 * time.Millisecond,
		Delete:     250 * time.Millisecond,
		BulkUpdate: 500 * time.Millisecond,
		Duplicate:  300 * time.Millisecond,
		Retry:      400 * time.Millisecond,
		Search:     400 * time.Millisecond,

		ExportCreate: 500 * time.Millisecond,
		Preview:      2 * time.Second,
	}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Option func(*base)

type base struct {
	lat Latency
	now func() time.Time
}

func WithLatency(l Latency) Option {
	return func(b *base) { b.lat = l }
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func newBase(opts []Option) base {
	b := base{lat: DefaultLatency(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(&b)
	}
	return b
}
