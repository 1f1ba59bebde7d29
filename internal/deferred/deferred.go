// Package deferred runs delayed completions that can be superseded or cancelled.
package deferred

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Token identifies one scheduled completion. Zero is never issued.
type Token uint64

type task struct {
	token  Token
	cancel context.CancelFunc
}

// Queue holds at most one pending task per key. Scheduling a key again
// supersedes the pending task; superseded and cancelled tasks never run.
type Queue struct {
	log *zap.Logger

	mu     sync.Mutex
	tasks  map[string]task
	next   Token
	closed bool
	wg     sync.WaitGroup
}

func New(log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{log: log.Named("deferred"), tasks: map[string]task{}}
}

// Schedule runs fn after delay unless key is rescheduled, cancelled or the
// queue is closed first. It returns 0 once the queue is closed.
func (q *Queue) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) Token {
	return q.ScheduleGated(key, delay, nil, fn)
}

// ScheduleGated is Schedule with a gate that runs after the delay and before
// the task is claimed. The task stays pending while gate blocks, so
// superseding, cancelling or closing still stops it. When gate returns an
// error the task is dropped without running fn.
func (q *Queue) ScheduleGated(key string, delay time.Duration, gate func(ctx context.Context) error, fn func(ctx context.Context)) Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	if old, ok := q.tasks[key]; ok {
		old.cancel()
		q.log.Debug("superseded", zap.String("key", key), zap.Uint64("token", uint64(old.token)))
	}
	q.next++
	tok := q.next
	ctx, cancel := context.WithCancel(context.Background())
	q.tasks[key] = task{token: tok, cancel: cancel}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer cancel()

		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if gate != nil {
			if err := gate(ctx); err != nil {
				q.claim(key, tok)
				return
			}
		}
		if !q.claim(key, tok) {
			return
		}
		fn(ctx)
	}()
	return tok
}

// claim removes the task for key if tok is still the current one.
func (q *Queue) claim(key string, tok Token) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	cur, ok := q.tasks[key]
	if !ok || cur.token != tok || q.closed {
		return false
	}
	delete(q.tasks, key)
	return true
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (q *Queue) Cancel(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	cur, ok := q.tasks[key]
	if !ok {
		return false
	}
	cur.cancel()
	delete(q.tasks, key)
	return true
}

// Current returns the pending token for key, or 0.
func (q *Queue) Current(key string) Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks[key].token
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close cancels everything pending and waits for running completions to return.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	for key, t := range q.tasks {
		t.cancel()
		delete(q.tasks, key)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
