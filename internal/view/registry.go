package view

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"siftin-engine/internal/domain"
)

// Registry holds the open views by session id.
type Registry struct {
	src      LeadSource
	pageSize int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*entry
}

type entry struct {
	c        *Controller
	lastSeen time.Time
}

func NewRegistry(src LeadSource, pageSize int, ttl time.Duration) *Registry {
	return &Registry{
		src:      src,
		pageSize: pageSize,
		ttl:      ttl,
		now:      time.Now,
		views:    map[string]*entry{},
	}
}

// Open creates an empty controller. The caller loads it.
func (r *Registry) Open() (string, *Controller) {
	id := uuid.NewString()
	c := NewController(r.src, r.pageSize)
	r.mu.Lock()
	r.views[id] = &entry{c: c, lastSeen: r.now()}
	r.mu.Unlock()
	return id, c
}

// Get returns the view and marks it as recently used.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[id]
	if !ok {
		return nil, viewNotFound(id)
	}
	e.lastSeen = r.now()
	return e.c, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return viewNotFound(id)
	}
	delete(r.views, id)
	return nil
}

// Sweep drops views idle longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.views {
		if e.lastSeen.Before(cutoff) {
			delete(r.views, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

type sessionNotFound struct{ id string }

func (e sessionNotFound) Error() string { return "view " + e.id + " not found" }
func (e sessionNotFound) Is(target error) bool { return target == domain.ErrNotFound }

func viewNotFound(id string) error { return sessionNotFound{id: id} }
