package config

import (
	"sync"
	"sync/atomic"
)

// Live holds the current config and notifies subscribers when it is replaced.
type Live struct {
	v atomic.Pointer[Config]

	mu   sync.Mutex
	subs []func(Config)
}

func NewLive(cfg Config) *Live {
	l := &Live{}
	l.v.Store(&cfg)
	return l
}

func (l *Live) Get() Config {
	return *l.v.Load()
}

func (l *Live) Set(cfg Config) {
	l.v.Store(&cfg)
	l.mu.Lock()
	subs := append([]func(Config){}, l.subs...)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}

// OnChange registers fn to run after every Set.
func (l *Live) OnChange(fn func(Config)) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	l.mu.Unlock()
}
