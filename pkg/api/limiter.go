package api

import (
	"sync"

	"golang.org/x/time/rate"

	"playbackd/pkg/config"
)

// limiterPool hands out one reply limiter per session so a single noisy
// client cannot flood the keyword dispatcher.
type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg config.RateLimit
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 3
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

func (p *limiterPool) drop(key string) {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
}
