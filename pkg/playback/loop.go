package playback

import (
	"sync"
	"sync/atomic"
	"time"
)

// loop is a single-goroutine run loop. Every piece of playback work —
// reveal ticks, loading dwells, pacing delays, external reads — executes as
// a posted closure, one at a time, so the engine needs no shared-memory
// locking: concurrency is only the temporal interleaving of timers.
//
// All timers are owned by the loop; Close stops every outstanding one, so a
// torn-down session can never fire against a store it no longer owns.
type loop struct {
	ch     chan func()
	quit   chan struct{}
	closed atomic.Bool

	mu     sync.Mutex
	timers map[uint64]*time.Timer
	seq    uint64
}

func newLoop() *loop {
	l := &loop{
		ch:     make(chan func(), 256),
		quit:   make(chan struct{}),
		timers: make(map[uint64]*time.Timer),
	}
	go l.run()
	return l
}

func (l *loop) run() {
	for {
		select {
		case fn := <-l.ch:
			fn()
		case <-l.quit:
			return
		}
	}
}

// post enqueues fn for execution on the loop. Posts against a closed loop
// are dropped.
func (l *loop) post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.ch <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// call runs fn on the loop and waits for it to finish. Must not be invoked
// from within the loop itself.
func (l *loop) call(fn func()) bool {
	done := make(chan struct{})
	if !l.post(func() {
		fn()
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.quit:
		return false
	}
}

// after schedules fn on the loop once d has elapsed and returns a cancel
// func. Callbacks read current state at fire time; values captured at
// schedule time may have been replaced since.
func (l *loop) after(d time.Duration, fn func()) func() {
	if l.closed.Load() {
		return func() {}
	}
	l.mu.Lock()
	l.seq++
	id := l.seq
	t := time.AfterFunc(d, func() {
		l.dropTimer(id)
		l.post(fn)
	})
	l.timers[id] = t
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		if t, ok := l.timers[id]; ok {
			t.Stop()
			delete(l.timers, id)
		}
		l.mu.Unlock()
	}
}

func (l *loop) dropTimer(id uint64) {
	l.mu.Lock()
	delete(l.timers, id)
	l.mu.Unlock()
}

// close stops all timers and stops the loop goroutine. Idempotent.
func (l *loop) close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.mu.Lock()
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.mu.Unlock()
	close(l.quit)
}
