// Package playback hosts the scripted conversation playback engine: per
// session, a single-goroutine run loop drives typewriter reveals, message
// lifecycle phases and chain advancement across a set of per-thread
// transcript stores.
package playback

import (
	"fmt"
	"sync/atomic"
	"time"

	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/models"
	"playbackd/pkg/telemetry"
	"playbackd/pkg/transcript"
)

// ErrClosed is returned for operations against a torn-down session.
var ErrClosed = fmt.Errorf("playback session closed")

// ErrNoThread is returned when a thread cannot be resolved. This is the
// programmer-error class: it surfaces loudly instead of stalling silently.
var ErrNoThread = fmt.Errorf("thread not open in session")

// completion is the one-shot terminal effect registered for a scripted
// thread: it runs exactly once, when the chain's last message is delivered.
type completion struct {
	lastID string
	fired  bool
	fn     func()
}

type threadState struct {
	store    *transcript.Store
	drivers  map[string]*driver
	complete *completion
}

// Session scopes all playback state to one open document. It replaces the
// original demo's process-wide mutable session globals: two sessions never
// share a store, a timer or a flag, so independent transcripts cannot
// cross-contaminate.
type Session struct {
	ID  string
	Doc models.Document

	cfg        config.PlaybackConfig
	loop       *loop
	threads    map[string]*threadState
	lastActive atomic.Int64
}

// NewSession starts the session run loop.
func NewSession(id string, doc models.Document, cfg config.PlaybackConfig) *Session {
	s := &Session{
		ID:      id,
		Doc:     doc,
		cfg:     cfg,
		loop:    newLoop(),
		threads: make(map[string]*threadState),
	}
	s.touch()
	return s
}

func (s *Session) touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive returns the time of the last external interaction.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Close tears the session down: every outstanding timer is cancelled and no
// further displayed-text change or phase advancement can occur.
func (s *Session) Close() { s.loop.close() }

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool { return s.loop.closed.Load() }

// Do runs fn synchronously on the session loop. It returns ErrClosed when
// the session is gone. Must not be called from within the loop; loop-side
// code calls its target directly.
func (s *Session) Do(fn func()) error {
	s.touch()
	if !s.loop.call(fn) {
		return ErrClosed
	}
	return nil
}

// Schedule runs fn on the session loop after d. The returned cancel func is
// safe to call at any time.
func (s *Session) Schedule(d time.Duration, fn func()) func() {
	return s.loop.after(d, fn)
}

// thread returns (or lazily opens) the state for a thread id. Loop context.
func (s *Session) thread(id string) *threadState {
	st, ok := s.threads[id]
	if !ok {
		st = &threadState{store: transcript.New(id), drivers: make(map[string]*driver)}
		s.threads[id] = st
	}
	return st
}

// lookup resolves an already-open thread. Loop context.
func (s *Session) lookup(id string) (*threadState, error) {
	st, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoThread, id)
	}
	return st, nil
}

// Inject performs the idempotent batch insert for a scripted thread and
// attaches a playback driver to every newly added message. An optional
// onComplete effect runs exactly once after the batch's last message is
// delivered. Loop context (call inside Do or Schedule).
func (s *Session) Inject(threadID string, msgs []models.Message, onComplete func()) transcript.BatchResult {
	st := s.thread(threadID)
	res := st.store.InsertBatch(msgs)
	for _, id := range res.Added {
		m, _ := st.store.Get(id)
		s.attach(st, m)
	}
	if onComplete != nil && st.complete == nil && len(msgs) > 0 {
		st.complete = &completion{lastID: msgs[len(msgs)-1].ID, fn: onComplete}
	}
	if n := len(res.Added); n > 0 {
		telemetry.MessagesInjected.Add(float64(n))
		logger.Info("thread_injected", "session", s.ID, "thread", threadID, "added", n, "already", len(res.AlreadyPresent))
	}
	s.checkCompletion(st)
	return res
}

// Append inserts a single message at the end of the thread. Loop context.
func (s *Session) Append(threadID string, m models.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	st := s.thread(threadID)
	res := st.store.InsertBatch([]models.Message{m})
	if len(res.Added) == 0 {
		return nil // id already present, idempotent no-op
	}
	got, _ := st.store.Get(m.ID)
	s.attach(st, got)
	telemetry.MessagesInjected.Inc()
	return nil
}

// attach builds the reveal engine and chain driver for one message
// instance. Messages pre-seeded as already delivered skip animation and
// snap to their full text.
func (s *Session) attach(st *threadState, m models.Message) {
	d := newDriver(s, st, m)
	st.drivers[m.ID] = d
	d.reconcile()
}

// checkCompletion fires the thread's registered terminal effect when the
// last message of the injected batch has reached success. The fired flag
// makes this exactly-once even under re-entrant advancement reports.
func (s *Session) checkCompletion(st *threadState) {
	c := st.complete
	if c == nil || c.fired {
		return
	}
	m, ok := st.store.Get(c.lastID)
	if !ok || !m.Delivered() {
		return
	}
	c.fired = true
	telemetry.ThreadsCompleted.Inc()
	c.fn()
}

// Messages returns the raw transcript in insertion order. Safe from any
// goroutine.
func (s *Session) Messages(threadID string) ([]models.Message, error) {
	var out []models.Message
	var lerr error
	err := s.Do(func() {
		st, e := s.lookup(threadID)
		if e != nil {
			lerr = e
			return
		}
		out = st.store.Values()
	})
	if err != nil {
		return nil, err
	}
	return out, lerr
}
