// Package trigger decides when pre-authored message batches enter a
// session's transcript: a debounced visibility hook for scripted threads
// and a keyword dispatcher for user replies.
package trigger

import (
	"fmt"
	"sync"
	"time"

	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/models"
	"playbackd/pkg/playback"
	"playbackd/pkg/script"
	"playbackd/pkg/telemetry"
	"playbackd/pkg/utils"
)

// ErrUnknownThread is returned for thread ids the document's script does
// not define.
var ErrUnknownThread = fmt.Errorf("no script for thread")

// Resolver runs a thread's terminal side effect (e.g. flip a validation
// rule to resolved). It is invoked at most once per thread per session.
type Resolver func(docID, ruleID string)

type threadFlags struct {
	pending  bool
	injected bool
}

// Trigger binds one session to its document script.
type Trigger struct {
	s       *playback.Session
	ds      script.DocumentScript
	cfg     config.PlaybackConfig
	resolve Resolver

	mu    sync.Mutex
	flags map[string]*threadFlags
}

func New(s *playback.Session, ds script.DocumentScript, cfg config.PlaybackConfig, resolve Resolver) *Trigger {
	return &Trigger{s: s, ds: ds, cfg: cfg, resolve: resolve, flags: make(map[string]*threadFlags)}
}

func (t *Trigger) threadFlags(id string) *threadFlags {
	f, ok := t.flags[id]
	if !ok {
		f = &threadFlags{}
		t.flags[id] = f
	}
	return f
}

// ThreadVisible injects the thread's scripted batch after the visibility
// debounce. Rapid visibility toggles within the window inject once, and
// re-triggering an already populated thread is a safe no-op because the
// insert itself is idempotent.
func (t *Trigger) ThreadVisible(threadID string) error {
	sc, ok := t.ds.Thread(threadID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	if t.s.Closed() {
		return playback.ErrClosed
	}
	t.mu.Lock()
	f := t.threadFlags(threadID)
	if f.pending || f.injected {
		t.mu.Unlock()
		return nil
	}
	f.pending = true
	t.mu.Unlock()

	t.s.Schedule(t.cfg.VisibilityDebounce.Duration(), func() {
		t.mu.Lock()
		f.pending = false
		f.injected = true
		t.mu.Unlock()
		t.s.Inject(threadID, t.stamped(sc.Messages), t.completionFor(sc))
	})
	return nil
}

// SubmitReply appends exactly one user message (already delivered, no
// animation) and, when the text matches a scripted responder, one further
// assistant message after the reply delay.
func (t *Trigger) SubmitReply(threadID, text string) (models.Message, error) {
	sc, ok := t.ds.Thread(threadID)
	if !ok {
		return models.Message{}, fmt.Errorf("%w: %s", ErrUnknownThread, threadID)
	}
	m := models.Message{
		ID:         utils.GenID("msg"),
		Sender:     models.SenderUser,
		Text:       text,
		Phases:     []models.Phase{{Kind: models.PhaseSuccess}},
		CreatedTS:  time.Now().UTC().UnixNano(),
		ShowSender: true,
	}
	var aerr error
	if err := t.s.Do(func() { aerr = t.s.Append(threadID, m) }); err != nil {
		return models.Message{}, err
	}
	if aerr != nil {
		return models.Message{}, aerr
	}
	telemetry.RepliesSubmitted.Inc()

	for _, r := range sc.Replies {
		if !r.Match(text) {
			continue
		}
		delay := r.Delay.Duration()
		if delay == 0 {
			delay = t.cfg.ReplyDelay.Duration()
		}
		resp := r.Message
		t.s.Schedule(delay, func() {
			if err := t.s.Append(threadID, t.stampOne(resp)); err != nil {
				logger.Warn("responder_append_failed", "thread", threadID, "error", err)
			}
		})
		break
	}
	return m, nil
}

// completionFor builds the one-shot terminal effect for a scripted thread.
func (t *Trigger) completionFor(sc script.Thread) func() {
	if sc.ResolvesRule == "" || t.resolve == nil {
		return nil
	}
	docID := t.s.Doc.ID
	ruleID := sc.ResolvesRule
	return func() {
		logger.Info("thread_complete", "session", t.s.ID, "doc", docID, "rule", ruleID)
		t.resolve(docID, ruleID)
	}
}

// stamped fills creation timestamps on a scripted batch; authored scripts
// rarely carry them.
func (t *Trigger) stamped(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		out[i] = t.stampOne(m)
	}
	return out
}

func (t *Trigger) stampOne(m models.Message) models.Message {
	if m.CreatedTS == 0 {
		m.CreatedTS = time.Now().UTC().UnixNano()
	}
	return m
}
