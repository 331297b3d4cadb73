// Package transcript holds the ordered, deduplicated message collection for
// one conversation thread. Insertion order is the display order. The chain
// between messages is recorded explicitly at insert time (successor links),
// so display-side filtering or reordering can never corrupt advancement.
package transcript

import (
	"fmt"

	"playbackd/pkg/models"
)

// ErrNotFound is returned by Replace when the target id is absent; Replace
// is not an upsert.
var ErrNotFound = fmt.Errorf("message not found in transcript")

// BatchResult reports, per id, whether InsertBatch added the message or
// found it already present.
type BatchResult struct {
	Added          []string `json:"added"`
	AlreadyPresent []string `json:"already_present"`
}

// Store is an ordered mapping from message id to message. It is not
// goroutine-safe; the owning session serializes all access on its run loop.
type Store struct {
	thread string
	order  []string
	byID   map[string]models.Message
	next   map[string]string
	tail   string
}

// New returns an empty store scoped to one thread.
func New(thread string) *Store {
	return &Store{thread: thread, byID: make(map[string]models.Message), next: make(map[string]string)}
}

// Thread returns the owning thread id.
func (s *Store) Thread() string { return s.thread }

// Len returns the number of messages.
func (s *Store) Len() int { return len(s.order) }

// InsertBatch adds each message whose id is absent and never overwrites an
// existing one. The result tells the caller, per id, whether it was newly
// added or already present; inserting the same batch twice is a no-op.
func (s *Store) InsertBatch(msgs []models.Message) BatchResult {
	var res BatchResult
	for _, m := range msgs {
		if _, ok := s.byID[m.ID]; ok {
			res.AlreadyPresent = append(res.AlreadyPresent, m.ID)
			continue
		}
		m.Thread = s.thread
		s.byID[m.ID] = m
		s.order = append(s.order, m.ID)
		if s.tail != "" {
			s.next[s.tail] = m.ID
		}
		s.tail = m.ID
		res.Added = append(res.Added, m.ID)
	}
	return res
}

// Replace unconditionally overwrites the message at its id. It fails when
// the id is not already present.
func (s *Store) Replace(m models.Message) error {
	if _, ok := s.byID[m.ID]; !ok {
		return fmt.Errorf("%w: thread=%s id=%s", ErrNotFound, s.thread, m.ID)
	}
	m.Thread = s.thread
	s.byID[m.ID] = m
	return nil
}

// Get returns the latest value for an id.
func (s *Store) Get(id string) (models.Message, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Successor returns the message that follows id in the authored chain. The
// link was recorded at insert time, not derived from the current slice.
func (s *Store) Successor(id string) (models.Message, bool) {
	nid, ok := s.next[id]
	if !ok {
		return models.Message{}, false
	}
	return s.Get(nid)
}

// Values returns all messages in insertion order.
func (s *Store) Values() []models.Message {
	out := make([]models.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Last returns the most recently inserted message.
func (s *Store) Last() (models.Message, bool) {
	if s.tail == "" {
		return models.Message{}, false
	}
	return s.Get(s.tail)
}
