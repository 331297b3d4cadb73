package playback

import (
	"sync"
	"time"

	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/models"
	"playbackd/pkg/telemetry"
	"playbackd/pkg/utils"
)

// Manager owns all live playback sessions. Each session is fully isolated;
// the manager only tracks membership and idle reaping.
type Manager struct {
	mu       sync.Mutex
	cfg      config.PlaybackConfig
	sessions map[string]*Session
}

func NewManager(cfg config.PlaybackConfig) *Manager {
	return &Manager{cfg: cfg, sessions: make(map[string]*Session)}
}

// Open creates a session scoped to one document.
func (m *Manager) Open(doc models.Document) *Session {
	s := NewSession(utils.GenID("sess"), doc, m.cfg)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	telemetry.SessionsOpened.Inc()
	telemetry.SessionsActive.Inc()
	logger.Info("session_opened", "session", s.ID, "doc", doc.ID)
	return s
}

// Get resolves a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	return s, ok
}

// Close tears a session down and forgets it.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	telemetry.SessionsActive.Dec()
	logger.Info("session_closed", "session", id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepIdle closes sessions that have seen no interaction for maxIdle and
// returns how many were reaped.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()
	for _, id := range stale {
		m.Close(id)
	}
	if len(stale) > 0 {
		logger.Info("sessions_swept", "count", len(stale))
	}
	return len(stale)
}

// CloseAll tears down every session; used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Close(id)
	}
}
