// Package api exposes the playback engine over HTTP. The UI polls
// transcript snapshots; all engine work happens on session run loops.
package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"playbackd/pkg/catalog"
	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/playback"
	"playbackd/pkg/script"
	"playbackd/pkg/trigger"
)

// Server wires sessions, scripts and the catalog behind the v1 routes.
type Server struct {
	cfg      config.PlaybackConfig
	manager  *playback.Manager
	scripts  *script.Set
	limiters *limiterPool

	mu       sync.Mutex
	triggers map[string]*trigger.Trigger
}

func NewServer(cfg config.PlaybackConfig, m *playback.Manager, s *script.Set) *Server {
	return &Server{
		cfg:      cfg,
		manager:  m,
		scripts:  s,
		limiters: &limiterPool{cfg: cfg.ReplyRate},
		triggers: make(map[string]*trigger.Trigger),
	}
}

// Register mounts all v1 routes on the router.
func (s *Server) Register(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/threads/{thread}", s.getTranscript).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/threads/{thread}/visible", s.threadVisible).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/threads/{thread}/replies", s.submitReply).Methods(http.MethodPost)

	v1.HandleFunc("/documents", s.listDocuments).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}", s.getDocument).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}/rules", s.listRules).Methods(http.MethodGet)
}

// resolveSession fetches the session and its trigger, reaping the trigger
// entry when the session is already gone (e.g. swept while idle).
func (s *Server) resolveSession(id string) (*playback.Session, *trigger.Trigger, bool) {
	sess, ok := s.manager.Get(id)
	if !ok || sess.Closed() {
		s.mu.Lock()
		delete(s.triggers, id)
		s.mu.Unlock()
		s.limiters.drop(id)
		return nil, nil, false
	}
	s.mu.Lock()
	trig := s.triggers[id]
	s.mu.Unlock()
	if trig == nil {
		return nil, nil, false
	}
	return sess, trig, true
}

func (s *Server) dropSession(id string) {
	s.mu.Lock()
	delete(s.triggers, id)
	s.mu.Unlock()
	s.limiters.drop(id)
}

// resolveRule is the terminal thread effect: mark the rule resolved in the
// catalog. Failures are logged, never surfaced; the chat has already played
// out by the time this runs.
func resolveRule(docID, ruleID string) {
	if err := catalog.ResolveRule(docID, ruleID); err != nil {
		logger.Error("rule_resolve_failed", "doc", docID, "rule", ruleID, "error", err)
	}
}
