package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"playbackd/pkg/catalog"
	"playbackd/pkg/logger"
	"playbackd/pkg/playback"
	"playbackd/pkg/trigger"
	"playbackd/pkg/utils"
)

type createSessionRequest struct {
	Document string `json:"document"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	Document string `json:"document"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Document == "" {
		utils.JSONError(w, http.StatusBadRequest, "document missing")
		return
	}
	doc, err := catalog.GetDocument(req.Document)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "document not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ds, ok := s.scripts.ForDocument(doc.ID)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "no script for document")
		return
	}
	sess := s.manager.Open(doc)
	trig := trigger.New(sess, ds, s.cfg, resolveRule)
	s.mu.Lock()
	s.triggers[sess.ID] = trig
	s.mu.Unlock()
	logger.Info("session_created", "session", sess.ID, "doc", doc.ID)
	_ = utils.JSONWrite(w, http.StatusCreated, sessionResponse{ID: sess.ID, Document: doc.ID})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.manager.Close(id) {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	s.dropSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, _, ok := s.resolveSession(vars["id"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	views, err := sess.Snapshot(vars["thread"])
	if err != nil {
		if errors.Is(err, playback.ErrNoThread) {
			utils.JSONError(w, http.StatusNotFound, "thread not open")
			return
		}
		utils.JSONError(w, http.StatusGone, "session closed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string                 `json:"thread"`
		Messages []playback.MessageView `json:"messages"`
	}{Thread: vars["thread"], Messages: views})
}

func (s *Server) threadVisible(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	_, trig, ok := s.resolveSession(vars["id"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := trig.ThreadVisible(vars["thread"]); err != nil {
		if errors.Is(err, trigger.ErrUnknownThread) {
			utils.JSONError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(w, http.StatusGone, "session closed")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type replyRequest struct {
	Text string `json:"text"`
}

func (s *Server) submitReply(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	_, trig, ok := s.resolveSession(vars["id"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if !s.limiters.Allow(vars["id"]) {
		utils.JSONError(w, http.StatusTooManyRequests, "slow down")
		return
	}
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		utils.JSONError(w, http.StatusBadRequest, "text missing")
		return
	}
	m, err := trig.SubmitReply(vars["thread"], req.Text)
	if err != nil {
		if errors.Is(err, trigger.ErrUnknownThread) {
			utils.JSONError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(w, http.StatusGone, "session closed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, m)
}
