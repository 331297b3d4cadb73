package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"playbackd/pkg/catalog"
	"playbackd/pkg/models"
	"playbackd/pkg/utils"
)

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := catalog.ListDocuments()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Documents []models.Document `json:"documents"`
	}{Documents: docs})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := catalog.GetDocument(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "document not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rules, err := catalog.ListRules(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rules == nil {
		rules = []models.ValidationRule{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Rules []models.ValidationRule `json:"rules"`
	}{Rules: rules})
}
