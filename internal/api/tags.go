package api

import (
	"net/http"

	"github.com/nhle/taskapp/internal/model"
)

type tagRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleTagList(w http.ResponseWriter, r *http.Request, _ model.User) {
	tags, err := s.tags.ListInUse(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleTagGet(w http.ResponseWriter, r *http.Request, caller model.User) {
	page, limit := pageParams(r)
	result, err := s.tags.GetTagWithTasks(r.Context(), r.PathValue("name"), page, limit, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if result.Tasks == nil {
		result.Tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTagCreate(w http.ResponseWriter, r *http.Request, _ model.User) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tag, err := s.tags.Create(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleTagRename(w http.ResponseWriter, r *http.Request, caller model.User) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tag, err := s.tags.Rename(r.Context(), r.PathValue("name"), req.Name, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleTagDelete(w http.ResponseWriter, r *http.Request, caller model.User) {
	tag, err := s.tags.Delete(r.Context(), r.PathValue("name"), caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleTagReconcile(w http.ResponseWriter, r *http.Request, caller model.User) {
	drift, err := s.tags.Reconcile(r.Context(), caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if drift == nil {
		drift = []model.TagDrift{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repaired": drift})
}
