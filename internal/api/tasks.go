package api

import (
	"net/http"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
)

func taskRef(r *http.Request) model.TaskRef {
	return model.TaskRef{ID: r.PathValue("id"), Owner: r.URL.Query().Get("owner")}
}

// pageParams returns the page and limit query values with defaults.
func pageParams(r *http.Request) (string, string) {
	q := r.URL.Query()
	page, limit := q.Get("page"), q.Get("limit")
	if page == "" {
		page = paging.DefaultPage
	}
	if limit == "" {
		limit = paging.DefaultLimit
	}
	return page, limit
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request, caller model.User) {
	var spec model.TaskSpec
	if err := decodeJSON(r, &spec); err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), spec, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request, caller model.User) {
	var patch model.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	task, err := s.tasks.Update(r.Context(), taskRef(r), patch, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request, caller model.User) {
	task, err := s.tasks.Delete(r.Context(), taskRef(r), caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskByDate(w http.ResponseWriter, r *http.Request, caller model.User) {
	page, limit := pageParams(r)
	tasks, err := s.tasks.GetByDate(r.Context(), r.URL.Query().Get("finish_date"), page, limit, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskGrouped(w http.ResponseWriter, r *http.Request, caller model.User) {
	page, limit := pageParams(r)
	grouped, err := s.tasks.GetGroupedByPriority(r.Context(), page, limit, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}
