package api

import (
	"net/http"

	"github.com/nhle/taskapp/internal/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleUserRegister creates a USER account. Administrators are only
// created from the command line.
func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.users.Register(r.Context(), req.Username, req.Password, model.RoleUser)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
