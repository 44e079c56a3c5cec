// Package api exposes the task and tag services over HTTP with JSON
// bodies and Basic authentication.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/service"
)

// Config wires the services into a Server.
type Config struct {
	Tasks  *service.TaskService
	Tags   *service.TagService
	Files  *service.FileService
	Users  *service.UserService
	Logger *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	tasks  *service.TaskService
	tags   *service.TagService
	files  *service.FileService
	users  *service.UserService
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		tasks:  cfg.Tasks,
		tags:   cfg.Tags,
		files:  cfg.Files,
		users:  cfg.Users,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Users
	s.mux.HandleFunc("POST /api/v1/users", s.handleUserRegister)

	// Tasks
	s.mux.HandleFunc("GET /api/v1/tasks", s.authed(s.handleTaskGrouped))
	s.mux.HandleFunc("GET /api/v1/tasks/byDate", s.authed(s.handleTaskByDate))
	s.mux.HandleFunc("POST /api/v1/tasks", s.authed(s.handleTaskCreate))
	s.mux.HandleFunc("PUT /api/v1/tasks/{id}", s.authed(s.handleTaskUpdate))
	s.mux.HandleFunc("DELETE /api/v1/tasks/{id}", s.authed(s.handleTaskDelete))

	// Tags
	s.mux.HandleFunc("GET /api/v1/tags", s.authed(s.handleTagList))
	s.mux.HandleFunc("POST /api/v1/tags", s.authed(s.handleTagCreate))
	s.mux.HandleFunc("POST /api/v1/tags/reconcile", s.authed(s.handleTagReconcile))
	s.mux.HandleFunc("GET /api/v1/tags/{name}", s.authed(s.handleTagGet))
	s.mux.HandleFunc("PUT /api/v1/tags/{name}", s.authed(s.handleTagRename))
	s.mux.HandleFunc("DELETE /api/v1/tags/{name}", s.authed(s.handleTagDelete))

	// Files
	s.mux.HandleFunc("GET /api/v1/files/{task}", s.authed(s.handleFileList))
	s.mux.HandleFunc("POST /api/v1/files/{task}", s.authed(s.handleFileUpload))
	s.mux.HandleFunc("GET /api/v1/files/{task}/{file}", s.authed(s.handleFileDownload))

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests. ready, if non-nil, receives the bound address.
func (s *Server) Serve(ctx context.Context, addr string, ready chan<- net.Addr) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	if ready != nil {
		ready <- listener.Addr()
	}

	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	s.logger.Info("http server listening", "address", listener.Addr().String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type callerHandler func(w http.ResponseWriter, r *http.Request, caller model.User)

// authed resolves the Basic credentials of the request into a caller.
func (s *Server) authed(next callerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="taskapp"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		caller, err := s.users.Authenticate(r.Context(), username, password)
		if err != nil {
			if errors.Is(err, model.ErrUnauthorized) {
				w.Header().Set("WWW-Authenticate", `Basic realm="taskapp"`)
			}
			s.fail(w, r, err)
			return
		}
		next(w, r, *caller)
	}
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch model.KindOf(err) {
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrConflict:
		return http.StatusConflict
	case model.ErrBadRequest:
		return http.StatusBadRequest
	case model.ErrForbidden:
		return http.StatusForbidden
	case model.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err to the client. Unclassified errors are logged and
// hidden behind a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.Errorf(model.ErrBadRequest, "invalid JSON: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("write json", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
