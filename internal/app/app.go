// Package app assembles the store, file storage, services and HTTP API
// from an AppConfig.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nhle/taskapp/internal/api"
	"github.com/nhle/taskapp/internal/credential"
	"github.com/nhle/taskapp/internal/files"
	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/service"
	"github.com/nhle/taskapp/internal/store"
)

// App holds the wired services of one running instance.
type App struct {
	cfg    *model.AppConfig
	logger *slog.Logger
	store  *store.SQLStore

	Tasks *service.TaskService
	Tags  *service.TagService
	Files *service.FileService
	Users *service.UserService
}

// New opens the database, applies migrations and builds the services.
func New(ctx context.Context, cfg *model.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != ":memory:" {
		dir := filepath.Dir(cfg.Database.DSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Logger: logger.With("component", "store"),
	})
	if err != nil {
		return nil, err
	}

	fm, err := files.NewManager(cfg.Files.Dir, cfg.Files.CompressionLevel, logger.With("component", "files"))
	if err != nil {
		db.Close()
		return nil, err
	}

	opts := service.Options{Logger: logger}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  db,
		Tasks:  service.NewTaskService(db, fm, opts),
		Tags:   service.NewTagService(db, fm, opts),
		Files:  service.NewFileService(db, fm, opts),
		Users:  service.NewUserService(db, opts),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.store.Close()
}

// Operator is the caller used for administrative commands run from the
// command line.
func (a *App) Operator() model.User {
	return model.User{Username: a.cfg.Admin.Username, Role: model.RoleAdmin}
}

// Bootstrap makes sure the configured administrator account exists. The
// password comes from the configuration or, failing that, from src.
func (a *App) Bootstrap(ctx context.Context, src credential.Source) error {
	username := a.cfg.Admin.Username
	if username == "" {
		return errors.New("admin.username must not be empty")
	}
	password, err := credential.ResolveAdminPassword(src, username, a.cfg.Admin.Password)
	if err != nil {
		return err
	}
	if err := a.Users.EnsureAdmin(ctx, username, password); err != nil {
		return fmt.Errorf("creating admin %s: %w", username, err)
	}
	return nil
}

// Handler returns the HTTP API of the app.
func (a *App) Handler() *api.Server {
	return api.New(api.Config{
		Tasks:  a.Tasks,
		Tags:   a.Tags,
		Files:  a.Files,
		Users:  a.Users,
		Logger: a.logger.With("component", "api"),
	})
}
