package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/store"
)

const minPasswordLength = 8

// UserService registers and authenticates callers.
type UserService struct {
	store  store.Store
	logger *slog.Logger
	cost   int
}

// NewUserService creates a UserService.
func NewUserService(s store.Store, opts Options) *UserService {
	return &UserService{store: s, logger: opts.logger(), cost: bcrypt.DefaultCost}
}

// Register creates a user with the given role.
func (s *UserService) Register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.Errorf(model.ErrBadRequest, "username must not be empty")
	}
	if username == "." || username == ".." || strings.ContainsAny(username, "/\\:\x00") {
		return nil, model.Errorf(model.ErrBadRequest, "username %q contains invalid characters", username)
	}
	if len(password) < minPasswordLength {
		return nil, model.Errorf(model.ErrBadRequest, "password must be at least %d characters", minPasswordLength)
	}
	if role == "" {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	user := model.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.store.Session().Users().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user", username, "role", string(role))
	return &user, nil
}

// Authenticate checks a username and password pair. Every mismatch is
// reported as ErrUnauthorized so callers cannot probe for usernames.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.store.Session().Users().FindByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.Errorf(model.ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.Errorf(model.ErrUnauthorized, "invalid credentials")
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator unless a user with
// that name already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.store.Session().Users().FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	_, err = s.Register(ctx, username, password, model.RoleAdmin)
	if errors.Is(err, model.ErrConflict) {
		return nil
	}
	return err
}
