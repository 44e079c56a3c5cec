package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskapp/internal/model"
)

// userStore implements UserRepo.
type userStore struct {
	q sqlx.ExtContext
}

// Create inserts a new user.
func (s *userStore) Create(ctx context.Context, user model.User) error {
	_, err := s.q.ExecContext(ctx,
		s.q.Rebind("INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)"),
		user.Username, user.PasswordHash, string(user.Role),
	)
	if isUniqueViolation(err) {
		return model.Errorf(model.ErrConflict, "user [%s] already exists", user.Username)
	}
	if err != nil {
		return fmt.Errorf("creating user %s: %w", user.Username, err)
	}
	return nil
}

// FindByUsername retrieves a user or an ErrNotFound error.
func (s *userStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, s.q, &user,
		s.q.Rebind("SELECT username, password_hash, role FROM users WHERE username = ?"), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.Errorf(model.ErrNotFound, "user [%s] not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return &user, nil
}
