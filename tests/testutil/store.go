package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, s store.Store, username string, role model.Role) model.User {
	t.Helper()

	u := model.User{Username: username, PasswordHash: "x", Role: role}
	if err := s.Session().Users().Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u
}

// Today is the fixed "now" used by service tests.
var Today = model.DateOf(time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC))

// Clock returns a clock function pinned to Today.
func Clock() func() time.Time {
	return func() time.Time { return Today.Time.Add(9 * time.Hour) }
}
