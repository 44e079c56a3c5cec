package store

import (
	"context"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
)

// TagReader is the read capability over tags.
type TagReader interface {
	// FindByName returns the tag or an ErrNotFound error.
	FindByName(ctx context.Context, name string) (*model.Tag, error)

	// TryFind returns nil, nil when no tag has that name.
	TryFind(ctx context.Context, name string) (*model.Tag, error)

	// Supply returns the existing tag, or a new unsaved tag with a zero
	// count that the caller persists in the same transaction.
	Supply(ctx context.Context, name string) (*model.Tag, error)

	// ValidateNotExists fails with ErrConflict if the name is taken.
	ValidateNotExists(ctx context.Context, name string) error

	// ListWithTasks returns tags whose count is strictly greater than
	// minCount, ordered by name.
	ListWithTasks(ctx context.Context, minCount int64) ([]model.Tag, error)
}

// TagWriter is the write capability over tags.
type TagWriter interface {
	Save(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, tag *model.Tag) error
}

// AdminTaskReader sees every task regardless of creator.
type AdminTaskReader interface {
	// FindByID resolves a task by ID. owner narrows the lookup and may be
	// empty; an ID shared by several owners then yields ErrConflict.
	FindByID(ctx context.Context, id, owner string) (*model.Task, error)
	FindCurrent(ctx context.Context, date model.Date, page paging.Page) ([]model.Task, error)
	FindAll(ctx context.Context, page paging.Page) ([]model.Task, error)
	FindByTag(ctx context.Context, tag *model.Tag, page paging.Page) ([]model.Task, error)
	FindAllByTag(ctx context.Context, tag *model.Tag) ([]model.Task, error)
}

// UserTaskReader only ever returns tasks created by the given creator.
type UserTaskReader interface {
	ExistsByIDAndCreator(ctx context.Context, id, creator string) (bool, error)
	FindByIDAndCreator(ctx context.Context, id, creator string) (*model.Task, error)
	FindCurrentByCreator(ctx context.Context, date model.Date, creator string, page paging.Page) ([]model.Task, error)
	FindAllByCreator(ctx context.Context, creator string, page paging.Page) ([]model.Task, error)
	FindByTagAndCreator(ctx context.Context, tag *model.Tag, creator string, page paging.Page) ([]model.Task, error)
}

// TaskWriter is shared by both roles.
type TaskWriter interface {
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, task *model.Task) error
	DeleteAll(ctx context.Context, tasks []model.Task) error
}

// FileRepo persists attachment descriptors.
type FileRepo interface {
	Add(ctx context.Context, file *model.FileData) error
	ListForTask(ctx context.Context, key model.TaskKey) ([]model.FileData, error)
}

// UserRepo persists users.
type UserRepo interface {
	Create(ctx context.Context, user model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// Store opens sessions against the backing database. Every call made
// through the Session passed to InTx commits or rolls back as one unit.
type Store interface {
	Session() *Session
	InTx(ctx context.Context, fn func(s *Session) error) error
}
