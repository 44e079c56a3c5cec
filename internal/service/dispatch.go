package service

import (
	"context"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
	"github.com/nhle/taskapp/internal/store"
)

// TaskReader is the role-independent view the services read tasks
// through. Admin and user implementations differ only in scope.
type TaskReader interface {
	FindByID(ctx context.Context, ref model.TaskRef) (*model.Task, error)
	FindCurrent(ctx context.Context, date model.Date, page paging.Page) ([]model.Task, error)
	FindAll(ctx context.Context, page paging.Page) ([]model.Task, error)
	FindByTag(ctx context.Context, tag *model.Tag, page paging.Page) ([]model.Task, error)
}

// readerFor picks the read path for caller. It is the only place reads
// branch on role.
func readerFor(s *store.Session, caller model.User) TaskReader {
	if caller.IsAdmin() {
		return adminReader{tasks: s.AdminTasks()}
	}
	return scopedReader{tasks: s.UserTasks(), creator: caller.Username}
}

// requireAdmin guards admin-only operations.
func requireAdmin(caller model.User, action string) error {
	if !caller.IsAdmin() {
		return model.Errorf(model.ErrForbidden, "%s requires the %s role", action, model.RoleAdmin)
	}
	return nil
}

type adminReader struct {
	tasks store.AdminTaskReader
}

func (r adminReader) FindByID(ctx context.Context, ref model.TaskRef) (*model.Task, error) {
	return r.tasks.FindByID(ctx, ref.ID, ref.Owner)
}

func (r adminReader) FindCurrent(ctx context.Context, date model.Date, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindCurrent(ctx, date, page)
}

func (r adminReader) FindAll(ctx context.Context, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindAll(ctx, page)
}

func (r adminReader) FindByTag(ctx context.Context, tag *model.Tag, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindByTag(ctx, tag, page)
}

// scopedReader binds a creator to every user-scoped query.
type scopedReader struct {
	tasks   store.UserTaskReader
	creator string
}

// FindByID ignores the owner qualifier unless it names someone else, in
// which case the task is as invisible as any other user's task.
func (r scopedReader) FindByID(ctx context.Context, ref model.TaskRef) (*model.Task, error) {
	if ref.Owner != "" && ref.Owner != r.creator {
		return nil, model.Errorf(model.ErrNotFound, "task [%s] not found", ref.ID)
	}
	return r.tasks.FindByIDAndCreator(ctx, ref.ID, r.creator)
}

func (r scopedReader) FindCurrent(ctx context.Context, date model.Date, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindCurrentByCreator(ctx, date, r.creator, page)
}

func (r scopedReader) FindAll(ctx context.Context, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindAllByCreator(ctx, r.creator, page)
}

func (r scopedReader) FindByTag(ctx context.Context, tag *model.Tag, page paging.Page) ([]model.Task, error) {
	return r.tasks.FindByTagAndCreator(ctx, tag, r.creator, page)
}
