package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
	"github.com/nhle/taskapp/internal/store"
)

// TaskService creates, updates, deletes and lists tasks while keeping
// tag counts exact.
type TaskService struct {
	store  store.Store
	files  FileManager
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(s store.Store, fm FileManager, opts Options) *TaskService {
	return &TaskService{
		store:  s,
		files:  fm,
		logger: opts.logger(),
		now:    opts.clock(),
	}
}

func (s *TaskService) today() model.Date {
	return model.DateOf(s.now())
}

// Create stores a new task owned by caller and counts it against its tag,
// creating the tag if the name is new.
func (s *TaskService) Create(ctx context.Context, spec model.TaskSpec, caller model.User) (*model.Task, error) {
	if err := model.ValidateTaskID(spec.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Description) == "" {
		return nil, model.Errorf(model.ErrBadRequest, "task description must not be empty")
	}

	var created *model.Task
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		exists, err := tx.UserTasks().ExistsByIDAndCreator(ctx, spec.ID, caller.Username)
		if err != nil {
			return err
		}
		if exists {
			return model.Errorf(model.ErrConflict, "task with identifier [%s] already exists", spec.ID)
		}

		today := s.today()
		if spec.FinishDate.IsZero() {
			return model.Errorf(model.ErrBadRequest, "finish date is required")
		}
		if spec.FinishDate.Before(today) {
			return model.Errorf(model.ErrBadRequest,
				"finish date %s cannot be earlier than today's date %s", spec.FinishDate, today)
		}

		priority, err := model.ParsePriorityFold(spec.Priority)
		if err != nil {
			return err
		}

		tag, err := tx.TagReader().Supply(ctx, spec.Tag)
		if err != nil {
			return err
		}
		tag.AddTask()
		if err := tx.TagWriter().Save(ctx, tag); err != nil {
			return err
		}

		task := &model.Task{
			ID:          spec.ID,
			Creator:     caller.Username,
			Description: spec.Description,
			Priority:    priority,
			CreatedAt:   today,
			FinishDate:  spec.FinishDate,
			Tag:         tag,
		}
		if err := tx.TaskWriter().Save(ctx, task); err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", "task", created.Key().String(), "tag", created.Tag.Name)
	return created, nil
}

// Update applies the supplied fields of patch to a task visible to caller.
// Moving a task to another tag moves one unit of count with it.
func (s *TaskService) Update(
	ctx context.Context,
	ref model.TaskRef,
	patch model.TaskPatch,
	caller model.User,
) (*model.Task, error) {
	var updated *model.Task
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		task, err := readerFor(tx, caller).FindByID(ctx, ref)
		if err != nil {
			return err
		}

		if patch.FinishDate != nil {
			today := s.today()
			if patch.FinishDate.Before(today) {
				return model.Errorf(model.ErrBadRequest,
					"finish date %s cannot be earlier than today's date %s", *patch.FinishDate, today)
			}
			task.FinishDate = *patch.FinishDate
		}

		if patch.Priority != nil {
			priority, err := model.ParsePriority(*patch.Priority)
			if err != nil {
				return err
			}
			task.Priority = priority
		}

		if patch.Description != nil {
			if strings.TrimSpace(*patch.Description) == "" {
				return model.Errorf(model.ErrBadRequest, "task description must not be empty")
			}
			task.Description = *patch.Description
		}

		if patch.Tag != nil {
			if err := s.retag(ctx, tx, task, *patch.Tag); err != nil {
				return err
			}
		}

		if err := tx.TaskWriter().Save(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task", updated.Key().String())
	return updated, nil
}

// retag moves task to the tag called name. The old tag is decremented
// whether or not the new tag already existed.
func (s *TaskService) retag(ctx context.Context, tx *store.Session, task *model.Task, name string) error {
	next, err := tx.TagReader().TryFind(ctx, name)
	if err != nil {
		return err
	}
	if next == nil {
		if next, err = tx.TagReader().Supply(ctx, name); err != nil {
			return err
		}
	}
	if next.ID == task.Tag.ID {
		return nil
	}

	prev := task.Tag
	prev.RemoveTask()
	next.AddTask()
	if err := tx.TagWriter().Save(ctx, prev); err != nil {
		return err
	}
	if err := tx.TagWriter().Save(ctx, next); err != nil {
		return err
	}
	task.Tag = next
	return nil
}

// Delete removes a task visible to caller, releases its tag count and
// purges its files once the deletion has committed.
func (s *TaskService) Delete(ctx context.Context, ref model.TaskRef, caller model.User) (*model.Task, error) {
	var deleted *model.Task
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		task, err := readerFor(tx, caller).FindByID(ctx, ref)
		if err != nil {
			return err
		}

		task.Tag.RemoveTask()
		if err := tx.TagWriter().Save(ctx, task.Tag); err != nil {
			return err
		}
		if err := tx.TaskWriter().Delete(ctx, task); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	purgeFiles(s.files, s.logger, []model.TaskKey{deleted.Key()})
	s.logger.Info("task deleted", "task", deleted.Key().String(), "tag", deleted.Tag.Name)
	return deleted, nil
}

// GetByDate lists tasks visible to caller that finish on or after date.
func (s *TaskService) GetByDate(
	ctx context.Context,
	date, page, limit string,
	caller model.User,
) ([]model.Task, error) {
	from, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	p, err := paging.ForTasks(page, limit)
	if err != nil {
		return nil, err
	}
	return readerFor(s.store.Session(), caller).FindCurrent(ctx, from, p)
}

// GetGroupedByPriority lists one page of tasks visible to caller, grouped
// by priority. Priorities without tasks are absent from the result.
func (s *TaskService) GetGroupedByPriority(
	ctx context.Context,
	page, limit string,
	caller model.User,
) (map[model.Priority][]model.Task, error) {
	p, err := paging.ForTasks(page, limit)
	if err != nil {
		return nil, err
	}
	tasks, err := readerFor(s.store.Session(), caller).FindAll(ctx, p)
	if err != nil {
		return nil, err
	}

	grouped := make(map[model.Priority][]model.Task)
	for _, task := range tasks {
		grouped[task.Priority] = append(grouped[task.Priority], task)
	}
	return grouped, nil
}
