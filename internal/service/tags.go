package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
	"github.com/nhle/taskapp/internal/store"
)

// TagWithTasks is a tag with one page of the tasks under it that the
// caller may see.
type TagWithTasks struct {
	Tag   model.Tag    `json:"tag"`
	Tasks []model.Task `json:"tasks"`
}

// TagService manages tags. Deleting a tag cascades to its tasks.
type TagService struct {
	store  store.Store
	files  FileManager
	logger *slog.Logger
}

// NewTagService creates a TagService.
func NewTagService(s store.Store, fm FileManager, opts Options) *TagService {
	return &TagService{store: s, files: fm, logger: opts.logger()}
}

// GetTagWithTasks returns the named tag and one page of its tasks as seen
// by caller.
func (s *TagService) GetTagWithTasks(
	ctx context.Context,
	name, page, limit string,
	caller model.User,
) (*TagWithTasks, error) {
	p, err := paging.ForTasks(page, limit)
	if err != nil {
		return nil, err
	}

	sess := s.store.Session()
	tag, err := sess.TagReader().FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	tasks, err := readerFor(sess, caller).FindByTag(ctx, tag, p)
	if err != nil {
		return nil, err
	}
	return &TagWithTasks{Tag: *tag, Tasks: tasks}, nil
}

// ListInUse returns every tag that currently has at least one task.
func (s *TagService) ListInUse(ctx context.Context) ([]model.Tag, error) {
	return s.store.Session().TagReader().ListWithTasks(ctx, 0)
}

// Create adds an empty tag.
func (s *TagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	var tag *model.Tag
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		if err := tx.TagReader().ValidateNotExists(ctx, name); err != nil {
			return err
		}
		var err error
		if tag, err = tx.TagReader().Supply(ctx, name); err != nil {
			return err
		}
		return tx.TagWriter().Save(ctx, tag)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag created", "tag", name)
	return tag, nil
}

// Rename moves a tag to a new, unused name.
func (s *TagService) Rename(ctx context.Context, current, next string, caller model.User) (*model.Tag, error) {
	if err := requireAdmin(caller, "renaming a tag"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(next) == "" {
		return nil, model.Errorf(model.ErrBadRequest, "tag name must not be empty")
	}

	var renamed *model.Tag
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		if err := tx.TagReader().ValidateNotExists(ctx, next); err != nil {
			return err
		}
		tag, err := tx.TagReader().FindByName(ctx, current)
		if err != nil {
			return err
		}
		tag.Name = next
		if err := tx.TagWriter().Save(ctx, tag); err != nil {
			return err
		}
		renamed = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag renamed", "from", current, "to", next)
	return renamed, nil
}

// Delete removes a tag together with every task under it, then purges
// those tasks' files.
func (s *TagService) Delete(ctx context.Context, name string, caller model.User) (*model.Tag, error) {
	if err := requireAdmin(caller, "deleting a tag"); err != nil {
		return nil, err
	}

	var (
		deleted *model.Tag
		purged  []model.TaskKey
	)
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		tag, err := tx.TagReader().FindByName(ctx, name)
		if err != nil {
			return err
		}
		tasks, err := tx.AdminTasks().FindAllByTag(ctx, tag)
		if err != nil {
			return err
		}
		if err := tx.TaskWriter().DeleteAll(ctx, tasks); err != nil {
			return err
		}
		if err := tx.TagWriter().Delete(ctx, tag); err != nil {
			return err
		}

		for _, task := range tasks {
			purged = append(purged, task.Key())
		}
		deleted = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	purgeFiles(s.files, s.logger, purged)
	s.logger.Info("tag deleted", "tag", name, "tasks", len(purged))
	return deleted, nil
}

// Reconcile recounts every tag from its tasks and repairs drifted counts.
// It is an operational tool; the hot path never recounts.
func (s *TagService) Reconcile(ctx context.Context, caller model.User) ([]model.TagDrift, error) {
	if err := requireAdmin(caller, "reconciling tag counts"); err != nil {
		return nil, err
	}

	var drift []model.TagDrift
	err := s.store.InTx(ctx, func(tx *store.Session) error {
		var err error
		drift, err = tx.ReconcileTagCounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, d := range drift {
		s.logger.Warn("tag count repaired", "tag", d.Name, "stored", d.Stored, "recounted", d.Recounted)
	}
	return drift, nil
}
