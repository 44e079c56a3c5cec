package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskapp/internal/model"
)

// tagStore implements TagReader and TagWriter.
type tagStore struct {
	q sqlx.ExtContext
}

// FindByName retrieves a tag by its unique name.
func (s *tagStore) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := s.TryFind(ctx, name)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, model.Errorf(model.ErrNotFound, "tag [%s] not found", name)
	}
	return tag, nil
}

// TryFind retrieves a tag by name, returning nil when it does not exist.
func (s *tagStore) TryFind(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := sqlx.GetContext(ctx, s.q, &tag,
		s.q.Rebind("SELECT id, name, task_count FROM tags WHERE name = ?"), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %s: %w", name, err)
	}
	return &tag, nil
}

// Supply returns the named tag, or a new zero-count tag that is not yet
// persisted.
func (s *tagStore) Supply(ctx context.Context, name string) (*model.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.Errorf(model.ErrBadRequest, "tag name must not be empty")
	}
	tag, err := s.TryFind(ctx, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	return &model.Tag{ID: uuid.New().String(), Name: name}, nil
}

// ValidateNotExists fails with a conflict if the name is already taken.
func (s *tagStore) ValidateNotExists(ctx context.Context, name string) error {
	var n int
	err := sqlx.GetContext(ctx, s.q, &n,
		s.q.Rebind("SELECT COUNT(*) FROM tags WHERE name = ?"), name)
	if err != nil {
		return fmt.Errorf("checking tag %s: %w", name, err)
	}
	if n > 0 {
		return model.Errorf(model.ErrConflict, "tag [%s] already exists", name)
	}
	return nil
}

// ListWithTasks retrieves tags with more than minCount tasks, ordered by name.
func (s *tagStore) ListWithTasks(ctx context.Context, minCount int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := sqlx.SelectContext(ctx, s.q, &tags,
		s.q.Rebind("SELECT id, name, task_count FROM tags WHERE task_count > ? ORDER BY name"),
		minCount)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// Save inserts the tag or updates its name and count.
func (s *tagStore) Save(ctx context.Context, tag *model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return model.Errorf(model.ErrBadRequest, "tag name must not be empty")
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}

	_, err := s.q.ExecContext(ctx, s.q.Rebind(`
		INSERT INTO tags (id, name, task_count) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			task_count = excluded.task_count`),
		tag.ID, tag.Name, tag.TaskCount,
	)
	if isUniqueViolation(err) {
		return model.Errorf(model.ErrConflict, "tag [%s] already exists", tag.Name)
	}
	if err != nil {
		return fmt.Errorf("saving tag %s: %w", tag.Name, err)
	}
	return nil
}

// Delete removes a tag. Tasks referencing it must be removed first.
func (s *tagStore) Delete(ctx context.Context, tag *model.Tag) error {
	result, err := s.q.ExecContext(ctx, s.q.Rebind("DELETE FROM tags WHERE id = ?"), tag.ID)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", tag.Name, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Errorf(model.ErrNotFound, "tag [%s] not found", tag.Name)
	}
	return nil
}

// ReconcileTagCounts recounts every tag from the tasks table and returns
// the tags whose stored count was wrong. Run it inside InTx so the report
// and the repair see the same data.
func (s *Session) ReconcileTagCounts(ctx context.Context) ([]model.TagDrift, error) {
	var drift []model.TagDrift
	err := sqlx.SelectContext(ctx, s.q, &drift, `
		SELECT g.name AS name, g.task_count AS stored, COUNT(t.id) AS recounted
		FROM tags g
		LEFT JOIN tasks t ON t.tag_id = g.id
		GROUP BY g.id, g.name, g.task_count
		HAVING g.task_count <> COUNT(t.id)
		ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("recounting tags: %w", err)
	}
	if len(drift) == 0 {
		return nil, nil
	}

	_, err = s.q.ExecContext(ctx, `
		UPDATE tags SET task_count = (
			SELECT COUNT(*) FROM tasks WHERE tasks.tag_id = tags.id
		)`)
	if err != nil {
		return nil, fmt.Errorf("repairing tag counts: %w", err)
	}
	return drift, nil
}
