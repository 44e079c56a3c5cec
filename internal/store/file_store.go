package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskapp/internal/model"
)

// fileStore implements FileRepo.
type fileStore struct {
	q sqlx.ExtContext
}

// fileRow mirrors task_files; created_at is kept as RFC 3339 text.
type fileRow struct {
	ID          string `db:"id"`
	Creator     string `db:"creator"`
	TaskID      string `db:"task_id"`
	Name        string `db:"name"`
	ContentType string `db:"content_type"`
	Path        string `db:"path"`
	Size        int64  `db:"size"`
	Checksum    string `db:"checksum"`
	CreatedAt   string `db:"created_at"`
}

// Add records a stored attachment. Generates an ID if empty.
func (s *fileStore) Add(ctx context.Context, file *model.FileData) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, s.q.Rebind(`
		INSERT INTO task_files (
			id, creator, task_id, name, content_type,
			path, size, checksum, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		file.ID, file.Creator, file.TaskID, file.Name, file.ContentType,
		file.Path, file.Size, file.Checksum, file.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("adding file %s to task %s/%s: %w", file.Name, file.Creator, file.TaskID, err)
	}
	return nil
}

// ListForTask retrieves the attachments of a task, oldest first.
func (s *fileStore) ListForTask(ctx context.Context, key model.TaskKey) ([]model.FileData, error) {
	var rows []fileRow
	err := sqlx.SelectContext(ctx, s.q, &rows, s.q.Rebind(`
		SELECT id, creator, task_id, name, content_type, path, size, checksum, created_at
		FROM task_files
		WHERE creator = ? AND task_id = ?
		ORDER BY created_at, id`),
		key.Creator, key.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying files for task %s: %w", key, err)
	}

	var files []model.FileData
	for _, r := range rows {
		createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of file %s: %w", r.ID, err)
		}
		files = append(files, model.FileData{
			ID:          r.ID,
			TaskID:      r.TaskID,
			Creator:     r.Creator,
			Name:        r.Name,
			ContentType: r.ContentType,
			Path:        r.Path,
			Size:        r.Size,
			Checksum:    r.Checksum,
			CreatedAt:   createdAt,
		})
	}
	return files, nil
}
