package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
)

// taskStore implements AdminTaskReader, UserTaskReader and TaskWriter.
// The two readers share a query builder but expose disjoint method sets,
// so a user-scoped caller has no method that omits the creator filter.
type taskStore struct {
	q sqlx.ExtContext
}

// taskRow is a task joined with its tag.
type taskRow struct {
	model.Task
	TagName      string `db:"tag_name"`
	TagTaskCount int64  `db:"tag_task_count"`
}

const selectTasks = `
	SELECT t.id, t.creator, t.description, t.priority, t.created_at,
		t.finish_date, t.tag_id, g.name AS tag_name, g.task_count AS tag_task_count
	FROM tasks t
	INNER JOIN tags g ON g.id = t.tag_id`

// taskQuery is the predicate and window of a task listing.
type taskQuery struct {
	conditions []string
	args       []any
	page       *paging.Page
}

func (q *taskQuery) where(cond string, arg any) *taskQuery {
	q.conditions = append(q.conditions, cond)
	q.args = append(q.args, arg)
	return q
}

// build renders the query. Priority ordering falls back to (creator, id)
// so that ties are stable across repeated reads.
func (q *taskQuery) build() (string, []any) {
	query := selectTasks
	if len(q.conditions) > 0 {
		query += " WHERE " + strings.Join(q.conditions, " AND ")
	}

	order := "t.creator ASC, t.id ASC"
	if q.page != nil && q.page.SortKey == paging.SortByPriority {
		order = "t.priority ASC, " + order
	}
	query += " ORDER BY " + order

	args := q.args
	if q.page != nil {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.page.Limit, q.page.Offset)
	}
	return query, args
}

func (s *taskStore) list(ctx context.Context, q *taskQuery) ([]model.Task, error) {
	query, args := q.build()

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, s.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		task := r.Task
		task.Tag = &model.Tag{ID: r.TagID, Name: r.TagName, TaskCount: r.TagTaskCount}
		tasks = append(tasks, task)
	}

	// Load attachment descriptors for each task.
	files := &fileStore{q: s.q}
	for i := range tasks {
		fs, err := files.ListForTask(ctx, tasks[i].Key())
		if err != nil {
			return nil, err
		}
		tasks[i].Files = fs
	}

	return tasks, nil
}

// === Admin reader ===

// FindByID retrieves a task by ID across all creators.
func (s *taskStore) FindByID(ctx context.Context, id, owner string) (*model.Task, error) {
	q := (&taskQuery{}).where("t.id = ?", id)
	if owner != "" {
		q.where("t.creator = ?", owner)
	}

	tasks, err := s.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	switch len(tasks) {
	case 0:
		return nil, model.Errorf(model.ErrNotFound, "task [%s] not found", id)
	case 1:
		return &tasks[0], nil
	default:
		return nil, model.Errorf(model.ErrConflict,
			"task id [%s] is used by %d owners, specify the owner", id, len(tasks))
	}
}

// FindCurrent retrieves tasks finishing on or after date.
func (s *taskStore) FindCurrent(ctx context.Context, date model.Date, page paging.Page) ([]model.Task, error) {
	q := (&taskQuery{page: &page}).where("t.finish_date >= ?", date)
	return s.list(ctx, q)
}

// FindAll retrieves one page of all tasks.
func (s *taskStore) FindAll(ctx context.Context, page paging.Page) ([]model.Task, error) {
	return s.list(ctx, &taskQuery{page: &page})
}

// FindByTag retrieves one page of the tasks referencing tag.
func (s *taskStore) FindByTag(ctx context.Context, tag *model.Tag, page paging.Page) ([]model.Task, error) {
	q := (&taskQuery{page: &page}).where("t.tag_id = ?", tag.ID)
	return s.list(ctx, q)
}

// FindAllByTag retrieves every task referencing tag.
func (s *taskStore) FindAllByTag(ctx context.Context, tag *model.Tag) ([]model.Task, error) {
	q := (&taskQuery{}).where("t.tag_id = ?", tag.ID)
	return s.list(ctx, q)
}

// === User reader ===

// ExistsByIDAndCreator reports whether creator already has a task with id.
func (s *taskStore) ExistsByIDAndCreator(ctx context.Context, id, creator string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, s.q, &n,
		s.q.Rebind("SELECT COUNT(*) FROM tasks WHERE id = ? AND creator = ?"), id, creator)
	if err != nil {
		return false, fmt.Errorf("checking task %s: %w", id, err)
	}
	return n > 0, nil
}

// FindByIDAndCreator retrieves a task owned by creator. Tasks owned by
// anyone else are reported as not found.
func (s *taskStore) FindByIDAndCreator(ctx context.Context, id, creator string) (*model.Task, error) {
	q := (&taskQuery{}).where("t.id = ?", id).where("t.creator = ?", creator)
	tasks, err := s.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, model.Errorf(model.ErrNotFound, "task [%s] not found", id)
	}
	return &tasks[0], nil
}

// FindCurrentByCreator retrieves creator's tasks finishing on or after date.
func (s *taskStore) FindCurrentByCreator(
	ctx context.Context,
	date model.Date,
	creator string,
	page paging.Page,
) ([]model.Task, error) {
	q := (&taskQuery{page: &page}).
		where("t.finish_date >= ?", date).
		where("t.creator = ?", creator)
	return s.list(ctx, q)
}

// FindAllByCreator retrieves one page of creator's tasks.
func (s *taskStore) FindAllByCreator(ctx context.Context, creator string, page paging.Page) ([]model.Task, error) {
	q := (&taskQuery{page: &page}).where("t.creator = ?", creator)
	return s.list(ctx, q)
}

// FindByTagAndCreator retrieves one page of creator's tasks under tag.
func (s *taskStore) FindByTagAndCreator(
	ctx context.Context,
	tag *model.Tag,
	creator string,
	page paging.Page,
) ([]model.Task, error) {
	q := (&taskQuery{page: &page}).
		where("t.tag_id = ?", tag.ID).
		where("t.creator = ?", creator)
	return s.list(ctx, q)
}

// === Writer ===

// Save inserts the task or overwrites its mutable fields.
func (s *taskStore) Save(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Description) == "" {
		return model.Errorf(model.ErrBadRequest, "task description must not be empty")
	}
	if task.Tag != nil {
		task.TagID = task.Tag.ID
	}

	_, err := s.q.ExecContext(ctx, s.q.Rebind(`
		INSERT INTO tasks (
			id, creator, description, priority,
			created_at, finish_date, tag_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (creator, id) DO UPDATE SET
			description = excluded.description,
			priority = excluded.priority,
			finish_date = excluded.finish_date,
			tag_id = excluded.tag_id`),
		task.ID, task.Creator, task.Description, task.Priority,
		task.CreatedAt, task.FinishDate, task.TagID,
	)
	if err != nil {
		return fmt.Errorf("saving task %s: %w", task.Key(), err)
	}
	return nil
}

// Delete removes a task and its attachment descriptors.
func (s *taskStore) Delete(ctx context.Context, task *model.Task) error {
	if _, err := s.q.ExecContext(ctx,
		s.q.Rebind("DELETE FROM task_files WHERE creator = ? AND task_id = ?"),
		task.Creator, task.ID); err != nil {
		return fmt.Errorf("deleting files of task %s: %w", task.Key(), err)
	}

	result, err := s.q.ExecContext(ctx,
		s.q.Rebind("DELETE FROM tasks WHERE creator = ? AND id = ?"),
		task.Creator, task.ID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", task.Key(), err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Errorf(model.ErrNotFound, "task [%s] not found", task.ID)
	}
	return nil
}

// DeleteAll removes every task in tasks.
func (s *taskStore) DeleteAll(ctx context.Context, tasks []model.Task) error {
	for i := range tasks {
		if err := s.Delete(ctx, &tasks[i]); err != nil {
			return err
		}
	}
	return nil
}
