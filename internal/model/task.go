package model

import (
	"fmt"
	"strings"
)

// Task is a unit of work owned by the user who created it.
type Task struct {
	// ID is the caller-supplied identifier, unique per creator.
	ID string `json:"id" db:"id"`

	// Creator is the username of the owning user.
	Creator string `json:"creator" db:"creator"`

	// Description is the non-empty task body.
	Description string `json:"description" db:"description"`

	// Priority is persisted as its ordinal value.
	Priority Priority `json:"priority" db:"priority"`

	// CreatedAt is assigned by the server when the task is created.
	CreatedAt Date `json:"created_at" db:"created_at"`

	// FinishDate must not be in the past at create or update time.
	FinishDate Date `json:"finish_date" db:"finish_date"`

	// TagID references the task's single tag.
	TagID string `json:"-" db:"tag_id"`

	// Tag is populated by readers.
	Tag *Tag `json:"tag,omitempty" db:"-"`

	// Files is populated by readers.
	Files []FileData `json:"files,omitempty" db:"-"`
}

// Key returns the composite identity of the task.
func (t Task) Key() TaskKey {
	return TaskKey{Creator: t.Creator, ID: t.ID}
}

// TaskKey identifies a task across owners.
type TaskKey struct {
	Creator string
	ID      string
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s/%s", k.Creator, k.ID)
}

// TaskRef addresses a task from a caller's point of view. Owner is only
// consulted for admin callers, to pick between tasks that share an ID.
type TaskRef struct {
	ID    string
	Owner string
}

// TaskSpec is the input to task creation.
type TaskSpec struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	FinishDate  Date   `json:"finish_date"`
	Tag         string `json:"tag"`
}

// TaskPatch carries the fields of a partial update. Nil fields keep
// their stored values.
type TaskPatch struct {
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	FinishDate  *Date   `json:"finish_date,omitempty"`
	Tag         *string `json:"tag,omitempty"`
}

// ValidateTaskID rejects identifiers that are not usable as a single
// path segment, since attachments are stored under the task id.
func ValidateTaskID(id string) error {
	if strings.TrimSpace(id) == "" {
		return Errorf(ErrBadRequest, "task id must not be empty")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return Errorf(ErrBadRequest, "task id %q contains an invalid path sequence", id)
	}
	return nil
}
