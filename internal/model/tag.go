package model

// Tag is a named bucket for tasks. TaskCount always equals the number of
// tasks that reference the tag.
type Tag struct {
	ID        string `json:"-" db:"id"`
	Name      string `json:"name" db:"name"`
	TaskCount int64  `json:"task_count" db:"task_count"`
}

// AddTask records one more referencing task.
func (t *Tag) AddTask() { t.TaskCount++ }

// RemoveTask records one fewer referencing task.
func (t *Tag) RemoveTask() { t.TaskCount-- }

// TagDrift describes a tag whose stored count disagreed with the tasks
// table when it was reconciled.
type TagDrift struct {
	Name      string `json:"name" db:"name"`
	Stored    int64  `json:"stored" db:"stored"`
	Recounted int64  `json:"recounted" db:"recounted"`
}
