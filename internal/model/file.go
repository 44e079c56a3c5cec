package model

import "time"

// FileData describes a file attached to a task. The bytes live with the
// file-management collaborator; only the descriptor is persisted here.
type FileData struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"-"`
	Creator     string    `json:"-"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"-"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`
}
