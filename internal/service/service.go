// Package service holds the task-tag consistency rules. Every mutating
// operation runs as one store transaction, and every read goes through
// the role dispatch in readerFor.
package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/nhle/taskapp/internal/files"
	"github.com/nhle/taskapp/internal/model"
)

// FileManager is the attachment storage collaborator.
type FileManager interface {
	Store(key model.TaskKey, name string, r io.Reader) (files.Stored, error)
	ReadBytes(file model.FileData) ([]byte, error)
	Remove(file model.FileData) error
	DeleteDirectory(key model.TaskKey) error
}

// Options carries the ambient dependencies shared by every service.
type Options struct {
	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) clock() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

// purgeFiles removes the attachment directories of deleted tasks. It runs
// after the deleting transaction committed; failures leave orphaned files
// behind and are only logged.
func purgeFiles(fm FileManager, logger *slog.Logger, keys []model.TaskKey) {
	for _, key := range keys {
		if err := fm.DeleteDirectory(key); err != nil {
			logger.Error("task files not purged", "task", key.String(), "error", err)
		}
	}
}
