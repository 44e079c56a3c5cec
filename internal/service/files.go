package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/nhle/taskapp/internal/files"
	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/store"
)

// FileService attaches files to tasks. Tasks are resolved through the
// role dispatch, so users only reach files of their own tasks.
type FileService struct {
	store  store.Store
	files  FileManager
	logger *slog.Logger
}

// NewFileService creates a FileService.
func NewFileService(s store.Store, fm FileManager, opts Options) *FileService {
	return &FileService{store: s, files: fm, logger: opts.logger()}
}

// Upload stores r as a new attachment of the referenced task.
func (s *FileService) Upload(
	ctx context.Context,
	ref model.TaskRef,
	name, contentType string,
	r io.Reader,
	caller model.User,
) (*model.FileData, error) {
	if err := files.ValidateName(name); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	task, err := readerFor(s.store.Session(), caller).FindByID(ctx, ref)
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Store(task.Key(), name, r)
	if err != nil {
		return nil, err
	}

	file := &model.FileData{
		ID:          stored.ID,
		TaskID:      task.ID,
		Creator:     task.Creator,
		Name:        stored.Name,
		ContentType: contentType,
		Path:        stored.Path,
		Size:        stored.Size,
		Checksum:    stored.Checksum,
	}
	if err := s.store.Session().Files().Add(ctx, file); err != nil {
		// The task may have been deleted since it was resolved.
		if rmErr := s.files.Remove(*file); rmErr != nil {
			s.logger.Error("orphaned task file not removed", "task", task.Key().String(), "error", rmErr)
		}
		return nil, err
	}
	return file, nil
}

// List returns the attachments of the referenced task.
func (s *FileService) List(ctx context.Context, ref model.TaskRef, caller model.User) ([]model.FileData, error) {
	task, err := readerFor(s.store.Session(), caller).FindByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	return task.Files, nil
}

// Download returns the descriptor and contents of one attachment.
func (s *FileService) Download(
	ctx context.Context,
	ref model.TaskRef,
	fileID string,
	caller model.User,
) (*model.FileData, []byte, error) {
	task, err := readerFor(s.store.Session(), caller).FindByID(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	for i := range task.Files {
		if task.Files[i].ID != fileID {
			continue
		}
		data, err := s.files.ReadBytes(task.Files[i])
		if err != nil {
			return nil, nil, err
		}
		return &task.Files[i], data, nil
	}
	return nil, nil, model.Errorf(model.ErrNotFound, "file [%s] not found", fileID)
}
