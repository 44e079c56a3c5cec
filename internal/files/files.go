// Package files stores task attachments on disk. Each task owns one
// directory, <root>/<creator>/<task id>, holding its zstd-compressed
// files; deleting a task removes the directory wholesale.
package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/nhle/taskapp/internal/model"
)

// Stored describes a file written by Store.
type Stored struct {
	ID       string
	Name     string
	Path     string
	Size     int64
	Checksum string
}

// Manager owns the attachment directory tree.
type Manager struct {
	root   string
	level  zstd.EncoderLevel
	logger *slog.Logger
}

// NewManager creates root if needed. level is a zstd speed level from 1
// (fastest) to 4 (best compression); out-of-range values use the default.
func NewManager(root string, level int, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating file storage directory %s: %w", root, err)
	}

	encLevel := zstd.EncoderLevel(level)
	if encLevel < zstd.SpeedFastest || encLevel > zstd.SpeedBestCompression {
		encLevel = zstd.SpeedDefault
	}

	return &Manager{root: root, level: encLevel, logger: logger}, nil
}

// ValidateName rejects names that could escape the task directory.
func ValidateName(name string) error {
	if name == "" {
		return model.Errorf(model.ErrBadRequest, "file name must not be empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return model.Errorf(model.ErrBadRequest, "file name %q contains an invalid path sequence", name)
	}
	return nil
}

// taskDir returns the directory of key, which must be a strict
// descendant of the root two levels down.
func (m *Manager) taskDir(key model.TaskKey) (string, error) {
	dir := filepath.Join(m.root, key.Creator, key.ID)
	rel, err := filepath.Rel(m.root, dir)
	sep := string(filepath.Separator)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+sep) ||
		strings.Count(rel, sep) != 1 {
		return "", model.Errorf(model.ErrBadRequest, "task %s does not map to a storage directory", key)
	}
	return dir, nil
}

// Store compresses r into the task's directory and returns the stored
// descriptor. Size and checksum refer to the uncompressed bytes.
func (m *Manager) Store(key model.TaskKey, name string, r io.Reader) (Stored, error) {
	if err := ValidateName(name); err != nil {
		return Stored{}, err
	}

	dir, err := m.taskDir(key)
	if err != nil {
		return Stored{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("creating directory for task %s: %w", key, err)
	}

	id := uuid.New().String()
	path := filepath.Join(dir, id+"_"+name+".zst")

	f, err := os.Create(path)
	if err != nil {
		return Stored{}, fmt.Errorf("creating %s: %w", path, err)
	}

	size, sum, err := m.compress(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return Stored{}, fmt.Errorf("storing file %s for task %s: %w", name, key, err)
	}

	m.logger.Info("stored task file", "task", key.String(), "file", name, "bytes", size)
	return Stored{ID: id, Name: name, Path: path, Size: size, Checksum: sum}, nil
}

func (m *Manager) compress(w io.Writer, r io.Reader) (int64, string, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(m.level))
	if err != nil {
		return 0, "", err
	}
	hasher := blake3.New()

	size, err := io.Copy(io.MultiWriter(enc, hasher), r)
	if err != nil {
		enc.Close()
		return 0, "", err
	}
	if err := enc.Close(); err != nil {
		return 0, "", err
	}
	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}

// ReadBytes returns the decompressed contents of file and verifies them
// against the recorded checksum.
func (m *Manager) ReadBytes(file model.FileData) ([]byte, error) {
	f, err := os.Open(file.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, model.Errorf(model.ErrNotFound, "file [%s] not found", file.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Path, err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", file.Path, err)
	}

	if file.Checksum != "" {
		sum := blake3.Sum256(data)
		if hex.EncodeToString(sum[:]) != file.Checksum {
			return nil, fmt.Errorf("file %s failed checksum verification", file.Name)
		}
	}
	return data, nil
}

// DeleteDirectory removes every file of the task. A missing directory is
// not an error.
func (m *Manager) DeleteDirectory(key model.TaskKey) error {
	dir, err := m.taskDir(key)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting directory of task %s: %w", key, err)
	}
	m.logger.Debug("deleted task directory", "task", key.String())
	return nil
}

// Remove deletes a single stored file. A missing file is not an error.
func (m *Manager) Remove(file model.FileData) error {
	if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", file.Path, err)
	}
	return nil
}
