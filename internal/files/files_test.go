package files

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskapp/internal/model"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), 1, nil)
	require.NoError(t, err)
	return m
}

func TestStoreAndReadBytes(t *testing.T) {
	m := newTestManager(t)
	key := model.TaskKey{Creator: "alice", ID: "t1"}
	content := []byte(strings.Repeat("hello attachments ", 100))

	stored, err := m.Store(key, "notes.txt", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), stored.Size)
	assert.Len(t, stored.Checksum, 64)
	assert.Equal(t, filepath.Join(m.root, "alice", "t1"), filepath.Dir(stored.Path))

	data, err := m.ReadBytes(model.FileData{Name: "notes.txt", Path: stored.Path, Checksum: stored.Checksum})
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestReadBytesDetectsCorruption(t *testing.T) {
	m := newTestManager(t)
	key := model.TaskKey{Creator: "alice", ID: "t1"}

	stored, err := m.Store(key, "a.bin", bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	_, err = m.ReadBytes(model.FileData{Name: "a.bin", Path: stored.Path, Checksum: strings.Repeat("0", 64)})
	assert.ErrorContains(t, err, "checksum")
}

func TestStoreRejectsPathTraversal(t *testing.T) {
	m := newTestManager(t)
	key := model.TaskKey{Creator: "alice", ID: "t1"}

	for _, name := range []string{"../evil", "a/b", `a\b`, ""} {
		_, err := m.Store(key, name, bytes.NewReader(nil))
		assert.ErrorIs(t, err, model.ErrBadRequest, name)
	}
}

func TestDeleteDirectory(t *testing.T) {
	m := newTestManager(t)
	key := model.TaskKey{Creator: "alice", ID: "t1"}

	stored, err := m.Store(key, "a.txt", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, m.DeleteDirectory(key))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))

	// Deleting again is a no-op.
	assert.NoError(t, m.DeleteDirectory(key))

	_, err = m.ReadBytes(model.FileData{Name: "a.txt", Path: stored.Path})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemove(t *testing.T) {
	m := newTestManager(t)
	key := model.TaskKey{Creator: "alice", ID: "t1"}

	stored, err := m.Store(key, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	file := model.FileData{Name: stored.Name, Path: stored.Path}

	require.NoError(t, m.Remove(file))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	require.NoError(t, m.Remove(file))
}

func TestTaskKeysCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(filepath.Join(root, "files"), 1, nil)
	require.NoError(t, err)

	victim := model.TaskKey{Creator: "alice", ID: "A1"}
	stored, err := m.Store(victim, "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	for _, key := range []model.TaskKey{
		{Creator: "bob", ID: ".."},
		{Creator: "bob", ID: "../alice"},
		{Creator: "bob", ID: "."},
		{Creator: "..", ID: "x"},
		{Creator: "bob", ID: "a/b"},
	} {
		assert.ErrorIs(t, m.DeleteDirectory(key), model.ErrBadRequest, key.String())
		_, err := m.Store(key, "b.txt", strings.NewReader("b"))
		assert.ErrorIs(t, err, model.ErrBadRequest, key.String())
	}

	_, err = os.Stat(stored.Path)
	assert.NoError(t, err)
}
