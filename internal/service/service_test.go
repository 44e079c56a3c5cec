package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/taskapp/internal/files"
	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/service"
	"github.com/nhle/taskapp/internal/store"
	"github.com/nhle/taskapp/tests/testutil"
)

// fakeFiles records directory purges and keeps stored blobs in memory.
type fakeFiles struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	purged    []model.TaskKey
	removed   []string
	purgeFail bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{blobs: make(map[string][]byte)}
}

func (f *fakeFiles) Store(key model.TaskKey, name string, r io.Reader) (files.Stored, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return files.Stored{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := name + "-" + key.String()
	path := "mem://" + key.String() + "/" + name
	f.blobs[path] = data
	return files.Stored{ID: id, Name: name, Path: path, Size: int64(len(data)), Checksum: "sum"}, nil
}

func (f *fakeFiles) ReadBytes(file model.FileData) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[file.Path]
	if !ok {
		return nil, model.Errorf(model.ErrNotFound, "file [%s] not found", file.Name)
	}
	return data, nil
}

func (f *fakeFiles) Remove(file model.FileData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, file.Path)
	f.removed = append(f.removed, file.Path)
	return nil
}

func (f *fakeFiles) DeleteDirectory(key model.TaskKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.purgeFail {
		return errors.New("disk on fire")
	}
	f.purged = append(f.purged, key)
	return nil
}

type fixture struct {
	store  *store.SQLStore
	files  *fakeFiles
	tasks  *service.TaskService
	tags   *service.TagService
	attach *service.FileService
	users  *service.UserService

	alice model.User
	bob   model.User
	admin model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestStore(t)
	fm := newFakeFiles()
	opts := service.Options{Now: testutil.Clock()}

	return &fixture{
		store:  db,
		files:  fm,
		tasks:  service.NewTaskService(db, fm, opts),
		tags:   service.NewTagService(db, fm, opts),
		attach: service.NewFileService(db, fm, opts),
		users:  service.NewUserService(db, opts),
		alice:  testutil.CreateUser(t, db, "alice", model.RoleUser),
		bob:    testutil.CreateUser(t, db, "bob", model.RoleUser),
		admin:  testutil.CreateUser(t, db, "root", model.RoleAdmin),
	}
}

func (f *fixture) create(t *testing.T, id, tag string, caller model.User) *model.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), model.TaskSpec{
		ID:          id,
		Description: "do " + id,
		Priority:    "COMMON",
		FinishDate:  testutil.Today,
		Tag:         tag,
	}, caller)
	require.NoError(t, err)
	return task
}

// tagCount returns the stored count of a tag, or -1 if it does not exist.
func (f *fixture) tagCount(t *testing.T, name string) int64 {
	t.Helper()
	tag, err := f.store.Session().TagReader().TryFind(context.Background(), name)
	require.NoError(t, err)
	if tag == nil {
		return -1
	}
	return tag.TaskCount
}

// requireCountsExact asserts that no stored tag count drifted from the
// number of tasks referencing it.
func (f *fixture) requireCountsExact(t *testing.T) {
	t.Helper()
	var drift []model.TagDrift
	err := f.store.InTx(context.Background(), func(tx *store.Session) error {
		var err error
		drift, err = tx.ReconcileTagCounts(context.Background())
		return err
	})
	require.NoError(t, err)
	require.Empty(t, drift)
}

func ptr[T any](v T) *T { return &v }
