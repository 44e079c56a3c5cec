package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/tests/testutil"
)

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task := f.create(t, "T1", "work", f.alice)
	assert.Equal(t, "T1", task.ID)
	assert.Equal(t, "alice", task.Creator)
	assert.Equal(t, "do T1", task.Description)
	assert.Equal(t, model.PriorityCommon, task.Priority)
	assert.Equal(t, testutil.Today, task.CreatedAt)
	assert.Equal(t, testutil.Today, task.FinishDate)
	require.NotNil(t, task.Tag)
	assert.Equal(t, "work", task.Tag.Name)

	withTasks, err := f.tags.GetTagWithTasks(ctx, "work", "0", "20", f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), withTasks.Tag.TaskCount)
	require.Len(t, withTasks.Tasks, 1)
	assert.Equal(t, "T1", withTasks.Tasks[0].ID)
}

func TestCreateTaskDuplicateID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)

	_, err := f.tasks.Create(ctx, model.TaskSpec{
		ID: "T1", Description: "again", Priority: "URGENT",
		FinishDate: testutil.Today, Tag: "work",
	}, f.alice)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, int64(1), f.tagCount(t, "work"))

	// The same id belongs to a different task when another user creates it.
	f.create(t, "T1", "work", f.bob)
	assert.Equal(t, int64(2), f.tagCount(t, "work"))
	f.requireCountsExact(t)
}

func TestCreateTaskRejectsPastFinishDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T0", "work", f.alice)

	_, err := f.tasks.Create(ctx, model.TaskSpec{
		ID: "T1", Description: "late", Priority: "COMMON",
		FinishDate: testutil.Today.AddDays(-1), Tag: "work",
	}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
	assert.Equal(t, int64(1), f.tagCount(t, "work"))

	_, err = f.tasks.Create(ctx, model.TaskSpec{
		ID: "T2", Description: "late", Priority: "COMMON",
		FinishDate: testutil.Today.AddDays(-1), Tag: "fresh",
	}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
	assert.Equal(t, int64(-1), f.tagCount(t, "fresh"))
}

func TestCreateTaskPriority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.tasks.Create(ctx, model.TaskSpec{
		ID: "T1", Description: "x", Priority: "urgent",
		FinishDate: testutil.Today, Tag: "work",
	}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityUrgent, task.Priority)

	_, err = f.tasks.Create(ctx, model.TaskSpec{
		ID: "T2", Description: "x", Priority: "LOW",
		FinishDate: testutil.Today, Tag: "other",
	}, f.alice)
	require.ErrorIs(t, err, model.ErrBadRequest)
	assert.Contains(t, err.Error(), "COMMON, URGENT, IMPORTANT")
	assert.Equal(t, int64(-1), f.tagCount(t, "other"))
}

func TestCreateTaskRequiresFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Create(ctx, model.TaskSpec{Description: "x", Priority: "COMMON", FinishDate: testutil.Today, Tag: "a"}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = f.tasks.Create(ctx, model.TaskSpec{ID: "T1", Priority: "COMMON", FinishDate: testutil.Today, Tag: "a"}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = f.tasks.Create(ctx, model.TaskSpec{ID: "T1", Description: "x", Priority: "COMMON", Tag: "a"}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = f.tasks.Create(ctx, model.TaskSpec{ID: "T1", Description: "x", Priority: "COMMON", FinishDate: testutil.Today}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
	f.requireCountsExact(t)
}

func TestUpdateTaskRetag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	f.create(t, "T2", "home", f.alice)

	// Moving to a brand-new tag.
	task, err := f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Tag: ptr("play")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "play", task.Tag.Name)
	assert.Equal(t, int64(0), f.tagCount(t, "work"))
	assert.Equal(t, int64(1), f.tagCount(t, "play"))

	// Moving to an existing tag.
	_, err = f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Tag: ptr("home")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.tagCount(t, "play"))
	assert.Equal(t, int64(2), f.tagCount(t, "home"))

	// Same tag is a no-op.
	_, err = f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Tag: ptr("home")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.tagCount(t, "home"))

	f.requireCountsExact(t)
}

func TestUpdateTaskPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)

	task, err := f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Description: ptr("rewritten")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", task.Description)
	assert.Equal(t, model.PriorityCommon, task.Priority)
	assert.Equal(t, testutil.Today, task.FinishDate)
	assert.Equal(t, "work", task.Tag.Name)

	later := testutil.Today.AddDays(3)
	task, err = f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{
		Priority:   ptr("IMPORTANT"),
		FinishDate: &later,
	}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", task.Description)
	assert.Equal(t, model.PriorityImportant, task.Priority)
	assert.Equal(t, later, task.FinishDate)
}

func TestUpdateTaskValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	ref := model.TaskRef{ID: "T1"}

	yesterday := testutil.Today.AddDays(-1)
	_, err := f.tasks.Update(ctx, ref, model.TaskPatch{FinishDate: &yesterday}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	// Update matches priority tokens exactly.
	_, err = f.tasks.Update(ctx, ref, model.TaskPatch{Priority: ptr("urgent")}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = f.tasks.Update(ctx, ref, model.TaskPatch{Description: ptr("  ")}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	// A failed update leaves both tags untouched.
	_, err = f.tasks.Update(ctx, ref, model.TaskPatch{Tag: ptr("play"), Priority: ptr("nope")}, f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
	assert.Equal(t, int64(1), f.tagCount(t, "work"))
	assert.Equal(t, int64(-1), f.tagCount(t, "play"))
}

func TestUpdateTaskOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)

	_, err := f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Description: ptr("mine")}, f.bob)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.tasks.Update(ctx, model.TaskRef{ID: "T1", Owner: "alice"}, model.TaskPatch{Description: ptr("mine")}, f.bob)
	assert.ErrorIs(t, err, model.ErrNotFound)

	task, err := f.tasks.Update(ctx, model.TaskRef{ID: "T1"}, model.TaskPatch{Description: ptr("admin")}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "admin", task.Description)
	assert.Equal(t, "alice", task.Creator)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	f.create(t, "T2", "work", f.alice)

	deleted, err := f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "T1", deleted.ID)
	assert.Equal(t, int64(1), f.tagCount(t, "work"))
	assert.Equal(t, []model.TaskKey{{Creator: "alice", ID: "T1"}}, f.files.purged)

	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.alice)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, int64(1), f.tagCount(t, "work"))

	// The last task leaves the tag behind with a zero count.
	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "T2"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.tagCount(t, "work"))
	f.requireCountsExact(t)
}

func TestDeleteTaskSurvivesPurgeFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	f.files.purgeFail = true

	_, err := f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.alice)
	require.NoError(t, err)

	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.alice)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteTaskAdminDisambiguation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	f.create(t, "T1", "work", f.bob)

	_, err := f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.bob)
	require.NoError(t, err)

	// Only alice's T1 remains, so the bare id is unambiguous again.
	f.create(t, "T1", "work", f.bob)
	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.admin)
	assert.ErrorIs(t, err, model.ErrConflict)

	deleted, err := f.tasks.Delete(ctx, model.TaskRef{ID: "T1", Owner: "alice"}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "alice", deleted.Creator)

	deleted, err = f.tasks.Delete(ctx, model.TaskRef{ID: "T1"}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "bob", deleted.Creator)
	assert.Equal(t, int64(0), f.tagCount(t, "work"))
}

func TestGetByDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	_, err := f.tasks.Create(ctx, model.TaskSpec{
		ID: "T2", Description: "later", Priority: "URGENT",
		FinishDate: testutil.Today.AddDays(5), Tag: "work",
	}, f.alice)
	require.NoError(t, err)
	f.create(t, "T3", "work", f.bob)

	tasks, err := f.tasks.GetByDate(ctx, testutil.Today.AddDays(1).String(), "0", "20", f.alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "T2", tasks[0].ID)

	tasks, err = f.tasks.GetByDate(ctx, testutil.Today.String(), "0", "20", f.alice)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = f.tasks.GetByDate(ctx, testutil.Today.String(), "0", "20", f.admin)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	_, err = f.tasks.GetByDate(ctx, "10/03/2026", "0", "20", f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = f.tasks.GetByDate(ctx, testutil.Today.String(), "x", "20", f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestGetGroupedByPriority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "T1", "work", f.alice)
	_, err := f.tasks.Create(ctx, model.TaskSpec{
		ID: "T2", Description: "hot", Priority: "IMPORTANT",
		FinishDate: testutil.Today, Tag: "work",
	}, f.alice)
	require.NoError(t, err)
	f.create(t, "T3", "work", f.alice)
	f.create(t, "T4", "work", f.bob)

	grouped, err := f.tasks.GetGroupedByPriority(ctx, "0", "20", f.alice)
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped[model.PriorityCommon], 2)
	assert.Len(t, grouped[model.PriorityImportant], 1)
	_, ok := grouped[model.PriorityUrgent]
	assert.False(t, ok)

	grouped, err = f.tasks.GetGroupedByPriority(ctx, "0", "20", f.admin)
	require.NoError(t, err)
	assert.Len(t, grouped[model.PriorityCommon], 3)

	_, err = f.tasks.GetGroupedByPriority(ctx, "0", "0", f.alice)
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestTagCountsStayExact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		f.create(t, id, "work", f.alice)
	}
	f.create(t, "a", "home", f.bob)

	_, err := f.tasks.Update(ctx, model.TaskRef{ID: "b"}, model.TaskPatch{Tag: ptr("home")}, f.alice)
	require.NoError(t, err)
	_, err = f.tasks.Update(ctx, model.TaskRef{ID: "c"}, model.TaskPatch{Tag: ptr("misc")}, f.alice)
	require.NoError(t, err)
	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "d"}, f.alice)
	require.NoError(t, err)
	_, err = f.tasks.Delete(ctx, model.TaskRef{ID: "a", Owner: "bob"}, f.admin)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.tagCount(t, "work"))
	assert.Equal(t, int64(1), f.tagCount(t, "home"))
	assert.Equal(t, int64(1), f.tagCount(t, "misc"))
	f.requireCountsExact(t)
}
