package gormrepo_test

import (
	"context"
	"fmt"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/gormrepo"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage opens an in-memory SQLite database with the tasks table.
func setupTestStorage(t *testing.T) *gormrepo.Storage {
	t.Helper()
	ctx := context.Background()

	storage, err := gormrepo.OpenSQLite(ctx, ":memory:", gormrepo.Options{})
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	require.NoError(t, storage.Migrate(ctx))
	return storage
}

func TestStorage_HealthCheck(t *testing.T) {
	storage := setupTestStorage(t)
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

func TestStorage_Insert(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	before := time.Now().Add(-time.Second)
	created, err := storage.Insert(ctx, task.CreateParams{Title: "Write report", Description: "Quarterly numbers"})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "Quarterly numbers", created.Description)
	assert.Equal(t, task.StatePending, created.State)
	assert.True(t, created.CreatedAt.After(before))
	assert.Zero(t, created.CreatedAt.Nanosecond()%int(time.Microsecond), "createdAt is kept at microsecond precision")

	found, err := storage.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.Title, found.Title)
	assert.Equal(t, created.Description, found.Description)
	assert.Equal(t, task.StatePending, found.State)
}

func TestStorage_Insert_DuplicateTitle(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	_, err := storage.Insert(ctx, task.CreateParams{Title: "Same", Description: "first"})
	require.NoError(t, err)

	_, err = storage.Insert(ctx, task.CreateParams{Title: "Same", Description: "second"})
	assert.ErrorIs(t, err, repository.ErrDuplicateTitle)
}

func TestStorage_FindByID_NotFound(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_FindByTitle(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	created, err := storage.Insert(ctx, task.CreateParams{Title: "Unique title", Description: "d"})
	require.NoError(t, err)

	found, err := storage.FindByTitle(ctx, "Unique title")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = storage.FindByTitle(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_FindAllAndByState(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	all, err := storage.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for i := 1; i <= 3; i++ {
		_, err := storage.Insert(ctx, task.CreateParams{Title: fmt.Sprintf("Task %d", i), Description: "d"})
		require.NoError(t, err)
	}

	first, err := storage.FindByTitle(ctx, "Task 1")
	require.NoError(t, err)
	_, err = storage.ApplyChangesAndSave(ctx, first, task.NewChanges(task.WithState(task.StateCompleted)))
	require.NoError(t, err)

	all, err = storage.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := storage.FindByState(ctx, task.StatePending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	completed, err := storage.FindByState(ctx, task.StateCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Task 1", completed[0].Title)

	deleted, err := storage.FindByState(ctx, task.StateDeleted)
	require.NoError(t, err)
	assert.NotNil(t, deleted)
	assert.Empty(t, deleted)
}

func TestStorage_ApplyChangesAndSave(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	created, err := storage.Insert(ctx, task.CreateParams{Title: "Original", Description: "Original description"})
	require.NoError(t, err)

	existing, err := storage.FindByID(ctx, created.ID)
	require.NoError(t, err)

	updated, err := storage.ApplyChangesAndSave(ctx, existing, task.NewChanges(task.WithTitle("Renamed")))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Original description", updated.Description)

	reloaded, err := storage.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
	assert.Equal(t, "Original description", reloaded.Description)
	assert.Equal(t, task.StatePending, reloaded.State)
	assert.True(t, created.CreatedAt.Equal(reloaded.CreatedAt))
}

func TestStorage_ApplyChangesAndSave_Errors(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	_, err := storage.Insert(ctx, task.CreateParams{Title: "Taken", Description: "d"})
	require.NoError(t, err)
	other, err := storage.Insert(ctx, task.CreateParams{Title: "Other", Description: "d"})
	require.NoError(t, err)

	t.Run("duplicate title", func(t *testing.T) {
		_, err := storage.ApplyChangesAndSave(ctx, other, task.NewChanges(task.WithTitle("Taken")))
		assert.ErrorIs(t, err, repository.ErrDuplicateTitle)
		assert.Equal(t, "Other", other.Title)
	})

	t.Run("row vanished", func(t *testing.T) {
		ghost := &task.Task{ID: 9999, Title: "Ghost", Description: "d", State: task.StatePending}
		_, err := storage.ApplyChangesAndSave(ctx, ghost, task.NewChanges(task.WithDescription("x")))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestStorage_DeleteByID(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	created, err := storage.Insert(ctx, task.CreateParams{Title: "To delete", Description: "d"})
	require.NoError(t, err)

	result, err := storage.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Affected)

	_, err = storage.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	result, err = storage.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Affected)
}
