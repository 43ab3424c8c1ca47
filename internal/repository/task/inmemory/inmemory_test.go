package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaskStorage_New checks construction.
func TestTaskStorage_New(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NotNil(t, storage)
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Insert checks the generated fields.
func TestTaskStorage_Insert(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first, err := storage.Insert(ctx, task.CreateParams{Title: "First", Description: "one"})
	require.NoError(t, err)
	second, err := storage.Insert(ctx, task.CreateParams{Title: "Second", Description: "two"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, task.StatePending, first.State)
	assert.False(t, first.CreatedAt.IsZero())

	retrieved, err := storage.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, *first, *retrieved)
}

// TestTaskStorage_Insert_Duplicate checks the title index.
func TestTaskStorage_Insert_Duplicate(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	_, err := storage.Insert(ctx, task.CreateParams{Title: "Same", Description: "a"})
	require.NoError(t, err)

	_, err = storage.Insert(ctx, task.CreateParams{Title: "Same", Description: "b"})
	assert.Equal(t, repository.ErrDuplicateTitle, err)
}

// TestTaskStorage_ReturnsCopies checks that callers cannot mutate stored tasks.
func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created, err := storage.Insert(ctx, task.CreateParams{Title: "Immutable", Description: "d"})
	require.NoError(t, err)

	created.Title = "changed outside"

	retrieved, err := storage.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Immutable", retrieved.Title)
}

// TestTaskStorage_ApplyChangesAndSave checks partial merges.
func TestTaskStorage_ApplyChangesAndSave(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created, err := storage.Insert(ctx, task.CreateParams{Title: "Original", Description: "Original description"})
	require.NoError(t, err)
	_, err = storage.Insert(ctx, task.CreateParams{Title: "Taken", Description: "d"})
	require.NoError(t, err)

	updated, err := storage.ApplyChangesAndSave(ctx, created, task.NewChanges(task.WithTitle("Renamed")))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Original description", updated.Description)
	assert.Equal(t, "Renamed", created.Title)

	_, err = storage.FindByTitle(ctx, "Original")
	assert.Equal(t, repository.ErrNotFound, err)

	byTitle, err := storage.FindByTitle(ctx, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byTitle.ID)

	_, err = storage.ApplyChangesAndSave(ctx, byTitle, task.NewChanges(task.WithTitle("Taken")))
	assert.Equal(t, repository.ErrDuplicateTitle, err)
	assert.Equal(t, "Renamed", byTitle.Title, "rejected change must not leak into the caller's task")

	stored, err := storage.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)

	ghost := &task.Task{ID: 42}
	_, err = storage.ApplyChangesAndSave(ctx, ghost, task.NewChanges(task.WithState(task.StateCompleted)))
	assert.Equal(t, repository.ErrNotFound, err)
}

// TestTaskStorage_DeleteByID checks the hard delete and affected counter.
func TestTaskStorage_DeleteByID(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created, err := storage.Insert(ctx, task.CreateParams{Title: "To purge", Description: "d"})
	require.NoError(t, err)

	result, err := storage.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Affected)

	_, err = storage.FindByID(ctx, created.ID)
	assert.Equal(t, repository.ErrNotFound, err)

	result, err = storage.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Affected)

	// the title is free again
	_, err = storage.Insert(ctx, task.CreateParams{Title: "To purge", Description: "again"})
	assert.NoError(t, err)
}

// TestTaskStorage_FindByState checks filtering and the empty result.
func TestTaskStorage_FindByState(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	for i := 0; i < 4; i++ {
		created, err := storage.Insert(ctx, task.CreateParams{Title: fmt.Sprintf("Task %d", i), Description: "d"})
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = storage.ApplyChangesAndSave(ctx, created, task.NewChanges(task.WithState(task.StateInProgress)))
			require.NoError(t, err)
		}
	}

	inProgress, err := storage.FindByState(ctx, task.StateInProgress)
	require.NoError(t, err)
	assert.Len(t, inProgress, 2)

	completed, err := storage.FindByState(ctx, task.StateCompleted)
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Empty(t, completed)

	all, err := storage.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// TestTaskStorage_ConcurrentAccess checks the mutex discipline.
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	taskCount := 100
	goroutines := 10

	var wg sync.WaitGroup
	errs := make(chan error, taskCount)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < taskCount/goroutines; j++ {
				_, err := storage.Insert(ctx, task.CreateParams{
					Title:       fmt.Sprintf("Task %d-%d", workerID, j),
					Description: "concurrent",
				})
				if err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	tasks, err := storage.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, taskCount)
}
