package service

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
)

// TaskRepository is the persistence boundary. Lookups of a single task
// return repository.ErrNotFound when it is absent.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	FindAll(ctx context.Context) ([]*task.Task, error)
	FindByID(ctx context.Context, id int64) (*task.Task, error)
	FindByTitle(ctx context.Context, title string) (*task.Task, error)
	FindByState(ctx context.Context, state task.State) ([]*task.Task, error)
	Insert(ctx context.Context, params task.CreateParams) (*task.Task, error)
	ApplyChangesAndSave(ctx context.Context, existing *task.Task, changes task.Changes) (*task.Task, error)
	DeleteByID(ctx context.Context, id int64) (repository.DeleteResult, error)
}
