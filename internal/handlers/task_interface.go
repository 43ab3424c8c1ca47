package handlers

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	ListTasks(ctx context.Context) ([]*task.Task, error)
	GetTask(ctx context.Context, id int64) (*task.Task, error)
	CreateTask(ctx context.Context, title, description string) (*task.Task, error)
	UpdateTask(ctx context.Context, id int64, title, description *string) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) (*service.DeletedTask, error)
	FindByState(ctx context.Context, state task.State) ([]*task.Task, error)
	UpdateTaskState(ctx context.Context, id int64, state task.State) (*task.Task, error)
	DaysSinceCreation(ctx context.Context, id int64) (*service.TaskAge, error)
}
