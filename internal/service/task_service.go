package service

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	rep "taskManager/internal/repository"
	"time"

	"go.uber.org/zap"
)

// business rule checks live here, the repository only persists

const resourceTask = "Task"

const DeletedMessage = "Task successfully deleted"

const day = 24 * time.Hour

// DeletedTask is the outcome of DeleteTask.
type DeletedTask struct {
	Message string           `json:"message"`
	Task    *task.Task       `json:"task"`
	Result  rep.DeleteResult `json:"result"`
}

// TaskAge is the outcome of DaysSinceCreation.
type TaskAge struct {
	DateCreated string `json:"date_created"`
	PastDays    int64  `json:"past_days"`
}

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	return s.findExisting(ctx, id)
}

func (s *TaskService) CreateTask(ctx context.Context, title, description string) (*task.Task, error) {
	_, err := s.repo.FindByTitle(ctx, title)
	switch {
	case err == nil:
		logger.Info("Service: Title already taken", zap.String("title", title))
		return nil, titleConflict(title)
	case !errors.Is(err, rep.ErrNotFound):
		return nil, fmt.Errorf("check title: %w", err)
	}

	created, err := s.repo.Insert(ctx, task.CreateParams{Title: title, Description: description})
	if err != nil {
		// a concurrent create won the race on the unique index
		if errors.Is(err, rep.ErrDuplicateTitle) {
			return nil, titleConflict(title)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	logger.Info("Service: Task created", zap.Int64("task_id", created.ID))
	return created, nil
}

// UpdateTask merges the non-nil fields. Title uniqueness against other tasks is
// not checked here; only the unique index can reject it.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, title, description *string) (*task.Task, error) {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := task.Changes{Title: title, Description: description}
	return s.save(ctx, existing, changes)
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) (*DeletedTask, error) {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := *existing
	result, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete task %d: %w", id, err)
	}

	logger.Info("Service: Task deleted", zap.Int64("task_id", id), zap.Int64("affected", result.Affected))
	return &DeletedTask{
		Message: DeletedMessage,
		Task:    &snapshot,
		Result:  result,
	}, nil
}

// FindByState expects an already validated state. No matches is an empty slice.
func (s *TaskService) FindByState(ctx context.Context, state task.State) ([]*task.Task, error) {
	tasks, err := s.repo.FindByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("find tasks by state %s: %w", state, err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

// UpdateTaskState expects state already upper-cased and validated by the caller.
func (s *TaskService) UpdateTaskState(ctx context.Context, id int64, state task.State) (*task.Task, error) {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.State == state {
		return nil, NewConflict("The task already has that state.",
			ToDetail("id", id),
			ToDetail("state", state),
		)
	}

	return s.save(ctx, existing, task.NewChanges(task.WithState(state)))
}

func (s *TaskService) DaysSinceCreation(ctx context.Context, id int64) (*TaskAge, error) {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TaskAge{
		DateCreated: existing.CreatedAt.UTC().Format(time.DateOnly),
		PastDays:    elapsedDays(existing.CreatedAt, s.now()),
	}, nil
}

// elapsedDays rounds the absolute millisecond difference up to whole days.
func elapsedDays(from, to time.Time) int64 {
	diff := to.Sub(from).Milliseconds()
	if diff < 0 {
		diff = -diff
	}
	dayMs := day.Milliseconds()
	return (diff + dayMs - 1) / dayMs
}

func (s *TaskService) findExisting(ctx context.Context, id int64) (*task.Task, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Task not found", zap.Int64("target_id", id))
			return nil, NewNotFound(resourceTask, id)
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return existing, nil
}

func (s *TaskService) save(ctx context.Context, existing *task.Task, changes task.Changes) (*task.Task, error) {
	updated, err := s.repo.ApplyChangesAndSave(ctx, existing, changes)
	if err != nil {
		switch {
		case errors.Is(err, rep.ErrNotFound):
			return nil, NewNotFound(resourceTask, existing.ID)
		case errors.Is(err, rep.ErrDuplicateTitle):
			title := existing.Title
			if changes.Title != nil {
				title = *changes.Title
			}
			return nil, titleConflict(title)
		}
		return nil, fmt.Errorf("save task %d: %w", existing.ID, err)
	}
	return updated, nil
}

func titleConflict(title string) *BusinessError {
	return NewConflict("There is already a task with that title",
		ToDetail("title", title),
	)
}
