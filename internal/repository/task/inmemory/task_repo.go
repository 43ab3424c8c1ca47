package inmemory

import (
	"context"
	"sync"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"
)

// TaskStorage keeps tasks in insertion order. Callers always receive copies.
type TaskStorage struct {
	storage map[int64]*task.Task
	titles  map[string]int64
	mtx     *sync.RWMutex
	ids     []int64
	nextID  int64
	now     func() time.Time
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		titles:  make(map[string]int64),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
		now:     time.Now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Close() {}

func (s *TaskStorage) Insert(ctx context.Context, params task.CreateParams) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, taken := s.titles[params.Title]; taken {
		return nil, repo.ErrDuplicateTitle
	}

	s.nextID++
	stored := &task.Task{
		ID:          s.nextID,
		Title:       params.Title,
		Description: params.Description,
		State:       task.StatePending,
		CreatedAt:   s.now().UTC(),
	}

	s.storage[stored.ID] = stored
	s.titles[stored.Title] = stored.ID
	s.ids = append(s.ids, stored.ID)

	copied := *stored
	return &copied, nil
}

func (s *TaskStorage) ApplyChangesAndSave(ctx context.Context, existing *task.Task, changes task.Changes) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[existing.ID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	merged := *existing
	changes.Apply(&merged)

	if owner, taken := s.titles[merged.Title]; taken && owner != merged.ID {
		return nil, repo.ErrDuplicateTitle
	}

	*existing = merged
	delete(s.titles, stored.Title)
	stored.Title = merged.Title
	stored.Description = merged.Description
	stored.State = merged.State
	s.titles[stored.Title] = stored.ID

	copied := *stored
	return &copied, nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *TaskStorage) FindByTitle(ctx context.Context, title string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.titles[title]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *s.storage[id]
	return &copied, nil
}

func (s *TaskStorage) DeleteByID(ctx context.Context, id int64) (repo.DeleteResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[id]
	if !ok {
		return repo.DeleteResult{Affected: 0}, nil
	}

	delete(s.storage, id)
	delete(s.titles, stored.Title)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return repo.DeleteResult{Affected: 1}, nil
}

func (s *TaskStorage) FindAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		copied := *s.storage[id]
		res = append(res, &copied)
	}
	return res, nil
}

func (s *TaskStorage) FindByState(ctx context.Context, state task.State) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		stored := s.storage[id]
		if stored.State != state {
			continue
		}
		copied := *stored
		res = append(res, &copied)
	}
	return res, nil
}
