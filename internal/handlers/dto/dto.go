package dto

import (
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/service"
	"time"
)

type CreateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateStateRequest struct {
	ID    *int64  `json:"id"`
	State *string `json:"state"`
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
}

type DeleteTaskResponse struct {
	Message string                  `json:"message"`
	Task    TaskResponse            `json:"task"`
	Result  repository.DeleteResult `json:"result"`
}

type DaysPassedResponse struct {
	DateCreated string `json:"date_created"`
	PastDays    int64  `json:"past_days"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		State:       string(t.State),
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func FromDeleted(d *service.DeletedTask) DeleteTaskResponse {
	return DeleteTaskResponse{
		Message: d.Message,
		Task:    FromTask(d.Task),
		Result:  d.Result,
	}
}

func FromAge(a *service.TaskAge) DaysPassedResponse {
	return DaysPassedResponse{
		DateCreated: a.DateCreated,
		PastDays:    a.PastDays,
	}
}
