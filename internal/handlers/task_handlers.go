package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const ServiceName = "task-manager"

type TaskHandler struct {
	service Service
}

func NewTaskHandler(svc Service) *TaskHandler {
	return &TaskHandler{
		service: svc,
	}
}

// RegisterRoutes mounts the task endpoints on r.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)       // GET /tasks
		r.Post("/", h.CreateTask)     // POST /tasks
		r.Put("/", h.UpdateTaskState) // PUT /tasks

		r.Get("/status/{state}", h.FindByState) // GET /tasks/status/{state}

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)               // GET /tasks/{id}
			r.Put("/", h.UpdateTask)            // PUT /tasks/{id}
			r.Delete("/", h.DeleteTask)         // DELETE /tasks/{id}
			r.Get("/days-passed", h.DaysPassed) // GET /tasks/{id}/days-passed
		})
	})
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.service.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Health check failed", zap.Error(err))
		responseWithPayload(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", ServiceName),
			toPayload("error", err.Error()),
		)
		return
	}

	responseWithPayload(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", ServiceName),
	)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Tasks listed",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	found, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Task found",
		zap.Int64("task_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(found))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		rejectRequest(w, r, err)
		return
	}
	if err := validateCreate(request); err != nil {
		rejectRequest(w, r, err)
		return
	}

	created, err := h.service.CreateTask(r.Context(), *request.Title, *request.Description)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Task created",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	if !requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		rejectRequest(w, r, err)
		return
	}
	if err := validateUpdate(request); err != nil {
		rejectRequest(w, r, err)
		return
	}

	updated, err := h.service.UpdateTask(r.Context(), id, request.Title, request.Description)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Task updated",
		zap.Int64("task_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	deleted, err := h.service.DeleteTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Task deleted",
		zap.Int64("task_id", id),
		zap.Int64("affected", deleted.Result.Affected),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromDeleted(deleted))
}

func (h *TaskHandler) FindByState(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	state, err := parseState(chi.URLParam(r, "state"))
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	tasks, err := h.service.FindByState(r.Context(), state)
	if err != nil {
		handleServiceError(w, r, err, "find_by_state")
		return
	}

	logger.Info("HTTP_OUT: Tasks filtered",
		zap.String("state", string(state)),
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) UpdateTaskState(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !requireJSON(w, r) {
		return
	}

	var request dto.UpdateStateRequest
	if err := decodeJSON(w, r, &request); err != nil {
		rejectRequest(w, r, err)
		return
	}
	id, state, err := validateStateUpdate(request)
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	updated, err := h.service.UpdateTaskState(r.Context(), id, state)
	if err != nil {
		handleServiceError(w, r, err, "update_task_state")
		return
	}

	logger.Info("HTTP_OUT: Task state updated",
		zap.Int64("task_id", updated.ID),
		zap.String("state", string(updated.State)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TaskHandler) DaysPassed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		rejectRequest(w, r, err)
		return
	}

	age, err := h.service.DaysSinceCreation(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "days_passed")
		return
	}

	logger.Info("HTTP_OUT: Task age computed",
		zap.Int64("task_id", id),
		zap.Int64("past_days", age.PastDays),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromAge(age))
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, contentTypeJSON) {
		return true
	}

	logger.Warn("HTTP: Wrong content type",
		zap.String("expected", contentTypeJSON),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	return false
}

// rejectRequest answers a failed boundary check with 400.
func rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	logger.Warn("HTTP: Validation error",
		zap.Error(err),
		zap.String("client_ip", r.RemoteAddr))

	handleServiceError(w, r, err, "validate_request")
}
