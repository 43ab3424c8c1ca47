package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"unicode/utf8"
)

const contentTypeJSON = "application/json"

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// parseID accepts only positive decimal integers.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return service.NewValidationError("body", fmt.Sprintf("must not exceed %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			err = errEmptyBody
		}
		return service.NewValidationError("body", err.Error())
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return service.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > task.TitleMaxLen {
		return service.NewValidationError("title", fmt.Sprintf("must be at most %d characters", task.TitleMaxLen))
	}
	return nil
}

func validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return service.NewValidationError("description", "must not be empty")
	}
	return nil
}

func validateCreate(req dto.CreateTaskRequest) error {
	if req.Title == nil {
		return service.NewValidationError("title", "is required")
	}
	if err := validateTitle(*req.Title); err != nil {
		return err
	}
	if req.Description == nil {
		return service.NewValidationError("description", "is required")
	}
	return validateDescription(*req.Description)
}

func validateUpdate(req dto.UpdateTaskRequest) error {
	if req.Title == nil && req.Description == nil {
		return service.NewValidationError("body", "at least one of title or description is required")
	}
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return err
		}
	}
	return nil
}

func parseState(raw string) (task.State, error) {
	state, err := task.ParseState(raw)
	if err != nil {
		return "", service.NewValidationError("state", fmt.Sprintf("must be one of %v", task.States))
	}
	return state, nil
}

func validateStateUpdate(req dto.UpdateStateRequest) (int64, task.State, error) {
	if req.ID == nil || *req.ID <= 0 {
		return 0, "", service.NewValidationError("id", "must be a positive integer")
	}
	if req.State == nil {
		return 0, "", service.NewValidationError("state", "is required")
	}
	state, err := parseState(*req.State)
	if err != nil {
		return 0, "", err
	}
	return *req.ID, state, nil
}
