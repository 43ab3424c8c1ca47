package repository

import "errors"

var ErrNotFound = errors.New("task not found")

// ErrDuplicateTitle is returned when the unique index on tasks.title rejects a write.
var ErrDuplicateTitle = errors.New("task title already exists")

// DeleteResult reports the outcome of a hard delete.
type DeleteResult struct {
	Affected int64 `json:"affected"`
}
