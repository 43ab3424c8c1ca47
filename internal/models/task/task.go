package task

import (
	"errors"
	"strings"
	"time"
)

// TitleMaxLen is the column size of tasks.title.
const TitleMaxLen = 50

type Task struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"size:50;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text;not null"`
	State       State     `json:"state" gorm:"size:16;not null;default:'PENDING';index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
}

func (Task) TableName() string {
	return "tasks"
}

type State string

const StatePending State = "PENDING"
const StateInProgress State = "IN_PROGRESS"
const StateCompleted State = "COMPLETED"
const StateDeleted State = "DELETED"

var States = []State{StatePending, StateInProgress, StateCompleted, StateDeleted}

var ErrInvalidState = errors.New("invalid task state")

func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState accepts any letter case and surrounding spaces.
func ParseState(raw string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(raw)))
	if !state.Valid() {
		return "", ErrInvalidState
	}
	return state, nil
}

// CreateParams are the caller supplied fields of a new task.
type CreateParams struct {
	Title       string
	Description string
}
