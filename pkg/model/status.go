package model

import "strings"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// AllStatuses returns every valid status value.
func AllStatuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusPending, StatusDone}
}

// Valid returns true for a normalized status value.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusPending, StatusDone:
		return true
	}
	return false
}

// IsDone returns true once a task has been completed.
func (s Status) IsDone() bool {
	return s == StatusDone
}

// ParseStatus normalizes a raw status string into the closed enum.
// Input is case-insensitive and tolerates the historical spellings
// that older records still carry. Nothing past this boundary branches
// on raw strings.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "todo", "open", "backlog":
		return StatusTodo, nil
	case "doing", "in_progress", "in-progress", "inprogress", "started", "active":
		return StatusDoing, nil
	case "pending", "waiting", "blocked":
		return StatusPending, nil
	case "done", "completed", "complete", "closed":
		return StatusDone, nil
	}
	return "", ErrInvalidStatus
}
