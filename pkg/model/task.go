// Package model contains the core task entities shared by every other
// package: tasks, dependency edges, recurrence rules, and the error
// taxonomy of the engine.
package model

import "time"

// Task represents a unit of work. Pointer fields are absent when nil;
// PlannedStart/PlannedEnd and EventID/CalendarID are paired: either
// both set or both empty.
type Task struct {
	ID          string `json:"id"`
	Slug        string `json:"slug,omitempty"` // server-computed, unique
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	ParentID    string `json:"parent_id,omitempty"` // "" = root

	Importance      *int `json:"importance,omitempty"` // 0..100
	EstimateMinutes *int `json:"estimate_minutes,omitempty"`
	ActualMinutes   int  `json:"actual_minutes,omitempty"`

	Deadline     *time.Time `json:"deadline,omitempty"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Recurrence *RecurrenceRule `json:"recurrence,omitempty"`

	// External calendar linkage.
	EventID    string `json:"gcal_event_id,omitempty"`
	CalendarID string `json:"gcal_calendar_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsRoot returns true if the task has no parent.
func (t *Task) IsRoot() bool {
	return t.ParentID == ""
}

// HasLinkage reports whether the task is tied to a remote calendar event.
func (t *Task) HasLinkage() bool {
	return t.EventID != "" && t.CalendarID != ""
}

// HasDates reports whether any calendar-relevant date field is set.
// Tasks without dates are never represented on the remote calendar.
func (t *Task) HasDates() bool {
	return t.Deadline != nil || t.PlannedStart != nil || t.PlannedEnd != nil
}

// IsScheduled reports whether the task carries a complete planned window.
func (t *Task) IsScheduled() bool {
	return t.PlannedStart != nil && t.PlannedEnd != nil
}

// Clone returns a deep copy. The store snapshots tasks with Clone
// before an optimistic mutation so a backend failure can restore the
// exact prior state.
func (t *Task) Clone() *Task {
	c := *t
	c.Importance = cloneIntPtr(t.Importance)
	c.EstimateMinutes = cloneIntPtr(t.EstimateMinutes)
	c.Deadline = cloneTimePtr(t.Deadline)
	c.PlannedStart = cloneTimePtr(t.PlannedStart)
	c.PlannedEnd = cloneTimePtr(t.PlannedEnd)
	c.CompletedAt = cloneTimePtr(t.CompletedAt)
	if t.Recurrence != nil {
		r := t.Recurrence.Clone()
		c.Recurrence = &r
	}
	return &c
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DependencyEdge is a directed predecessor → successor ordering
// constraint between two tasks. Edges are created and removed whole,
// never updated in place.
type DependencyEdge struct {
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`
}

// Validate rejects incomplete and self-loop edges.
func (e DependencyEdge) Validate() error {
	if e.PredecessorID == "" || e.SuccessorID == "" {
		return ErrEdgeIncomplete
	}
	if e.PredecessorID == e.SuccessorID {
		return ErrSelfLoop
	}
	return nil
}
