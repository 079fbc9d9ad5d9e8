package store

import (
	"context"
	"errors"
	"time"

	"github.com/evanmoss/taskweave/pkg/backend"
	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/evanmoss/taskweave/pkg/prefs"
)

var errNoPrefs = errors.New("store: preference persistence is not configured")

// ActiveTimer returns the running timer, or nil.
func (s *Store) ActiveTimer() *prefs.TimerState {
	if s.prefs == nil {
		return nil
	}
	return s.prefs.Get().Timer
}

// StartTimer begins tracking time against a task. The start instant is
// persisted so a restart can resume the timer.
func (s *Store) StartTimer(taskID string) error {
	if s.prefs == nil {
		return errNoPrefs
	}
	if s.prefs.Get().Timer != nil {
		return model.ErrTimerRunning
	}
	s.mu.Lock()
	_, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return model.ErrTaskNotFound
	}

	s.prefs.SetTimer(&prefs.TimerState{TaskID: taskID, StartedAt: s.now().UTC()})
	return s.prefs.Save()
}

// StopTimer stops the running timer and accumulates the elapsed time
// (rounded up to whole minutes, at least one) onto the task through
// the normal optimistic update path.
func (s *Store) StopTimer(ctx context.Context) (*model.Task, error) {
	if s.prefs == nil {
		return nil, errNoPrefs
	}
	state := s.prefs.Get().Timer
	if state == nil {
		return nil, model.ErrNoTimer
	}

	elapsed := s.now().Sub(state.StartedAt)
	minutes := int((elapsed + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	cur, err := s.Task(state.TaskID)
	if err != nil {
		// The task is gone; discard the orphaned timer.
		s.prefs.SetTimer(nil)
		if serr := s.prefs.Save(); serr != nil {
			s.log.Warn("could not clear orphaned timer", "error", serr)
		}
		return nil, err
	}

	patch := backend.NewTaskPatch().SetActualMinutes(cur.ActualMinutes + minutes)
	updated, err := s.UpdateTask(ctx, state.TaskID, patch)
	if err != nil {
		return nil, err
	}

	s.prefs.SetTimer(nil)
	if serr := s.prefs.Save(); serr != nil {
		s.log.Warn("could not persist timer state", "error", serr)
	}
	return updated, nil
}

// Scope returns the last-active hierarchy scope.
func (s *Store) Scope() string {
	if s.prefs == nil {
		return ""
	}
	return s.prefs.Get().Scope
}

// SetScope records the active hierarchy scope.
func (s *Store) SetScope(scope string) {
	if s.prefs == nil {
		return
	}
	s.prefs.SetScope(scope)
	if err := s.prefs.Save(); err != nil {
		s.log.Warn("could not persist scope", "error", err)
	}
}

// ShowCompleted returns the completed-tasks visibility toggle.
func (s *Store) ShowCompleted() bool {
	if s.prefs == nil {
		return true
	}
	return s.prefs.Get().ShowCompleted
}

// SetShowCompleted records the completed-tasks visibility toggle.
func (s *Store) SetShowCompleted(show bool) {
	if s.prefs == nil {
		return
	}
	s.prefs.SetShowCompleted(show)
	if err := s.prefs.Save(); err != nil {
		s.log.Warn("could not persist visibility toggle", "error", err)
	}
}
