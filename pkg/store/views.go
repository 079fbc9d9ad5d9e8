package store

import (
	"sort"

	"github.com/evanmoss/taskweave/pkg/depgraph"
	"github.com/evanmoss/taskweave/pkg/model"
)

// Task returns a copy of one task.
func (s *Store) Task(id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// Tasks returns copies of every task in a stable order.
func (s *Store) Tasks() []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortTasks(s.collect(func(*model.Task) bool { return true }))
}

// Edges returns a copy of the dependency edge set.
func (s *Store) Edges() []model.DependencyEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DependencyEdge(nil), s.edges...)
}

// ScopedTasks returns the direct children of parentID, or the root
// tasks when parentID is empty.
func (s *Store) ScopedTasks(parentID string) []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortTasks(s.collect(func(t *model.Task) bool {
		return t.ParentID == parentID
	}))
}

// UnscheduledTasks returns tasks missing either planned bound.
func (s *Store) UnscheduledTasks() []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortTasks(s.collect(func(t *model.Task) bool {
		return !t.IsScheduled()
	}))
}

// VisibleTasks returns every task, or only the unfinished ones when
// showCompleted is false.
func (s *Store) VisibleTasks(showCompleted bool) []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortTasks(s.collect(func(t *model.Task) bool {
		return showCompleted || !t.Status.IsDone()
	}))
}

// Warnings reports ordering problems between a task and its
// predecessors.
func (s *Store) Warnings(taskID string) ([]depgraph.Warning, error) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return nil, model.ErrTaskNotFound
	}
	task = task.Clone()
	tasks := make(map[string]*model.Task, len(s.tasks))
	for id, t := range s.tasks {
		tasks[id] = t
	}
	edges := append([]model.DependencyEdge(nil), s.edges...)
	s.mu.Unlock()

	return depgraph.Warnings(task, tasks, edges, s.log), nil
}

// Levels computes layout levels for the given tasks, or for the whole
// collection when ids is nil. Edges leaving the visible set are
// ignored.
func (s *Store) Levels(ids []string) map[string]int {
	s.mu.Lock()
	visible := make(map[string]*model.Task)
	if ids == nil {
		for id, t := range s.tasks {
			visible[id] = t
		}
	} else {
		for _, id := range ids {
			if t, ok := s.tasks[id]; ok {
				visible[id] = t
			}
		}
	}
	edges := append([]model.DependencyEdge(nil), s.edges...)
	s.mu.Unlock()

	return depgraph.Levels(visible, edges)
}

// collect filters tasks under the store lock; callers hold s.mu.
func (s *Store) collect(keep func(*model.Task) bool) []*model.Task {
	var out []*model.Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func sortTasks(tasks []*model.Task) []*model.Task {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}
