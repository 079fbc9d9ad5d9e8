package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/evanmoss/taskweave/pkg/backend"
	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/evanmoss/taskweave/pkg/recur"
)

// AddTask validates and inserts a new task. The backend assigns the
// identifier and slug, so the local collection is updated after the
// command succeeds; the returned record is the server's authoritative
// version. Calendar sync for dated tasks runs asynchronously.
func (s *Store) AddTask(ctx context.Context, draft *model.Task) (*model.Task, error) {
	t := draft.Clone()
	if strings.TrimSpace(t.Title) == "" {
		return nil, model.ErrEmptyTitle
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	status, err := model.ParseStatus(string(t.Status))
	if err != nil {
		return nil, err
	}
	t.Status = status
	if (t.PlannedStart == nil) != (t.PlannedEnd == nil) {
		return nil, model.ErrHalfWindow
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	if t.ParentID != "" {
		s.mu.Lock()
		_, ok := s.tasks[t.ParentID]
		s.mu.Unlock()
		if !ok {
			return nil, model.ErrTaskNotFound
		}
	}

	created, err := s.backend.InsertTask(ctx, t)
	if err != nil {
		return nil, err
	}
	s.adoptServerTask(created)

	s.mu.Lock()
	s.tasks[created.ID] = created.Clone()
	s.mu.Unlock()

	s.syncAfterMutation(created.ID)
	return created, nil
}

// UpdateTask applies a partial update. The patch lands on local state
// immediately; a backend failure restores the pre-call snapshot
// byte-for-byte and surfaces the error.
func (s *Store) UpdateTask(ctx context.Context, id string, patch backend.TaskPatch) (*model.Task, error) {
	s.acquire(id)
	defer s.release(id)

	s.mu.Lock()
	cur, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return nil, model.ErrTaskNotFound
	}
	snapshot := cur.Clone()

	optimistic := cur.Clone()
	if err := applyPatch(optimistic, patch); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := validateTask(optimistic); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.tasks[id] = optimistic
	s.mu.Unlock()

	updated, err := s.backend.UpdateTask(ctx, id, patch)
	if err != nil {
		s.mu.Lock()
		s.tasks[id] = snapshot
		s.mu.Unlock()
		return nil, err
	}
	s.adoptServerTask(updated)

	s.mu.Lock()
	s.tasks[id] = updated.Clone()
	s.mu.Unlock()

	s.syncAfterMutation(id)
	return updated, nil
}

// UpdateStatus normalizes and applies a status change. Transitioning
// to done goes through CompleteTask so the completion timestamp and
// recurrence cascade apply.
func (s *Store) UpdateStatus(ctx context.Context, id, rawStatus string) (*model.Task, error) {
	status, err := model.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if status == model.StatusDone {
		return s.CompleteTask(ctx, id)
	}
	patch := backend.NewTaskPatch().SetStatus(status).SetCompletedAt(nil)
	return s.UpdateTask(ctx, id, patch)
}

// UpdateImportance sets or clears (nil) the importance rating.
func (s *Store) UpdateImportance(ctx context.Context, id string, importance *int) (*model.Task, error) {
	if importance != nil && (*importance < 0 || *importance > 100) {
		return nil, model.ErrInvalidImportance
	}
	return s.UpdateTask(ctx, id, backend.NewTaskPatch().SetImportance(importance))
}

// CompleteTask marks a task done, stamps the completion time, and for
// recurring tasks schedules creation of the successor occurrence. The
// successor is created asynchronously; its failure is reported on the
// notice stream and never undoes the completion.
func (s *Store) CompleteTask(ctx context.Context, id string) (*model.Task, error) {
	completedAt := s.now().UTC()
	patch := backend.NewTaskPatch().SetStatus(model.StatusDone).SetCompletedAt(&completedAt)

	task, err := s.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if task.Recurrence != nil {
		s.enqueueSuccessor(task.Clone())
	}
	return task, nil
}

// DeleteTask removes a task. Its remote calendar event, if any, is
// severed asynchronously after the backend delete commits.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.acquire(id)
	defer s.release(id)

	s.mu.Lock()
	cur, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return model.ErrTaskNotFound
	}
	snapshot := cur.Clone()
	snapEdges := append([]model.DependencyEdge(nil), s.edges...)
	delete(s.tasks, id)
	s.edges = edgesWithout(s.edges, map[string]bool{id: true})
	s.mu.Unlock()

	if err := s.backend.DeleteTasks(ctx, id); err != nil {
		s.mu.Lock()
		s.tasks[id] = snapshot
		s.edges = snapEdges
		s.mu.Unlock()
		return err
	}

	if snapshot.HasLinkage() {
		s.enqueueRemoteDelete(snapshot)
	}
	return nil
}

// DeleteSubtree removes a task and all its descendants with a single
// batch command, severing each remote event afterwards.
func (s *Store) DeleteSubtree(ctx context.Context, rootID string) error {
	s.acquire(rootID)
	defer s.release(rootID)

	s.mu.Lock()
	if _, ok := s.tasks[rootID]; !ok {
		s.mu.Unlock()
		return model.ErrTaskNotFound
	}

	doomed := map[string]bool{rootID: true}
	for {
		grew := false
		for _, t := range s.tasks {
			if !doomed[t.ID] && t.ParentID != "" && doomed[t.ParentID] {
				doomed[t.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	ids := make([]string, 0, len(doomed))
	snapshots := make([]*model.Task, 0, len(doomed))
	for id := range doomed {
		ids = append(ids, id)
		snapshots = append(snapshots, s.tasks[id].Clone())
	}
	snapEdges := append([]model.DependencyEdge(nil), s.edges...)
	for _, id := range ids {
		delete(s.tasks, id)
	}
	s.edges = edgesWithout(s.edges, doomed)
	s.mu.Unlock()

	if err := s.backend.DeleteTasks(ctx, ids...); err != nil {
		s.mu.Lock()
		for _, snap := range snapshots {
			s.tasks[snap.ID] = snap
		}
		s.edges = snapEdges
		s.mu.Unlock()
		return err
	}

	for _, snap := range snapshots {
		if snap.HasLinkage() {
			s.enqueueRemoteDelete(snap)
		}
	}
	return nil
}

// adoptServerTask normalizes server-returned fields at the boundary.
func (s *Store) adoptServerTask(t *model.Task) {
	status, err := model.ParseStatus(string(t.Status))
	if err != nil {
		s.log.Warn("server returned unknown status, treating as todo", "task", t.ID, "status", t.Status)
		status = model.StatusTodo
	}
	t.Status = status
}

// enqueueSuccessor creates the next occurrence of a completed
// recurring task: same rule, cleared planned window, deadline advanced
// by the recurrence calculator.
func (s *Store) enqueueSuccessor(done *model.Task) {
	s.enqueue(func(ctx context.Context) {
		if done.Deadline == nil {
			s.log.Warn("recurring task has no deadline, skipping successor", "task", done.ID)
			return
		}
		next := recur.NextDueDate(*done.Deadline, *done.Recurrence)
		rule := done.Recurrence.Clone()
		succ := &model.Task{
			Title:           done.Title,
			Description:     done.Description,
			Status:          model.StatusTodo,
			ParentID:        done.ParentID,
			Importance:      done.Importance,
			EstimateMinutes: done.EstimateMinutes,
			Deadline:        &next,
			Recurrence:      &rule,
		}
		created, err := s.AddTask(ctx, succ)
		notice := Notice{Kind: NoticeRecurrence, TaskID: done.ID, Err: err}
		if err == nil {
			notice.TaskID = created.ID
		} else {
			s.log.Warn("failed to create recurrence successor", "task", done.ID, "error", err)
		}
		s.notify(notice)
	})
}

// Sync schedules a reconciliation pass for one task.
func (s *Store) Sync(id string) {
	s.syncAfterMutation(id)
}

// SyncAll schedules a reconciliation pass for every task and returns
// how many were scheduled.
func (s *Store) SyncAll() int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.syncAfterMutation(id)
	}
	return len(ids)
}

// syncAfterMutation schedules a reconciliation pass for the task's
// current state. It runs on the worker, after the mutation has
// committed, and persists any linkage change it produces. A failed
// linkage persist is retried implicitly by the next mutation.
func (s *Store) syncAfterMutation(id string) {
	if s.reconciler == nil {
		return
	}
	s.enqueue(func(ctx context.Context) {
		s.mu.Lock()
		cur, ok := s.tasks[id]
		var task *model.Task
		if ok {
			task = cur.Clone()
		}
		s.mu.Unlock()
		if !ok {
			return
		}

		res := s.reconciler.Reconcile(ctx, task)
		if res.LinkageChanged {
			s.persistLinkage(ctx, id, res.EventID, res.CalendarID)
		}
		s.notify(Notice{Kind: NoticeSync, TaskID: id, Outcome: res.Outcome, Err: res.Err})
	})
}

// enqueueRemoteDelete severs the remote event of an already-deleted
// task. The reconciler's ownership check still applies.
func (s *Store) enqueueRemoteDelete(snapshot *model.Task) {
	if s.reconciler == nil {
		return
	}
	ghost := &model.Task{
		ID:         snapshot.ID,
		Title:      snapshot.Title,
		Status:     snapshot.Status,
		EventID:    snapshot.EventID,
		CalendarID: snapshot.CalendarID,
	}
	s.enqueue(func(ctx context.Context) {
		res := s.reconciler.Reconcile(ctx, ghost)
		s.notify(Notice{Kind: NoticeSync, TaskID: ghost.ID, Outcome: res.Outcome, Err: res.Err})
	})
}

func (s *Store) persistLinkage(ctx context.Context, id, eventID, calendarID string) {
	s.acquire(id)
	defer s.release(id)

	patch := backend.NewTaskPatch().SetLinkage(eventID, calendarID)
	if _, err := s.backend.UpdateTask(ctx, id, patch); err != nil {
		s.log.Warn("could not persist calendar linkage, will retry on next mutation",
			"task", id, "error", err)
		return
	}

	s.mu.Lock()
	if cur, ok := s.tasks[id]; ok {
		cur.EventID = eventID
		cur.CalendarID = calendarID
	}
	s.mu.Unlock()
}

func validateTask(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return model.ErrEmptyTitle
	}
	if !t.Status.Valid() {
		return model.ErrInvalidStatus
	}
	if (t.PlannedStart == nil) != (t.PlannedEnd == nil) {
		return model.ErrHalfWindow
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	if t.Importance != nil && (*t.Importance < 0 || *t.Importance > 100) {
		return model.ErrInvalidImportance
	}
	return nil
}

// applyPatch replays a backend patch onto a local task copy. JSON
// round-tripping gives patch-null semantics for free on pointer
// fields; nullable string fields need explicit handling.
func applyPatch(t *model.Task, patch backend.TaskPatch) error {
	buf, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(buf, t); err != nil {
		return err
	}
	if v, ok := patch["parent_id"]; ok && v == nil {
		t.ParentID = ""
	}
	if v, ok := patch["gcal_event_id"]; ok && v == nil {
		t.EventID = ""
	}
	if v, ok := patch["gcal_calendar_id"]; ok && v == nil {
		t.CalendarID = ""
	}
	return nil
}

func edgesWithout(edges []model.DependencyEdge, gone map[string]bool) []model.DependencyEdge {
	kept := edges[:0:0]
	for _, e := range edges {
		if gone[e.PredecessorID] || gone[e.SuccessorID] {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
