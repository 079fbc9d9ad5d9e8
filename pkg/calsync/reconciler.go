// Package calsync reconciles tasks against their remote calendar
// events.
// Reconciliation is best-effort and idempotent: it runs after a task
// mutation has already committed, and its failures never undo that
// mutation.
package calsync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evanmoss/taskweave/pkg/model"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// EventAPI is the slice of the calendar service the reconciler needs.
// *gcal.Client satisfies it; tests substitute fakes.
type EventAPI interface {
	CalendarID() string
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	Update(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error)
	Get(ctx context.Context, eventID string) (*calendar.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// Outcome labels what a reconciliation attempt did. It is transient
// reporting state, never persisted.
type Outcome string

const (
	OutcomeNoop         Outcome = "noop"
	OutcomeCreated      Outcome = "created"
	OutcomeCreateFailed Outcome = "create-failed"
	OutcomeUpdated      Outcome = "updated"
	OutcomeUpdateFailed Outcome = "update-failed"
	OutcomeDeleted      Outcome = "deleted"
	OutcomeDeleteFailed Outcome = "delete-failed"
)

// Result reports one reconciliation attempt. When LinkageChanged is
// true the task's linkage must be re-persisted: EventID/CalendarID
// hold the new pair, both empty meaning the linkage was severed.
type Result struct {
	TaskID         string
	Outcome        Outcome
	EventID        string
	CalendarID     string
	LinkageChanged bool
	Err            error
}

// Failed reports whether the attempt ended in a failure outcome.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Reconciler decides per task whether to create, update, or delete its
// remote calendar event, and performs the call.
type Reconciler struct {
	api EventAPI
	log *slog.Logger
}

// New creates a Reconciler. A nil logger falls back to slog.Default.
func New(api EventAPI, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{api: api, log: log}
}

// Reconcile evaluates the decision table on the task's current state:
//
//	no linkage, no dates  → nothing to do
//	no linkage, dates     → create remote event
//	linkage, dates        → replace remote event in place
//	linkage, no dates     → delete remote event (after ownership check)
func (r *Reconciler) Reconcile(ctx context.Context, task *model.Task) Result {
	switch {
	case !task.HasLinkage() && !task.HasDates():
		return Result{TaskID: task.ID, Outcome: OutcomeNoop}
	case !task.HasLinkage():
		return r.create(ctx, task)
	case task.HasDates():
		return r.update(ctx, task)
	default:
		return r.delete(ctx, task)
	}
}

func (r *Reconciler) create(ctx context.Context, task *model.Task) Result {
	created, err := r.api.Insert(ctx, BuildEvent(task))
	if err != nil {
		return r.fail(task, OutcomeCreateFailed, "create event", err)
	}
	r.log.Info("created calendar event", "task", task.ID, "event", created.Id)
	return Result{
		TaskID:         task.ID,
		Outcome:        OutcomeCreated,
		EventID:        created.Id,
		CalendarID:     r.api.CalendarID(),
		LinkageChanged: true,
	}
}

func (r *Reconciler) update(ctx context.Context, task *model.Task) Result {
	_, err := r.api.Update(ctx, task.EventID, BuildEvent(task))
	if isNotFound(err) {
		// The event vanished remotely. Idempotent success; drop the
		// stale linkage so the next mutation recreates the event.
		r.log.Info("remote event already gone, clearing linkage", "task", task.ID, "event", task.EventID)
		return Result{TaskID: task.ID, Outcome: OutcomeUpdated, LinkageChanged: true}
	}
	if err != nil {
		return r.fail(task, OutcomeUpdateFailed, "update event", err)
	}
	return Result{
		TaskID:     task.ID,
		Outcome:    OutcomeUpdated,
		EventID:    task.EventID,
		CalendarID: task.CalendarID,
	}
}

// delete severs the remote event. Before issuing the DELETE it fetches
// the event and verifies our ownership marker; an unmarked event is
// somebody else's data and deleting it would be unrecoverable, so the
// attempt aborts with an IntegrityError instead.
func (r *Reconciler) delete(ctx context.Context, task *model.Task) Result {
	severed := Result{TaskID: task.ID, Outcome: OutcomeDeleted, LinkageChanged: true}

	event, err := r.api.Get(ctx, task.EventID)
	if isNotFound(err) {
		return severed
	}
	if err != nil {
		return r.fail(task, OutcomeDeleteFailed, "verify event ownership", err)
	}
	if !IsOwned(event) {
		ierr := &model.IntegrityError{EventID: task.EventID, Err: model.ErrForeignEvent}
		r.log.Error("refusing to delete unowned event", "task", task.ID, "event", task.EventID)
		return Result{TaskID: task.ID, Outcome: OutcomeDeleteFailed, Err: ierr}
	}

	if err := r.api.Delete(ctx, task.EventID); err != nil && !isNotFound(err) {
		return r.fail(task, OutcomeDeleteFailed, "delete event", err)
	}
	r.log.Info("deleted calendar event", "task", task.ID, "event", task.EventID)
	return severed
}

func (r *Reconciler) fail(task *model.Task, outcome Outcome, op string, err error) Result {
	serr := &model.SyncError{Op: op, TaskID: task.ID, Err: err}
	if isAuthError(err) {
		r.log.Warn("calendar credential rejected", "task", task.ID, "op", op, "error", err)
	} else {
		r.log.Warn("calendar call failed", "task", task.ID, "op", op, "error", err)
	}
	return Result{TaskID: task.ID, Outcome: outcome, Err: serr}
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func isNotFound(err error) bool {
	return err != nil && statusCode(err) == 404
}

func isAuthError(err error) bool {
	code := statusCode(err)
	return code == 401 || code == 403
}
