package calsync

import (
	"context"
	"testing"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// fakeAPI is an in-memory EventAPI recording every call.
type fakeAPI struct {
	events map[string]*calendar.Event
	nextID int

	insertErr error
	updateErr error
	getErr    error
	deleteErr error

	inserts int
	updates int
	gets    int
	deletes int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{events: make(map[string]*calendar.Event), nextID: 1}
}

func (f *fakeAPI) CalendarID() string { return "cal-1" }

func (f *fakeAPI) Insert(_ context.Context, event *calendar.Event) (*calendar.Event, error) {
	f.inserts++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	event.Id = "evt-" + string(rune('0'+f.nextID))
	f.nextID++
	f.events[event.Id] = event
	return event, nil
}

func (f *fakeAPI) Update(_ context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.events[eventID]; !ok {
		return nil, notFoundErr()
	}
	event.Id = eventID
	f.events[eventID] = event
	return event, nil
}

func (f *fakeAPI) Get(_ context.Context, eventID string) (*calendar.Event, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	event, ok := f.events[eventID]
	if !ok {
		return nil, notFoundErr()
	}
	return event, nil
}

func (f *fakeAPI) Delete(_ context.Context, eventID string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[eventID]; !ok {
		return notFoundErr()
	}
	delete(f.events, eventID)
	return nil
}

func notFoundErr() error {
	return &googleapi.Error{Code: 404, Message: "not found"}
}

func authErr() error {
	return &googleapi.Error{Code: 401, Message: "unauthorized"}
}

func deadlineTask() *model.Task {
	d := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)
	return &model.Task{ID: "t1", Title: "write report", Status: model.StatusTodo, Deadline: &d}
}

func TestReconcileNoopWithoutDatesOrLinkage(t *testing.T) {
	api := newFakeAPI()
	r := New(api, nil)

	res := r.Reconcile(context.Background(), &model.Task{ID: "t1", Title: "x", Status: model.StatusTodo})
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.Zero(t, api.inserts+api.updates+api.gets+api.deletes)
}

func TestReconcileCreatesEventForDatedTask(t *testing.T) {
	api := newFakeAPI()
	r := New(api, nil)

	res := r.Reconcile(context.Background(), deadlineTask())
	require.False(t, res.Failed())
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.True(t, res.LinkageChanged)
	assert.NotEmpty(t, res.EventID)
	assert.Equal(t, "cal-1", res.CalendarID)
	assert.Equal(t, 1, api.inserts)
}

func TestReconcileUpdatesLinkedTask(t *testing.T) {
	api := newFakeAPI()
	api.events["evt-9"] = &calendar.Event{Id: "evt-9"}
	r := New(api, nil)

	task := deadlineTask()
	task.EventID = "evt-9"
	task.CalendarID = "cal-1"

	res := r.Reconcile(context.Background(), task)
	require.False(t, res.Failed())
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.False(t, res.LinkageChanged)
	assert.Equal(t, 1, api.updates)
	assert.Zero(t, api.inserts)
}

func TestReconcileDeletesWhenDatesRemoved(t *testing.T) {
	api := newFakeAPI()
	api.events["evt-9"] = &calendar.Event{Id: "evt-9", Description: attributionTag("t1")}
	r := New(api, nil)

	task := &model.Task{ID: "t1", Title: "x", Status: model.StatusTodo, EventID: "evt-9", CalendarID: "cal-1"}

	res := r.Reconcile(context.Background(), task)
	require.False(t, res.Failed())
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.True(t, res.LinkageChanged)
	assert.Empty(t, res.EventID)
	assert.Equal(t, 1, api.deletes)
	assert.Empty(t, api.events)
}

func TestReconcileDeleteRefusesForeignEvent(t *testing.T) {
	api := newFakeAPI()
	api.events["evt-9"] = &calendar.Event{Id: "evt-9", Description: "somebody's dentist appointment"}
	r := New(api, nil)

	task := &model.Task{ID: "t1", Title: "x", Status: model.StatusTodo, EventID: "evt-9", CalendarID: "cal-1"}

	res := r.Reconcile(context.Background(), task)
	require.True(t, res.Failed())
	assert.Equal(t, OutcomeDeleteFailed, res.Outcome)
	var ierr *model.IntegrityError
	require.ErrorAs(t, res.Err, &ierr)
	assert.ErrorIs(t, res.Err, model.ErrForeignEvent)
	assert.Zero(t, api.deletes, "no DELETE may be issued for an unowned event")
}

func TestReconcileDelete404IsSuccess(t *testing.T) {
	api := newFakeAPI()
	r := New(api, nil)

	task := &model.Task{ID: "t1", Title: "x", Status: model.StatusTodo, EventID: "gone", CalendarID: "cal-1"}

	res := r.Reconcile(context.Background(), task)
	require.False(t, res.Failed())
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.True(t, res.LinkageChanged)
	assert.Zero(t, api.deletes)
}

func TestReconcileUpdate404ClearsStaleLinkage(t *testing.T) {
	api := newFakeAPI()
	r := New(api, nil)

	task := deadlineTask()
	task.EventID = "gone"
	task.CalendarID = "cal-1"

	res := r.Reconcile(context.Background(), task)
	require.False(t, res.Failed())
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.True(t, res.LinkageChanged)
	assert.Empty(t, res.EventID)
}

func TestReconcileAuthFailureIsSyncError(t *testing.T) {
	api := newFakeAPI()
	api.insertErr = authErr()
	r := New(api, nil)

	res := r.Reconcile(context.Background(), deadlineTask())
	require.True(t, res.Failed())
	assert.Equal(t, OutcomeCreateFailed, res.Outcome)
	var serr *model.SyncError
	assert.ErrorAs(t, res.Err, &serr)
}

func TestBuildEventTimedWindow(t *testing.T) {
	start := time.Date(2025, 12, 22, 9, 30, 0, 0, time.UTC)
	end := time.Date(2025, 12, 22, 11, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "t1", Title: "meet", Status: model.StatusTodo, PlannedStart: &start, PlannedEnd: &end}

	event := BuildEvent(task)
	assert.Equal(t, "2025-12-22T09:30:00Z", event.Start.DateTime)
	assert.Equal(t, "2025-12-22T11:00:00Z", event.End.DateTime)
	assert.Empty(t, event.Start.Date)
}

func TestBuildEventAllDayWindow(t *testing.T) {
	start := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 23, 0, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "t1", Title: "offsite", Status: model.StatusTodo, PlannedStart: &start, PlannedEnd: &end}

	event := BuildEvent(task)
	assert.Equal(t, "2025-12-22", event.Start.Date)
	// Exclusive end: the 23rd is included, so the bound is the 24th.
	assert.Equal(t, "2025-12-24", event.End.Date)
	assert.Empty(t, event.Start.DateTime)
}

func TestBuildEventDeadlineOnly(t *testing.T) {
	event := BuildEvent(deadlineTask())
	assert.Equal(t, "2025-12-22", event.Start.Date)
	assert.Equal(t, "2025-12-23", event.End.Date)
}

func TestBuildEventStartOnlyIsOneHour(t *testing.T) {
	start := time.Date(2025, 12, 22, 14, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "t1", Title: "call", Status: model.StatusTodo, PlannedStart: &start}

	event := BuildEvent(task)
	assert.Equal(t, "2025-12-22T14:00:00Z", event.Start.DateTime)
	assert.Equal(t, "2025-12-22T15:00:00Z", event.End.DateTime)
}

func TestBuildEventCarriesAttribution(t *testing.T) {
	event := BuildEvent(deadlineTask())
	assert.Contains(t, event.Description, "[taskweave:t1]")
	require.NotNil(t, event.ExtendedProperties)
	assert.Equal(t, "t1", event.ExtendedProperties.Private["taskweave_id"])
	assert.True(t, IsOwned(event))
}

func TestColorForImportance(t *testing.T) {
	high, mid, low := 90, 60, 10
	assert.Equal(t, colorTomato, colorForImportance(&high))
	assert.Equal(t, colorBanana, colorForImportance(&mid))
	assert.Equal(t, colorSage, colorForImportance(&low))
	assert.Equal(t, colorLavender, colorForImportance(nil))
}
