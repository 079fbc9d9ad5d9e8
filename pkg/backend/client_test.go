package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTaskReturnsServerFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var in model.Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "srv-1"
		in.Slug = "write-report"
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	created, err := c.InsertTask(context.Background(), &model.Task{Title: "write report", Status: model.StatusTodo})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, "write-report", created.Slug)
	assert.Equal(t, "write report", created.Title)
}

func TestUpdateTaskSendsExplicitNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/tasks/t1", r.URL.Path)

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		// Clearing a field must travel as an explicit null, not be omitted.
		require.Contains(t, raw, "deadline")
		assert.Equal(t, "null", string(raw["deadline"]))
		assert.NotContains(t, raw, "title")

		json.NewEncoder(w).Encode(model.Task{ID: "t1", Title: "kept", Status: model.StatusTodo})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	updated, err := c.UpdateTask(context.Background(), "t1", NewTaskPatch().SetDeadline(nil))
	require.NoError(t, err)
	assert.Equal(t, "kept", updated.Title)
}

func TestDeleteTasksBatch(t *testing.T) {
	var gotIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotIDs = body.IDs
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.DeleteTasks(context.Background(), "a", "b"))
	assert.Equal(t, []string{"a", "b"}, gotIDs)

	// No identifiers means no request at all.
	require.NoError(t, c.DeleteTasks(context.Background()))
}

func TestErrorsAreBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	var be *model.BackendError
	assert.ErrorAs(t, err, &be)
}

func TestEdgeRoundTrip(t *testing.T) {
	var inserted, deleted model.DependencyEdge
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dependencies", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleted))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			json.NewEncoder(w).Encode([]model.DependencyEdge{{PredecessorID: "a", SuccessorID: "b"}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	edge := model.DependencyEdge{PredecessorID: "a", SuccessorID: "b"}
	require.NoError(t, c.InsertEdge(context.Background(), edge))
	assert.Equal(t, edge, inserted)

	edges, err := c.ListEdges(context.Background())
	require.NoError(t, err)
	require.Len(t, edges, 1)

	require.NoError(t, c.DeleteEdge(context.Background(), edge))
	assert.Equal(t, edge, deleted)
}

func TestTaskJSONRoundTrip(t *testing.T) {
	deadline := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:       "t1",
		Title:    "x",
		Status:   model.StatusPending,
		Deadline: &deadline,
		Recurrence: &model.RecurrenceRule{
			Type: model.RecurWeekly, Interval: 2, DaysOfWeek: []int{2, 4},
		},
	}

	buf, err := json.Marshal(task)
	require.NoError(t, err)

	var back model.Task
	require.NoError(t, json.Unmarshal(buf, &back))
	assert.Equal(t, task, back)
}
