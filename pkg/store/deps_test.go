package store

import (
	"context"
	"testing"

	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDependency(t *testing.T) {
	mb := newMockBackend()
	s := newTestStore(t, Config{Backend: mb})
	defer drain(t, s)

	ctx := context.Background()
	a, err := s.AddTask(ctx, &model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := s.AddTask(ctx, &model.Task{Title: "b"})
	require.NoError(t, err)
	c, err := s.AddTask(ctx, &model.Task{Title: "c"})
	require.NoError(t, err)

	require.NoError(t, s.AddDependency(ctx, a.ID, b.ID))
	require.NoError(t, s.AddDependency(ctx, b.ID, c.ID))
	assert.Len(t, s.Edges(), 2)
	assert.Len(t, mb.edges, 2)

	assert.ErrorIs(t, s.AddDependency(ctx, a.ID, a.ID), model.ErrSelfLoop)
	assert.ErrorIs(t, s.AddDependency(ctx, a.ID, ""), model.ErrEdgeIncomplete)
	assert.ErrorIs(t, s.AddDependency(ctx, a.ID, "ghost"), model.ErrTaskNotFound)
	assert.ErrorIs(t, s.AddDependency(ctx, c.ID, a.ID), model.ErrDependencyCycle)
	assert.Len(t, s.Edges(), 2, "rejected edges must not reach the edge set")
}

func TestAddDependencyBackendFailureLeavesEdgesUntouched(t *testing.T) {
	mb := newMockBackend()
	s := newTestStore(t, Config{Backend: mb})
	defer drain(t, s)

	ctx := context.Background()
	a, err := s.AddTask(ctx, &model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := s.AddTask(ctx, &model.Task{Title: "b"})
	require.NoError(t, err)

	mb.mu.Lock()
	mb.edgeErr = &model.BackendError{Op: "insert edge", Err: context.DeadlineExceeded}
	mb.mu.Unlock()

	require.Error(t, s.AddDependency(ctx, a.ID, b.ID))
	assert.Empty(t, s.Edges())
}

func TestRemoveDependency(t *testing.T) {
	mb := newMockBackend()
	s := newTestStore(t, Config{Backend: mb})
	defer drain(t, s)

	ctx := context.Background()
	a, err := s.AddTask(ctx, &model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := s.AddTask(ctx, &model.Task{Title: "b"})
	require.NoError(t, err)
	require.NoError(t, s.AddDependency(ctx, a.ID, b.ID))

	assert.ErrorIs(t, s.RemoveDependency(ctx, b.ID, a.ID), model.ErrEdgeNotFound)

	require.NoError(t, s.RemoveDependency(ctx, a.ID, b.ID))
	assert.Empty(t, s.Edges())
	assert.Empty(t, mb.edges)
}

func TestDeleteTaskDropsIncidentEdges(t *testing.T) {
	mb := newMockBackend()
	s := newTestStore(t, Config{Backend: mb})
	defer drain(t, s)

	ctx := context.Background()
	a, err := s.AddTask(ctx, &model.Task{Title: "a"})
	require.NoError(t, err)
	b, err := s.AddTask(ctx, &model.Task{Title: "b"})
	require.NoError(t, err)
	c, err := s.AddTask(ctx, &model.Task{Title: "c"})
	require.NoError(t, err)
	require.NoError(t, s.AddDependency(ctx, a.ID, b.ID))
	require.NoError(t, s.AddDependency(ctx, b.ID, c.ID))

	require.NoError(t, s.DeleteTask(ctx, b.ID))

	assert.Empty(t, s.Edges(), "edges touching a deleted task must go with it")
}
