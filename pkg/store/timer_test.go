package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/evanmoss/taskweave/pkg/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimerStore(t *testing.T, clock *time.Time) (*Store, *mockBackend, *prefs.Store) {
	t.Helper()
	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	mb := newMockBackend()
	s := newTestStore(t, Config{
		Backend: mb,
		Prefs:   p,
		Clock:   func() time.Time { return *clock },
	})
	return s, mb, p
}

func TestTimerAccumulatesMinutes(t *testing.T) {
	clock := testNow
	s, _, p := newTimerStore(t, &clock)
	defer drain(t, s)

	created, err := s.AddTask(context.Background(), &model.Task{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, s.StartTimer(created.ID))
	state := s.ActiveTimer()
	require.NotNil(t, state)
	assert.Equal(t, created.ID, state.TaskID)

	// The start instant is persisted immediately so a restart resumes.
	require.NotNil(t, p.Get().Timer)
	assert.True(t, p.Get().Timer.StartedAt.Equal(testNow))

	assert.ErrorIs(t, s.StartTimer(created.ID), model.ErrTimerRunning)

	clock = clock.Add(25*time.Minute + 30*time.Second)
	task, err := s.StopTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26, task.ActualMinutes, "partial minutes round up")
	assert.Nil(t, s.ActiveTimer())

	_, err = s.StopTimer(context.Background())
	assert.ErrorIs(t, err, model.ErrNoTimer)
}

func TestStopTimerMinimumOneMinute(t *testing.T) {
	clock := testNow
	s, _, _ := newTimerStore(t, &clock)
	defer drain(t, s)

	created, err := s.AddTask(context.Background(), &model.Task{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, s.StartTimer(created.ID))
	clock = clock.Add(5 * time.Second)

	task, err := s.StopTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, task.ActualMinutes)
}

func TestStopTimerDiscardsOrphanedTimer(t *testing.T) {
	clock := testNow
	s, _, _ := newTimerStore(t, &clock)
	defer drain(t, s)

	ctx := context.Background()
	created, err := s.AddTask(ctx, &model.Task{Title: "x"})
	require.NoError(t, err)
	require.NoError(t, s.StartTimer(created.ID))
	require.NoError(t, s.DeleteTask(ctx, created.ID))

	_, err = s.StopTimer(ctx)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	assert.Nil(t, s.ActiveTimer(), "a timer pointing at a deleted task is discarded")
}

func TestStartTimerUnknownTask(t *testing.T) {
	clock := testNow
	s, _, _ := newTimerStore(t, &clock)
	defer drain(t, s)

	assert.ErrorIs(t, s.StartTimer("ghost"), model.ErrTaskNotFound)
}
