package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	p := s.Get()
	assert.Equal(t, DefaultCalendar, p.Calendar)
	assert.Empty(t, p.Scope)
	assert.False(t, p.ShowCompleted)
	assert.Nil(t, p.Timer)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)

	started := time.Date(2025, 12, 22, 9, 0, 0, 0, time.UTC)
	s.SetScope("t-42")
	s.SetShowCompleted(true)
	s.SetCalendar("Work")
	s.SetTimer(&TimerState{TaskID: "t-42", StartedAt: started})
	require.NoError(t, s.Save())

	reloaded, err := Open(path)
	require.NoError(t, err)
	p := reloaded.Get()
	assert.Equal(t, "t-42", p.Scope)
	assert.True(t, p.ShowCompleted)
	assert.Equal(t, "Work", p.Calendar)
	require.NotNil(t, p.Timer)
	assert.Equal(t, "t-42", p.Timer.TaskID)
	assert.True(t, p.Timer.StartedAt.Equal(started))
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	// Nothing was changed, so no file should have been written.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	s.SetScope("x")
	require.NoError(t, s.Save())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGetReturnsTimerCopy(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	s.SetTimer(&TimerState{TaskID: "a", StartedAt: time.Now()})
	p := s.Get()
	p.Timer.TaskID = "mutated"

	assert.Equal(t, "a", s.Get().Timer.TaskID)
}
