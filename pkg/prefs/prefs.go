// Package prefs persists local user preferences: the last-active
// hierarchy scope, the completed-tasks visibility toggle, the
// destination calendar, and running timer state. Losing this file only
// degrades continuity, never data correctness.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	xdgAppName = "taskweave"
	prefsFile  = "prefs.json"

	// DefaultCalendar is used until the user picks a destination.
	DefaultCalendar = "Tasks"
)

// TimerState records an active work timer so a restart can resume it.
type TimerState struct {
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"started_at"`
}

// Prefs is the persisted preference set.
type Prefs struct {
	Scope         string      `json:"scope,omitempty"` // parent task id, "" = roots
	ShowCompleted bool        `json:"show_completed"`
	Calendar      string      `json:"calendar,omitempty"`
	Timer         *TimerState `json:"timer,omitempty"`
}

// Store is a JSON-file preference store with a dirty flag so Save is
// a no-op when nothing changed.
type Store struct {
	path  string
	mu    sync.Mutex
	prefs Prefs
	dirty bool
}

// DefaultPath returns the preference file location under the user's
// config directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, prefsFile), nil
}

// Open loads preferences from path, falling back to defaults when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		prefs: Prefs{Calendar: DefaultCalendar},
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&s.prefs); err != nil {
		return nil, err
	}
	if s.prefs.Calendar == "" {
		s.prefs.Calendar = DefaultCalendar
	}
	return s, nil
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prefs
	if s.prefs.Timer != nil {
		t := *s.prefs.Timer
		p.Timer = &t
	}
	return p
}

// SetScope records the last-active hierarchy scope.
func (s *Store) SetScope(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.Scope != scope {
		s.prefs.Scope = scope
		s.dirty = true
	}
}

// SetShowCompleted records the completed-tasks visibility toggle.
func (s *Store) SetShowCompleted(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.ShowCompleted != show {
		s.prefs.ShowCompleted = show
		s.dirty = true
	}
}

// SetCalendar records the destination calendar.
func (s *Store) SetCalendar(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.Calendar != name {
		s.prefs.Calendar = name
		s.dirty = true
	}
}

// SetTimer records or clears (nil) the running timer.
func (s *Store) SetTimer(t *TimerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Timer = t
	s.dirty = true
}

// Save writes the preferences back to disk if anything changed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.prefs); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
