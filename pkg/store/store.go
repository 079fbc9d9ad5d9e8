// Package store holds the canonical in-memory task and dependency
// state. Every mutation is optimistic: local state changes first, the
// backend command follows, and a backend failure restores the exact
// prior state. Calendar reconciliation and recurrence cascades run
// asynchronously after a successful commit and never block or undo it.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evanmoss/taskweave/pkg/backend"
	"github.com/evanmoss/taskweave/pkg/calsync"
	"github.com/evanmoss/taskweave/pkg/model"
	"github.com/evanmoss/taskweave/pkg/prefs"
)

// Backend is the data-service surface the store depends on.
// *backend.Client satisfies it.
type Backend interface {
	InsertTask(ctx context.Context, task *model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch backend.TaskPatch) (*model.Task, error)
	DeleteTasks(ctx context.Context, ids ...string) error
	ListTasks(ctx context.Context) ([]model.Task, error)
	InsertEdge(ctx context.Context, edge model.DependencyEdge) error
	DeleteEdge(ctx context.Context, edge model.DependencyEdge) error
	ListEdges(ctx context.Context) ([]model.DependencyEdge, error)
}

// Reconciler pushes a task's date state to the remote calendar.
type Reconciler interface {
	Reconcile(ctx context.Context, task *model.Task) calsync.Result
}

// Config carries everything the store needs. There is no ambient
// state: timer, scope, and sync targets all live here or in Prefs.
type Config struct {
	Backend    Backend
	Reconciler Reconciler   // nil disables calendar sync
	Prefs      *prefs.Store // nil disables preference persistence
	Logger     *slog.Logger
	Clock      func() time.Time // nil means time.Now
}

// NoticeKind labels an asynchronous side-effect report.
type NoticeKind string

const (
	NoticeSync       NoticeKind = "sync"
	NoticeRecurrence NoticeKind = "recurrence"
)

// Notice reports the outcome of a fire-and-forget side effect. The
// mutation that triggered it has already committed; a Notice with a
// non-nil Err is a degraded-success signal, not a rollback.
type Notice struct {
	Kind    NoticeKind
	TaskID  string
	Outcome calsync.Outcome // set for sync notices
	Err     error
}

const (
	jobBuffer    = 64
	noticeBuffer = 64
	jobTimeout   = 30 * time.Second
)

// Store is the task state orchestrator.
type Store struct {
	backend    Backend
	reconciler Reconciler
	prefs      *prefs.Store
	log        *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	tasks    map[string]*model.Task
	edges    []model.DependencyEdge
	inflight map[string]chan struct{}

	wg      sync.WaitGroup
	jobs    chan func()
	notices chan Notice
	done    chan struct{}
}

// New creates a Store and starts its side-effect worker. Call Load to
// populate state and Close to drain and stop.
func New(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, errors.New("store: backend is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	s := &Store{
		backend:    cfg.Backend,
		reconciler: cfg.Reconciler,
		prefs:      cfg.Prefs,
		log:        log,
		now:        now,
		tasks:      make(map[string]*model.Task),
		inflight:   make(map[string]chan struct{}),
		jobs:       make(chan func(), jobBuffer),
		notices:    make(chan Notice, noticeBuffer),
		done:       make(chan struct{}),
	}
	go s.work()
	return s, nil
}

// Load fetches all tasks and edges from the backend, normalizing
// statuses at the boundary. It replaces any previously loaded state.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.backend.ListTasks(ctx)
	if err != nil {
		return err
	}
	edges, err := s.backend.ListEdges(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		t := tasks[i]
		status, err := model.ParseStatus(string(t.Status))
		if err != nil {
			s.log.Warn("unknown status, treating as todo", "task", t.ID, "status", t.Status)
			status = model.StatusTodo
		}
		t.Status = status
		s.tasks[t.ID] = &t
	}
	s.edges = edges
	return nil
}

// Notices exposes the side-effect outcome stream. Consumers that fall
// behind lose notices rather than block the engine.
func (s *Store) Notices() <-chan Notice {
	return s.notices
}

// Close waits for all outstanding side-effect jobs (including jobs
// they spawned), stops the worker, and flushes preferences. No
// mutation may be issued after Close.
func (s *Store) Close() error {
	s.wg.Wait()
	close(s.jobs)
	<-s.done
	close(s.notices)
	if s.prefs != nil {
		return s.prefs.Save()
	}
	return nil
}

func (s *Store) work() {
	defer close(s.done)
	for job := range s.jobs {
		job()
	}
}

// enqueue submits a side-effect job without ever blocking the caller:
// if the queue is full the job runs on its own goroutine. Jobs may
// enqueue follow-up jobs; Close waits for the whole chain.
func (s *Store) enqueue(job func(ctx context.Context)) {
	s.wg.Add(1)
	run := func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		job(ctx)
	}
	select {
	case s.jobs <- run:
	default:
		go run()
	}
}

func (s *Store) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
		s.log.Debug("notice dropped, consumer too slow", "kind", n.Kind, "task", n.TaskID)
	}
}

// acquire serializes mutations per task: a second mutation on the same
// identifier waits for the first commit or rollback. Distinct tasks
// proceed concurrently.
func (s *Store) acquire(id string) {
	for {
		s.mu.Lock()
		gate, busy := s.inflight[id]
		if !busy {
			s.inflight[id] = make(chan struct{})
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		<-gate
	}
}

func (s *Store) release(id string) {
	s.mu.Lock()
	gate := s.inflight[id]
	delete(s.inflight, id)
	s.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}
