package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chaza/pricewatch/internal/logger"
)

var (
	// ErrTaskNotFound is returned when no task is registered under the name.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskRunning is returned when a run is requested while the task is
	// already in flight. The overlapping run is skipped, not queued.
	ErrTaskRunning = errors.New("task is already running")
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

// TaskStatus is the externally visible state of one registered task.
type TaskStatus struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	LastRun  *time.Time    `json:"last_run,omitempty"`
	InFlight bool          `json:"in_flight"`
	Armed    bool          `json:"armed"`
}

type task struct {
	name     string
	interval time.Duration
	lastRun  *time.Time
	inFlight bool
	run      TaskFunc
	stopCh   chan struct{} // non-nil while the recurring timer is armed
}

// Scheduler owns a set of named recurring tasks. It guarantees at most one
// concurrent execution per task name; an overlapping fire while a task runs
// is swallowed. The guard is in-process only — a second process instance is
// not coordinated with.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	logger *logger.Logger
	wg     sync.WaitGroup
}

// New creates a scheduler. The hosting process constructs and owns the
// instance; tasks are registered explicitly at startup.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Scheduler{
		tasks:  make(map[string]*task),
		logger: log.WithField(logger.FieldComponent, "scheduler"),
	}
}

// Register upserts a task definition. Registration never starts the task.
// Re-registering an existing name replaces its interval and body but keeps
// its last-run timestamp.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[name]; ok {
		existing.interval = interval
		existing.run = fn
	} else {
		s.tasks[name] = &task{name: name, interval: interval, run: fn}
	}
	s.logger.WithFields(logger.Fields{
		logger.FieldTask: name,
		"interval":       interval.String(),
	}).Info("Registered task")
}

// Start runs the task immediately and then arms a recurring timer at its
// interval. Any previously armed timer for the name is cancelled first.
func (s *Scheduler) Start(name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	s.stopLocked(t)
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	interval := t.interval
	s.mu.Unlock()

	s.logger.WithField(logger.FieldTask, name).Info("Started task")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.runLogged(name)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				s.runLogged(name)
			}
		}
	}()

	return nil
}

// StartAll starts every registered task.
func (s *Scheduler) StartAll() {
	s.mu.Lock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	s.mu.Unlock()

	for _, name := range names {
		if err := s.Start(name); err != nil {
			s.logger.WithField(logger.FieldTask, name).WithError(err).Error("Failed to start task")
		}
	}
}

// Run executes the task body once. When the task is already in flight the
// call returns ErrTaskRunning without executing the body or touching the
// last-run timestamp. The last-run timestamp is recorded after every
// completed run, whether the body returned an error or not.
func (s *Scheduler) Run(name string) error {
	t, fn, err := s.claim(name)
	if err != nil {
		return err
	}
	s.runClaimed(t, name, fn)
	return nil
}

// Trigger starts a one-off run in the background. Not-found and in-flight
// are reported immediately; the body itself runs asynchronously.
func (s *Scheduler) Trigger(name string) error {
	t, fn, err := s.claim(name)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runClaimed(t, name, fn)
	}()
	return nil
}

// claim marks the task in flight, failing when it is unknown or already
// claimed.
func (s *Scheduler) claim(name string) (*task, TaskFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if t.inFlight {
		return nil, nil, fmt.Errorf("%w: %s", ErrTaskRunning, name)
	}
	t.inFlight = true
	return t, t.run, nil
}

// runClaimed executes a claimed task and releases the claim when done.
func (s *Scheduler) runClaimed(t *task, name string, fn TaskFunc) {
	ctx := logger.SetTask(context.Background(), name)
	start := time.Now()
	err := s.execute(ctx, name, fn)

	now := time.Now()
	s.mu.Lock()
	t.lastRun = &now
	t.inFlight = false
	s.mu.Unlock()

	entry := logger.With(logger.Fields{
		logger.FieldTask:       name,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithStatus("failed").Error(ctx, "Task run failed: %v", err)
		return
	}
	entry.WithStatus("completed").Info(ctx, "Task run completed")
}

// execute isolates the task body so a panic cannot take down the scheduler.
func (s *Scheduler) execute(ctx context.Context, name string, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}
	}()
	return fn(ctx)
}

// runLogged is the timer-driven entry point: overlap skips are logged and
// swallowed rather than surfaced.
func (s *Scheduler) runLogged(name string) {
	if err := s.Run(name); err != nil {
		if errors.Is(err, ErrTaskRunning) {
			s.logger.WithField(logger.FieldTask, name).Info("Task still running, skipping this fire")
			return
		}
		s.logger.WithField(logger.FieldTask, name).WithError(err).Error("Task run rejected")
	}
}

// Stop cancels the task's recurring timer. A run already executing is not
// interrupted.
func (s *Scheduler) Stop(name string) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		s.stopLocked(t)
	}
	s.mu.Unlock()

	if ok {
		s.logger.WithField(logger.FieldTask, name).Info("Stopped task")
	}
}

// StopAll cancels every armed timer and waits for the timer goroutines to
// exit. In-flight runs complete on their own.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for _, t := range s.tasks {
		s.stopLocked(t)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Stopped all tasks")
}

func (s *Scheduler) stopLocked(t *task) {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

// Status reports every registered task's last-run timestamp and flags.
func (s *Scheduler) Status() map[string]TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := make(map[string]TaskStatus, len(s.tasks))
	for name, t := range s.tasks {
		status[name] = TaskStatus{
			Name:     name,
			Interval: t.interval,
			LastRun:  t.lastRun,
			InFlight: t.inFlight,
			Armed:    t.stopCh != nil,
		}
	}
	return status
}
