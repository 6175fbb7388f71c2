package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/task"
)

// ErrIndexOutOfRange is returned by positional operations given a bad index.
var ErrIndexOutOfRange = errors.New("index out of range")

// Session owns the ordered task collection edited by a front end.
// Order is insertion order. All methods are safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	tasks []task.Task
	log   *zap.Logger
}

// New creates an empty Session. A nil logger disables logging.
func New(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{log: log}
}

// FromTasks creates a Session pre-populated with tasks, validating each one.
func FromTasks(log *zap.Logger, tasks []task.Task) (*Session, error) {
	s := New(log)
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}
	s.tasks = append(s.tasks, tasks...)
	return s, nil
}

// Add validates t, appends it and returns its index.
func (s *Session) Add(t task.Task) (int, error) {
	if err := t.Validate(); err != nil {
		return -1, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	index := len(s.tasks) - 1
	s.mu.Unlock()

	s.log.Debug("task added", zap.String("name", t.Name), zap.Int("index", index))
	return index, nil
}

// ReplaceAt validates t and replaces the task at index with it.
func (s *Session) ReplaceAt(index int, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return err
	}
	old := s.tasks[index]
	s.tasks[index] = t

	s.log.Debug("task replaced", zap.Int("index", index), zap.String("old", old.Name), zap.String("new", t.Name))
	return nil
}

// RemoveAt deletes the task at index, shifting later tasks down.
func (s *Session) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return err
	}
	removed := s.tasks[index]
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)

	s.log.Debug("task removed", zap.Int("index", index), zap.String("name", removed.Name), zap.Int("count", len(s.tasks)))
	return nil
}

// Get returns the task at index.
func (s *Session) Get(index int) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkIndex(index); err != nil {
		return task.Task{}, err
	}
	return s.tasks[index], nil
}

// Len returns the number of tasks.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Reset removes every task.
func (s *Session) Reset() {
	s.mu.Lock()
	s.tasks = nil
	s.mu.Unlock()
	s.log.Debug("tasks reset")
}

// Snapshot returns a copy of the current tasks.
func (s *Session) Snapshot() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Calculate runs the estimator over a snapshot of the tasks.
func (s *Session) Calculate(target float64) pert.Result {
	result := pert.ProbabilityOfFinishing(s.Snapshot(), target)

	if result.Defined {
		s.log.Debug("probability computed",
			zap.Int("tasks", result.Summary.Count),
			zap.Float64("expected_sum", result.Summary.Expected),
			zap.Float64("variance_sum", result.Summary.Variance),
			zap.Float64("z", result.Z),
			zap.Float64("probability", result.Probability))
	} else {
		s.log.Debug("probability undefined: zero total variance",
			zap.Int("tasks", result.Summary.Count),
			zap.Float64("expected_sum", result.Summary.Expected))
	}
	return result
}

// checkIndex must be called with mu held.
func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return fmt.Errorf("%w: index %d, have %d tasks", ErrIndexOutOfRange, index, len(s.tasks))
	}
	return nil
}
