package task

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidTask is wrapped by every validation failure from Parse and Validate.
var ErrInvalidTask = errors.New("invalid task")

// MaxTime is the largest accepted time. It keeps variance sums over any
// realistic number of tasks finite.
const MaxTime = 1e150

// Task is one activity's three-point duration estimate.
// Times are in a caller-defined unit. A Task is never mutated after
// construction; edits replace the whole value.
type Task struct {
	Name        string  `json:"name"`
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// New builds a Task without any validation. Negative or inverted values are
// accepted; use Parse at input boundaries.
func New(name string, optimistic, realistic, pessimistic float64) Task {
	return Task{
		Name:        name,
		Optimistic:  optimistic,
		Realistic:   realistic,
		Pessimistic: pessimistic,
	}
}

// Parse builds a Task and rejects it if Validate fails.
func Parse(name string, optimistic, realistic, pessimistic float64) (Task, error) {
	t := New(strings.TrimSpace(name), optimistic, realistic, pessimistic)
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// ExpectedTime returns the PERT weighted mean (o + 4r + p) / 6.
func (t Task) ExpectedTime() float64 {
	return (t.Optimistic + 4*t.Realistic + t.Pessimistic) / 6
}

// StandardDeviation returns |p - o| / 6.
func (t Task) StandardDeviation() float64 {
	return math.Abs(t.Pessimistic-t.Optimistic) / 6
}

// Variance returns the square of StandardDeviation.
func (t Task) Variance() float64 {
	sd := t.StandardDeviation()
	return sd * sd
}

// Validate reports whether the task is usable as domain input: a non-empty
// name, finite times in [0, MaxTime], and optimistic <= realistic <= pessimistic.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTask)
	}

	times := []struct {
		label string
		v     float64
	}{
		{"optimistic", t.Optimistic},
		{"realistic", t.Realistic},
		{"pessimistic", t.Pessimistic},
	}
	for _, tm := range times {
		if math.IsNaN(tm.v) || math.IsInf(tm.v, 0) {
			return fmt.Errorf("%w: %s: %s time is not a finite number", ErrInvalidTask, t.Name, tm.label)
		}
		if tm.v < 0 {
			return fmt.Errorf("%w: %s: %s time %g is negative", ErrInvalidTask, t.Name, tm.label, tm.v)
		}
		if tm.v > MaxTime {
			return fmt.Errorf("%w: %s: %s time %g exceeds %g", ErrInvalidTask, t.Name, tm.label, tm.v, MaxTime)
		}
	}

	if t.Pessimistic < t.Optimistic {
		return fmt.Errorf("%w: %s: pessimistic %g is less than optimistic %g",
			ErrInvalidTask, t.Name, t.Pessimistic, t.Optimistic)
	}
	if t.Realistic < t.Optimistic || t.Realistic > t.Pessimistic {
		return fmt.Errorf("%w: %s: realistic %g is outside [%g, %g]",
			ErrInvalidTask, t.Name, t.Realistic, t.Optimistic, t.Pessimistic)
	}
	return nil
}

// String renders the task as "name (o/r/p)".
func (t Task) String() string {
	return fmt.Sprintf("%s (%g/%g/%g)", t.Name, t.Optimistic, t.Realistic, t.Pessimistic)
}
