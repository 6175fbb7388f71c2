package forecast

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/task"
)

// DefaultConfidence lists the probabilities reported when none are configured.
var DefaultConfidence = []float64{50, 80, 95}

// Generate builds a Forecast from a task snapshot. tasks is not retained.
func Generate(tasks []task.Task, config Config) (*Forecast, error) {
	if config.Decimals < 0 {
		return nil, fmt.Errorf("decimals must be >= 0, got %d", config.Decimals)
	}
	if config.Confidence == nil {
		config.Confidence = DefaultConfidence
	}
	for _, pct := range config.Confidence {
		if pct <= 0 || pct >= 100 {
			return nil, fmt.Errorf("confidence level %g must be between 0 and 100", pct)
		}
	}
	if config.CurveStep < 0 || (config.CurveStep > 0 && config.CurveTo < config.CurveFrom) {
		return nil, fmt.Errorf("invalid curve range %g:%g:%g", config.CurveFrom, config.CurveTo, config.CurveStep)
	}

	result := pert.ProbabilityOfFinishing(tasks, config.Target)

	f := &Forecast{
		ID:        fmt.Sprintf("pert-%s", uuid.NewString()),
		CreatedAt: time.Now(),
		Target:    config.Target,
		Summary:   result.Summary,
		Result:    result,
		Config:    config,
	}

	for i, t := range tasks {
		f.Rows = append(f.Rows, Row{
			Index:       i,
			Name:        t.Name,
			Optimistic:  t.Optimistic,
			Realistic:   t.Realistic,
			Pessimistic: t.Pessimistic,
			Expected:    t.ExpectedTime(),
			StdDev:      t.StandardDeviation(),
			Variance:    t.Variance(),
		})
	}

	for _, pct := range config.Confidence {
		target, ok := pert.TargetForProbability(tasks, pct)
		if !ok {
			break
		}
		f.Confidence = append(f.Confidence, ConfidenceTarget{Probability: pct, Target: target})
	}

	if config.CurveStep > 0 {
		f.Curve = pert.Curve(tasks, config.CurveFrom, config.CurveTo, config.CurveStep)
	}

	return f, nil
}
