package pert

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/joshharrison/pertloom/internal/task"
)

// NotANumber is the display form of an undefined Result.
const NotANumber = "NaN"

// Aggregate sums expected times and variances across tasks. StdDev is
// computed from per-task deviations scaled by the largest one, so it stays
// finite when the raw variance sum overflows or underflows.
func Aggregate(tasks []task.Task) Summary {
	s := Summary{Count: len(tasks)}
	var scale float64
	for _, t := range tasks {
		s.Expected += t.ExpectedTime()
		s.Variance += t.Variance()
		scale = math.Max(scale, t.StandardDeviation())
	}
	if scale == 0 {
		return s
	}

	var sum float64
	for _, t := range tasks {
		r := t.StandardDeviation() / scale
		sum += r * r
	}
	s.StdDev = scale * math.Sqrt(sum)
	return s
}

// ProbabilityOfFinishing returns the percentage chance that the tasks, whose
// durations are summed as independent variables, finish by target.
// An empty list or a list whose variances sum to zero yields an undefined
// Result instead of a number.
func ProbabilityOfFinishing(tasks []task.Task, target float64) Result {
	s := Aggregate(tasks)
	r := Result{Target: target, Summary: s}
	if s.StdDev == 0 {
		return r
	}

	r.Z = (target - s.Expected) / s.StdDev
	r.Probability = 100 * distuv.UnitNormal.CDF(r.Z)
	r.Defined = true
	return r
}

// TargetForProbability returns the completion time reached with the given
// probability (a percentage strictly between 0 and 100). It reports false
// when the aggregate variance is zero or pct is out of range.
func TargetForProbability(tasks []task.Task, pct float64) (float64, bool) {
	if math.IsNaN(pct) || pct <= 0 || pct >= 100 {
		return 0, false
	}
	s := Aggregate(tasks)
	if s.StdDev == 0 {
		return 0, false
	}
	return s.Expected + s.StdDev*distuv.UnitNormal.Quantile(pct/100), true
}

// Curve samples ProbabilityOfFinishing from `from` to `to` inclusive in steps
// of step. It returns nil for an empty range, a non-positive step, or an
// undefined aggregate.
func Curve(tasks []task.Task, from, to, step float64) []Point {
	if step <= 0 || to < from {
		return nil
	}
	s := Aggregate(tasks)
	if s.StdDev == 0 {
		return nil
	}

	// Index-based sampling avoids drift from repeated float addition.
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		target := from + float64(i)*step
		z := (target - s.Expected) / s.StdDev
		points = append(points, Point{
			Target:      target,
			Probability: 100 * distuv.UnitNormal.CDF(z),
		})
	}
	return points
}

// Undefined reports whether the aggregate spread was zero.
func (r Result) Undefined() bool {
	return !r.Defined
}

// Format renders the probability as a percentage with the given number of
// decimals, or NotANumber when undefined.
func (r Result) Format(decimals int) string {
	if !r.Defined {
		return NotANumber
	}
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f%%", decimals, r.Probability)
}

// String renders the probability with two decimals.
func (r Result) String() string {
	return r.Format(2)
}
