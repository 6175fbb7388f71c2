package pert

import "encoding/json"

// Summary holds the aggregate of a task collection.
type Summary struct {
	Count    int     `json:"count"`
	Expected float64 `json:"expected"` // sum of per-task expected times
	Variance float64 `json:"variance"` // sum of per-task variances
	StdDev   float64 `json:"std_dev"`  // sqrt(Variance)
}

// Result is the outcome of ProbabilityOfFinishing. When Defined is false the
// aggregate variance was zero and Probability and Z carry no meaning.
type Result struct {
	Target      float64 `json:"target"`
	Probability float64 `json:"probability"` // percentage in [0, 100]
	Z           float64 `json:"z"`
	Defined     bool    `json:"defined"`
	Summary     Summary `json:"summary"`
}

// MarshalJSON encodes Probability and Z as null when the result is undefined.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Probability *float64 `json:"probability"`
		Z           *float64 `json:"z"`
	}{plain: plain(r)}
	if r.Defined {
		out.Probability = &r.Probability
		out.Z = &r.Z
	}
	return json.Marshal(out)
}

// Point is one sample of the completion-probability curve.
type Point struct {
	Target      float64 `json:"target"`
	Probability float64 `json:"probability"`
}
