package forecast

import (
	"time"

	"github.com/joshharrison/pertloom/internal/pert"
)

// Forecast is the complete result of one calculation over a task snapshot.
type Forecast struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Target     float64            `json:"target"`
	Rows       []Row              `json:"rows"`
	Summary    pert.Summary       `json:"summary"`
	Result     pert.Result        `json:"result"`
	Confidence []ConfidenceTarget `json:"confidence,omitempty"`
	Curve      []pert.Point       `json:"curve,omitempty"`
	Config     Config             `json:"config"`
}

// Row is one task with its derived PERT quantities.
type Row struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
	Expected    float64 `json:"expected"`
	StdDev      float64 `json:"std_dev"`
	Variance    float64 `json:"variance"`
}

// ConfidenceTarget is the completion time reached with a given probability.
type ConfidenceTarget struct {
	Probability float64 `json:"probability"`
	Target      float64 `json:"target"`
}

// Config controls what a Forecast includes and how it is rendered.
type Config struct {
	Target       float64   `json:"target"`
	Decimals     int       `json:"decimals"`
	Confidence   []float64 `json:"confidence"`
	CurveFrom    float64   `json:"curve_from,omitempty"`
	CurveTo      float64   `json:"curve_to,omitempty"`
	CurveStep    float64   `json:"curve_step,omitempty"` // 0 disables the curve
	TemplatePath string    `json:"template_path,omitempty"`
}
