package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/pertloom/internal/forecast"
	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/ui"
)

const (
	nameWidth    = 24
	derivedPlace = 3
	curveWidth   = 40
)

// Reporter renders a Forecast for the terminal or as JSON.
type Reporter struct {
	Forecast *forecast.Forecast
	Decimals int
}

// New creates a new Reporter. decimals controls probability rounding.
func New(f *forecast.Forecast, decimals int) *Reporter {
	return &Reporter{Forecast: f, Decimals: decimals}
}

// PrintTasks writes the input table: one row per task with its three estimates.
func (r *Reporter) PrintTasks(w io.Writer) {
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Tasks"))
	fmt.Fprintf(w, "  %s %-*s %10s %10s %10s\n", ui.Dim(" #"), nameWidth, "Name", "Optimistic", "Realistic", "Pessimistic")
	for _, row := range r.Forecast.Rows {
		fmt.Fprintf(w, "  %2d %-*s %10s %10s %10s\n",
			row.Index+1, nameWidth, truncate(row.Name, nameWidth),
			trim(row.Optimistic), trim(row.Realistic), trim(row.Pessimistic))
	}
	if len(r.Forecast.Rows) == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Dim("(no tasks)"))
	}
}

// PrintResults writes the derived table with the aggregate row beneath it.
func (r *Reporter) PrintResults(w io.Writer) {
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Results"))
	fmt.Fprintf(w, "  %-*s %10s %10s %10s\n", nameWidth, "Name", "Expected", "Std dev", "Variance")
	for _, row := range r.Forecast.Rows {
		fmt.Fprintf(w, "  %-*s %10s %10s %10s\n",
			nameWidth, truncate(row.Name, nameWidth),
			forecast.Fixed(row.Expected, derivedPlace),
			forecast.Fixed(row.StdDev, derivedPlace),
			forecast.Fixed(row.Variance, derivedPlace))
	}
	if len(r.Forecast.Rows) == 0 {
		return
	}

	s := r.Forecast.Summary
	fmt.Fprintf(w, "  %-*s %10s %10s %10s\n", nameWidth, "",
		ui.Bold("∑t "+forecast.Fixed(s.Expected, derivedPlace)),
		"",
		ui.Bold("∑V "+forecast.Fixed(s.Variance, derivedPlace)))
}

// PrintProbability writes the single result line.
func (r *Reporter) PrintProbability(w io.Writer) {
	res := r.Forecast.Result
	label := fmt.Sprintf("Probability of finishing by %s:", trim(r.Forecast.Target))
	if !res.Defined {
		fmt.Fprintf(w, "%s %s %s  %s\n", ui.ResultIcon(false, 0), label, ui.Bold(pert.NotANumber),
			ui.Dim("(total variance is zero; give tasks an optimistic/pessimistic spread)"))
		return
	}
	colorFn := ui.ProbabilityColor(res.Probability)
	fmt.Fprintf(w, "%s %s %s  %s\n", ui.ResultIcon(true, res.Probability), label,
		colorFn(res.Format(r.Decimals)), ui.Dim(fmt.Sprintf("(z = %s)", forecast.Fixed(res.Z, derivedPlace))))
}

// PrintConfidence writes the completion time reached at each confidence level.
func (r *Reporter) PrintConfidence(w io.Writer) {
	if len(r.Forecast.Confidence) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Confidence"))
	for _, c := range r.Forecast.Confidence {
		fmt.Fprintf(w, "  %s %s\n", ui.BoldMagenta(fmt.Sprintf("P%-3s", trim(c.Probability))), forecast.Fixed(c.Target, derivedPlace))
	}
}

// PrintCurve writes an ASCII bar chart of the probability curve.
func (r *Reporter) PrintCurve(w io.Writer) {
	if len(r.Forecast.Curve) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Probability curve"))
	for _, p := range r.Forecast.Curve {
		n := int(p.Probability / 100 * curveWidth)
		bar := strings.Repeat("█", n) + strings.Repeat("·", curveWidth-n)
		fmt.Fprintf(w, "  %10s %s %s\n", forecast.Fixed(p.Target, derivedPlace),
			ui.ProbabilityColor(p.Probability)(bar),
			forecast.Fixed(p.Probability, r.Decimals)+"%")
	}
}

// PrintSummaryReport writes every section and returns the written text.
func (r *Reporter) PrintSummaryReport(w io.Writer) string {
	var b strings.Builder
	mw := io.MultiWriter(w, &b)

	fmt.Fprintf(mw, "🎯 %s %s\n", ui.BoldCyan("PERT Forecast"), ui.Dim(r.Forecast.ID))
	fmt.Fprintf(mw, "%s\n\n", ui.Cyan("═════════════════════════"))

	r.PrintTasks(mw)
	fmt.Fprintln(mw)
	r.PrintResults(mw)
	fmt.Fprintln(mw)
	r.PrintProbability(mw)

	if len(r.Forecast.Confidence) > 0 {
		fmt.Fprintln(mw)
		r.PrintConfidence(mw)
	}
	if len(r.Forecast.Curve) > 0 {
		fmt.Fprintln(mw)
		r.PrintCurve(mw)
	}
	return b.String()
}

// JSON returns the machine-readable forecast. An undefined probability is
// encoded as null rather than a number.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		*forecast.Forecast
		Probability *float64 `json:"probability"`
		Display     string   `json:"display"`
	}

	o := output{
		Forecast: r.Forecast,
		Display:  r.Forecast.Result.Format(r.Decimals),
	}
	if r.Forecast.Result.Defined {
		p := r.Forecast.Result.Probability
		o.Probability = &p
	}
	return json.MarshalIndent(o, "", "  ")
}

func trim(v float64) string {
	return fmt.Sprintf("%g", v)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
