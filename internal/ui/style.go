package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

// DisableColor turns off ANSI styling, e.g. for --json or piped output.
func DisableColor() {
	color.NoColor = true
}

// PrintLogo renders the pertloom banner to stderr.
func PrintLogo() {
	FprintLogo(os.Stderr)
}

// FprintLogo renders the pertloom banner to w.
func FprintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	curve := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	curve.Fprintln(w, "   |            .-'''-.       |")
	curve.Fprintln(w, "   |         .-'   |   '-.    |")
	curve.Fprintln(w, "   |  ___.--'      |      '-- |")
	brand.Fprintln(w, "   |  P  E  R  T  L  O  O  M  |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Three-point completion estimates\n", Dim("🧵"))
	fmt.Fprintln(w)
}

// ProbabilityColor picks a color for a completion percentage: green when the
// target is likely met, yellow when it is a coin flip, red otherwise.
func ProbabilityColor(pct float64) func(a ...interface{}) string {
	switch {
	case pct >= 80:
		return BoldGreen
	case pct >= 50:
		return BoldYellow
	default:
		return BoldRed
	}
}

// ResultIcon returns a colored icon for a probability result.
func ResultIcon(defined bool, pct float64) string {
	if !defined {
		return Dim("∅")
	}
	switch {
	case pct >= 80:
		return Green("✓")
	case pct >= 50:
		return Yellow("≈")
	default:
		return Red("✗")
	}
}
