package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshharrison/pertloom/internal/config"
	"github.com/joshharrison/pertloom/internal/forecast"
	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/task"
)

func TestParseCurve(t *testing.T) {
	from, to, step, err := parseCurve("4:12:0.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 4 || to != 12 || step != 0.5 {
		t.Errorf("got %g:%g:%g, want 4:12:0.5", from, to, step)
	}

	for _, bad := range []string{"", "1:2", "1:2:3:4", "a:2:1", "1:2:0", "1:2:-1", "5:1:1"} {
		if _, _, _, err := parseCurve(bad); err == nil {
			t.Errorf("parseCurve(%q): expected error", bad)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Float64("target", 0, "")
		return cmd
	}

	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = config.Default()
	if _, err := resolveTarget(newCmd(), 0); err == nil {
		t.Error("expected error without flag or configured target")
	}

	cfg.Target, cfg.HasTarget = 0, true
	if got, err := resolveTarget(newCmd(), 0); err != nil || got != 0 {
		t.Errorf("configured zero target: got %g, %v", got, err)
	}

	cmd := newCmd()
	if err := cmd.Flags().Set("target", "7.5"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if got, err := resolveTarget(cmd, 7.5); err != nil || got != 7.5 {
		t.Errorf("flag target: got %g, %v", got, err)
	}
}

func TestBuildForecast_EvaluatesOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	saved := log
	log = zap.New(core)
	t.Cleanup(func() { log = saved })

	path := filepath.Join(t.TempDir(), "tasks.json")
	raw := `[{"name": "A", "o": 2, "r": 4, "p": 6}, {"name": "B", "o": 1, "r": 3, "p": 11}]`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := buildForecast(path, forecast.Config{Target: 10, Decimals: 2})
	if err != nil {
		t.Fatalf("buildForecast: %v", err)
	}

	want := pert.ProbabilityOfFinishing([]task.Task{task.New("A", 2, 4, 6), task.New("B", 1, 3, 11)}, 10)
	if math.Float64bits(f.Result.Probability) != math.Float64bits(want.Probability) {
		t.Errorf("forecast probability %v, want %v", f.Result.Probability, want.Probability)
	}

	if n := logs.FilterMessage("forecast generated").Len(); n != 1 {
		t.Errorf("expected one forecast log entry, got %d", n)
	}
	// Session.Calculate logs every evaluation it runs.
	if n := logs.FilterMessage("probability computed").Len(); n != 0 {
		t.Errorf("expected no separate session calculation, got %d", n)
	}
}

func TestBuildForecast_MissingFile(t *testing.T) {
	if _, err := buildForecast(filepath.Join(t.TempDir(), "missing.json"), forecast.Config{}); err == nil {
		t.Error("expected error for missing task file")
	}
}
