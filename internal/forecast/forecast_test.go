package forecast

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshharrison/pertloom/internal/task"
)

func sampleTasks() []task.Task {
	return []task.Task{
		task.New("A", 2, 4, 6),
		task.New("B", 1, 3, 11),
	}
}

func TestGenerate_Basic(t *testing.T) {
	f, err := Generate(sampleTasks(), Config{Target: 10, Decimals: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(f.ID, "pert-") {
		t.Errorf("expected pert- id prefix, got %s", f.ID)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(f.Rows))
	}
	if f.Rows[1].Index != 1 || f.Rows[1].Name != "B" || f.Rows[1].Expected != 4 {
		t.Errorf("unexpected row %+v", f.Rows[1])
	}
	if !f.Result.Defined {
		t.Fatal("expected defined result")
	}
	if f.Summary.Expected != 8 {
		t.Errorf("expected total 8, got %g", f.Summary.Expected)
	}

	if len(f.Confidence) != len(DefaultConfidence) {
		t.Fatalf("expected %d confidence targets, got %d", len(DefaultConfidence), len(f.Confidence))
	}
	if math.Abs(f.Confidence[0].Target-8) > 1e-9 {
		t.Errorf("expected P50 at 8, got %g", f.Confidence[0].Target)
	}
	for i := 1; i < len(f.Confidence); i++ {
		if f.Confidence[i].Target <= f.Confidence[i-1].Target {
			t.Errorf("confidence targets should increase: %v", f.Confidence)
		}
	}
	if f.Curve != nil {
		t.Errorf("curve should be disabled by default, got %d points", len(f.Curve))
	}
}

func TestGenerate_Undefined(t *testing.T) {
	f, err := Generate([]task.Task{task.New("fixed", 3, 3, 3)}, Config{Target: 3, Decimals: 2, CurveStep: 1, CurveTo: 5})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if f.Result.Defined {
		t.Error("expected undefined result")
	}
	if len(f.Confidence) != 0 {
		t.Errorf("expected no confidence targets, got %v", f.Confidence)
	}
	if f.Curve != nil {
		t.Errorf("expected no curve, got %v", f.Curve)
	}
}

func TestGenerate_Curve(t *testing.T) {
	f, err := Generate(sampleTasks(), Config{Target: 10, CurveFrom: 4, CurveTo: 12, CurveStep: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(f.Curve) != 5 {
		t.Errorf("expected 5 curve points, got %d", len(f.Curve))
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	configs := []Config{
		{Decimals: -1},
		{Confidence: []float64{0}},
		{Confidence: []float64{50, 100}},
		{CurveFrom: 5, CurveTo: 1, CurveStep: 1},
		{CurveStep: -1},
	}
	for _, c := range configs {
		if _, err := Generate(sampleTasks(), c); err == nil {
			t.Errorf("expected error for config %+v", c)
		}
	}
}

func TestRender_Default(t *testing.T) {
	f, err := Generate(sampleTasks(), Config{Target: 10, Decimals: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := Render(f, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{f.ID, "Expected total:  8.000", "Total variance:  3.222", "86.74%", "P95 completion:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRender_UndefinedShowsNaN(t *testing.T) {
	f, err := Generate(nil, Config{Target: 10, Decimals: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := Render(f, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "NaN") {
		t.Errorf("expected NaN marker:\n%s", out)
	}
	if strings.Contains(out, "Z-score") {
		t.Errorf("z-score should be omitted when undefined:\n%s", out)
	}
}

func TestRender_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.tmpl")
	if err := os.WriteFile(path, []byte(`{{len .Rows}} tasks, {{.Result.Format 1}}`), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	f, err := Generate(sampleTasks(), Config{Target: 10})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := Render(f, path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "2 tasks, 86.7%" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := Render(f, filepath.Join(t.TempDir(), "missing.tmpl")); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestFixed(t *testing.T) {
	if got := Fixed(1.33333, 3); got != "1.333" {
		t.Errorf("expected 1.333, got %s", got)
	}
	if got := Fixed(2.6, -1); got != "3" {
		t.Errorf("negative decimals should clamp to 0, got %s", got)
	}
}
