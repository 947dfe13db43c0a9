package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/field"
)

func TestRenderFieldDimensions(t *testing.T) {
	grid := field.GridSpec{Nx: 32, Ny: 32, Lx: 10, Ly: 10}
	f := field.New(grid)
	f.Fill(func(x, y float64) float64 { return x * y })

	out := RenderField(f, 40, 12)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("got %d rows, want 12", len(lines))
	}
	for i, line := range lines {
		if len([]rune(line)) != 40 {
			t.Errorf("row %d has %d cols, want 40", i, len([]rune(line)))
		}
	}
}

func TestRenderFieldZeroField(t *testing.T) {
	grid := field.GridSpec{Nx: 8, Ny: 8, Lx: 1, Ly: 1}
	out := RenderField(field.New(grid), 8, 4)
	if out == "" {
		t.Fatal("empty render")
	}
}

func TestPlotSeriesShortInput(t *testing.T) {
	out := PlotSeries("energy", []float64{1})
	if !strings.Contains(out, "not enough samples") {
		t.Errorf("unexpected output %q", out)
	}
	out = PlotSeries("energy", []float64{1, 2, 3, 2})
	if !strings.Contains(out, "energy") {
		t.Errorf("caption missing from %q", out)
	}
}

func TestPlotConvergence(t *testing.T) {
	report := &converge.Report{
		Status:        converge.Converged,
		LowConfidence: true,
		Metric:        converge.Enstrophy,
		Tolerance:     1e-2,
		Extrapolated:  4.2,
		ErrEstimate:   0.003,
		Order:         1.97,
		BestN:         64,
		BestDt:        0.005,
		Trials: []converge.Trial{
			{N: 32, Dt: 0.01, Value: 4.5},
			{N: 64, Dt: 0.005, Value: 4.25, Cached: true},
			{N: 128, Dt: 0.0025, ErrKind: "stability", Err: errors.New("dt too large")},
		},
	}

	out := PlotConvergence(report)
	for _, want := range []string{
		"status: converged",
		"low confidence",
		"chosen resolution: 64",
		"FAILED (stability)",
		"enstrophy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
