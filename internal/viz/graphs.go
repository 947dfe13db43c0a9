package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/vortex2d/internal/converge"
)

// PlotSeries renders one diagnostic time series as a terminal graph.
func PlotSeries(name string, values []float64) string {
	if len(values) < 2 {
		return fmt.Sprintf("%s: not enough samples\n", name)
	}
	graph := asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(name),
	)
	return graph + "\n"
}

// PlotConvergence renders the metric-versus-resolution history of a
// convergence report, plus a textual trial table.
func PlotConvergence(report *converge.Report) string {
	var sb strings.Builder

	ok := report.Succeeded()
	if len(ok) >= 2 {
		values := make([]float64, len(ok))
		for i, t := range ok {
			values[i] = t.Value
		}
		sb.WriteString(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s vs trial (ascending N)", report.Metric)),
		))
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("status: %s", report.Status))
	if report.LowConfidence {
		sb.WriteString(" (low confidence)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("extrapolated %s: %.6g  (error estimate %.3g, order %.2f)\n",
		report.Metric, report.Extrapolated, report.ErrEstimate, report.Order))
	if report.BestN > 0 {
		sb.WriteString(fmt.Sprintf("chosen resolution: %d (dt=%.3g, %s)\n",
			report.BestN, report.BestDt, report.Policy))
	}

	sb.WriteString("\ntrials:\n")
	for _, t := range report.Trials {
		mark := " "
		if t.Cached {
			mark = "c"
		}
		if t.Failed() {
			sb.WriteString(fmt.Sprintf("  %s N=%-5d dt=%-10.3g FAILED (%s)\n", mark, t.N, t.Dt, t.ErrKind))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s N=%-5d dt=%-10.3g %s=%.6g  (%.2fs)\n",
			mark, t.N, t.Dt, report.Metric, t.Value, t.Elapsed.Seconds()))
	}
	return sb.String()
}
