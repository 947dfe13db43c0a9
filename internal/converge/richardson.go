package converge

import (
	"math"

	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
)

// Metric selects which scalar diagnostic drives the convergence study.
type Metric int

const (
	MaxVorticity Metric = iota
	Energy
	Enstrophy
)

var metricNames = map[string]Metric{
	"max-vorticity": MaxVorticity,
	"energy":        Energy,
	"enstrophy":     Enstrophy,
}

// ParseMetric resolves a metric by its configuration name.
func ParseMetric(name string) (Metric, error) {
	m, ok := metricNames[name]
	if !ok {
		return 0, &sim.InvalidConfigError{
			Field:  "metric",
			Reason: "unknown metric " + name + " (max-vorticity, energy, enstrophy)",
		}
	}
	return m, nil
}

func (m Metric) String() string {
	switch m {
	case Energy:
		return "energy"
	case Enstrophy:
		return "enstrophy"
	default:
		return "max-vorticity"
	}
}

// Select extracts the metric value from a solve's diagnostics.
func (m Metric) Select(d field.Diagnostics) float64 {
	switch m {
	case Energy:
		return d.Energy
	case Enstrophy:
		return d.Enstrophy
	default:
		return d.MaxVorticity
	}
}

// extrapolate applies Richardson extrapolation to metric values m1 at
// resolution n1 and m2 at n2 (n2 > n1), assuming convergence order p:
//
//	m_true ~= m2 + (m2 - m1) / ((n2/n1)^p - 1)
//
// The associated error estimate is |m2 - m_true|.
func extrapolate(n1 int, m1 float64, n2 int, m2, p float64) (value, errEst float64) {
	ratio := math.Pow(float64(n2)/float64(n1), p)
	value = m2 + (m2-m1)/(ratio-1)
	return value, math.Abs(m2 - value)
}

// estimateOrder fits the observed convergence order from three metric
// values at successively doubled resolutions:
//
//	p = log(|m2-m1| / |m3-m2|) / log(2)
//
// Degenerate differences (already converged to rounding, or growing) fall
// back to the supplied default.
func estimateOrder(m1, m2, m3, def float64) float64 {
	d1 := math.Abs(m2 - m1)
	d2 := math.Abs(m3 - m2)
	if d1 == 0 || d2 == 0 {
		return def
	}
	p := math.Log(d1/d2) / math.Ln2
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0.1 || p > 8 {
		return def
	}
	return p
}
