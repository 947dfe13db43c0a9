package converge

import (
	"sort"
	"time"

	"github.com/san-kum/vortex2d/internal/sim"
)

// Status is the terminal state of a convergence run. Failing to converge
// is an expected, reportable outcome, never an error.
type Status int

const (
	Converged Status = iota
	Exhausted
)

func (s Status) String() string {
	if s == Exhausted {
		return "exhausted"
	}
	return "converged"
}

// Trial records one solver invocation (or cache hit) at a candidate
// resolution. Failed trials keep their error kind so the history
// distinguishes "failed" from "never tried".
type Trial struct {
	N       int
	Dt      float64
	Value   float64
	Cached  bool
	Elapsed time.Duration
	Err     error
	ErrKind string // invalid-config, stability, blowup, canceled
}

// Failed reports whether the trial did not produce a metric value.
func (t Trial) Failed() bool { return t.Err != nil }

// Report is the full outcome of a convergence study.
type Report struct {
	Status        Status
	LowConfidence bool

	Metric       Metric
	Tolerance    float64
	Policy       sim.CFLPolicy
	Extrapolated float64
	ErrEstimate  float64
	Order        float64

	// BestN is the coarsest tested resolution whose metric error estimate
	// met the tolerance; zero when exhausted without a passing trial.
	BestN  int
	BestDt float64

	Trials []Trial
}

// Succeeded lists the successful trials in ascending resolution order,
// keeping the first record for a resolution tried more than once.
func (r *Report) Succeeded() []Trial {
	seen := make(map[int]bool)
	out := make([]Trial, 0, len(r.Trials))
	for _, t := range r.Trials {
		if !t.Failed() && !seen[t.N] {
			seen[t.N] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].N < out[j].N })
	return out
}
