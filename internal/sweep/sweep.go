// Package sweep runs batches of independent simulation configurations in
// parallel. Cases share nothing but the (already thread-safe) result
// cache; a failed case is recorded and never aborts the batch.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vortex2d/internal/sim"
)

// Case is one sweep entry: a label plus the config to solve.
type Case struct {
	Label  string
	Config sim.SimulationConfig
}

// Outcome pairs a case with its result or failure.
type Outcome struct {
	Case    Case
	Result  *sim.SolveResult
	Err     error
	Elapsed time.Duration
}

// Runner executes sweeps with a bounded worker pool.
type Runner struct {
	method   sim.Method
	parallel int
	// OnDone, when set, is called as each case completes.
	OnDone func(Outcome)
}

func NewRunner(method sim.Method, parallel int) *Runner {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	return &Runner{method: method, parallel: parallel}
}

// Run solves every case and returns outcomes in input order. Each worker
// writes only its own slot, so no locking is needed beyond the errgroup
// join; the context cancels remaining cases between solves.
func (r *Runner) Run(ctx context.Context, cases []Case) []Outcome {
	outcomes := make([]Outcome, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			start := time.Now()
			res, err := r.method.Solve(gctx, c.Config)
			outcomes[i] = Outcome{Case: c, Result: res, Err: err, Elapsed: time.Since(start)}
			if r.OnDone != nil {
				r.OnDone(outcomes[i])
			}
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// Range builds sweep cases by varying a single named parameter of the base
// config across count evenly spaced values. Supported parameters: nu, dt,
// t_final, and any initial-condition coefficient name.
func Range(base sim.SimulationConfig, param string, from, to float64, count int) []Case {
	if count < 1 {
		count = 1
	}
	cases := make([]Case, 0, count)
	for i := 0; i < count; i++ {
		v := from
		if count > 1 {
			v = from + (to-from)*float64(i)/float64(count-1)
		}
		cfg := base
		switch param {
		case "nu":
			cfg.Nu = v
		case "dt":
			cfg.Dt = v
		case "t_final":
			cfg.TFinal = v
		default:
			coeffs := make(map[string]float64, len(base.IC.Coeffs)+1)
			for k, c := range base.IC.Coeffs {
				coeffs[k] = c
			}
			coeffs[param] = v
			cfg.IC.Coeffs = coeffs
		}
		cases = append(cases, Case{Label: paramLabel(param, v), Config: cfg})
	}
	return cases
}

func paramLabel(param string, v float64) string {
	return fmt.Sprintf("%s=%g", param, v)
}
