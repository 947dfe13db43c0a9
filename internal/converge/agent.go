// Package converge implements the adaptive convergence agent: it drives
// repeated solver runs at candidate grid resolutions through the result
// cache, extrapolates the continuum value of a chosen metric by Richardson
// extrapolation, and searches for the coarsest resolution whose error
// estimate meets a tolerance.
package converge

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/vortex2d/internal/cache"
	"github.com/san-kum/vortex2d/internal/ic"
	"github.com/san-kum/vortex2d/internal/sim"
)

// Options configure a convergence study.
type Options struct {
	Metric    Metric
	Tolerance float64
	// MaxTrials bounds the number of actual solver runs (cache hits are
	// free and do not count against the budget).
	MaxTrials int
	// Policy selects dual refinement (FixedCFL: dt re-derived from the
	// grid spacing each trial) or mesh-only refinement (FixedDt).
	Policy sim.CFLPolicy
	// CFL is the target Courant number under FixedCFL.
	CFL float64
	// StartN is the coarsest resolution; zero means the base config's Nx.
	StartN int
	// MaxN caps refinement.
	MaxN int
	// Order is the assumed convergence order; zero means estimate it from
	// the preflight triplet.
	Order float64
	// Parallel bounds concurrent trials within a batch; zero means
	// GOMAXPROCS.
	Parallel int
	// OnTrial, when set, is called after every completed trial.
	OnTrial func(Trial)
}

func DefaultOptions() Options {
	return Options{
		Metric:    MaxVorticity,
		Tolerance: 1e-2,
		MaxTrials: 12,
		Policy:    sim.FixedCFL,
		CFL:       0.4,
		MaxN:      1024,
	}
}

func (o Options) validate() error {
	if o.Tolerance <= 0 {
		return &sim.InvalidConfigError{Field: "tolerance", Reason: "must be positive"}
	}
	if o.MaxTrials <= 0 {
		return &sim.InvalidConfigError{Field: "max_trials", Reason: "must be positive"}
	}
	if o.Policy == sim.FixedCFL && o.CFL <= 0 {
		return &sim.InvalidConfigError{Field: "cfl", Reason: "must be positive under fixed-cfl policy"}
	}
	return nil
}

// Agent runs convergence studies. The cache is injected so several agents
// (or a surrounding sweep) can share prior results.
type Agent struct {
	method sim.Method
	cache  *cache.Cache
	opts   Options
}

func New(method sim.Method, c *cache.Cache, opts Options) *Agent {
	if c == nil {
		c = cache.New()
	}
	if opts.Parallel <= 0 {
		opts.Parallel = runtime.GOMAXPROCS(0)
	}
	return &Agent{method: method, cache: c, opts: opts}
}

// study is the mutable state of one Run. It is touched only by the agent's
// own goroutine; batches write through recordTrial, which locks.
type study struct {
	mu     sync.Mutex
	base   sim.SimulationConfig
	uEst   float64
	trials []Trial
	values map[int]float64
	spent  int // solver runs consumed from the budget
}

// Run executes the state machine: Preflight -> Bracketing -> Refining ->
// Converged | Exhausted. Individual trial failures are recorded in the
// report history and never abort the study.
func (a *Agent) Run(ctx context.Context, base sim.SimulationConfig) (*Report, error) {
	if err := a.opts.validate(); err != nil {
		return nil, err
	}
	uEst, err := ic.VelocityScale(base.IC)
	if err != nil {
		return nil, err
	}

	s := &study{base: base, uEst: uEst, values: make(map[int]float64)}

	n0 := a.opts.StartN
	if n0 <= 0 {
		n0 = base.Grid.Nx
	}
	n0 = roundEven(float64(n0))
	if n0 < 8 {
		n0 = 8
	}

	// Preflight: a doubling triplet seeds both the order estimate and the
	// bracket. Always executed, even when the coarsest grid turns out to
	// be enough.
	preflight := dedupe([]int{n0, 2 * n0, 4 * n0}, a.opts.MaxN)
	a.evalBatch(ctx, s, preflight)
	if ctx.Err() != nil {
		return a.report(s, Exhausted, false), ctx.Err()
	}

	order := a.opts.Order
	if order <= 0 {
		order = a.estimatePreflightOrder(s, preflight)
	}

	for {
		if err := ctx.Err(); err != nil {
			return a.report(s, Exhausted, false), err
		}

		ns, ms := s.sorted()
		if len(ns) < 2 {
			if s.spent >= a.opts.MaxTrials {
				return a.reportWith(s, Exhausted, false, order, ns, ms), nil
			}
			// Not enough successful trials to extrapolate; push the
			// resolution up and retry.
			next := a.nextFiner(ns, n0)
			if next == 0 {
				return a.reportWith(s, Exhausted, false, order, ns, ms), nil
			}
			a.evalBatch(ctx, s, []int{next})
			continue
		}

		// Non-monotonic metrics (common near marginal stability) break
		// the bracket logic; extrapolate only from points past the
		// oscillation peak and mark the result low-confidence.
		lowConf := false
		extraNs, extraMs := ns, ms
		if peak := oscillationPeak(ms); peak > 0 {
			lowConf = true
			past := len(ns) - peak
			if past < 2 && s.spent < a.opts.MaxTrials {
				if probes := a.oscillationProbes(ns); len(probes) > 0 {
					a.evalBatch(ctx, s, probes)
					continue
				}
			}
			if past >= 2 {
				extraNs, extraMs = ns[peak:], ms[peak:]
			}
		}

		k := len(extraNs)
		extrap, errEst := extrapolate(extraNs[k-2], extraMs[k-2], extraNs[k-1], extraMs[k-1], order)

		pass := func(i int) bool { return math.Abs(ms[i]-extrap) <= a.opts.Tolerance }

		hi := -1
		for i := range ns {
			if pass(i) {
				hi = i
				break
			}
		}

		switch {
		case hi == 0:
			// Degenerate bracket: the coarsest successful trial already
			// meets tolerance.
			return a.finish(s, ns[0], extrap, errEst, order, lowConf), nil

		case hi > 0:
			nLo, nHi := ns[hi-1], ns[hi]
			if nHi-nLo <= 2 {
				return a.finish(s, nHi, extrap, errEst, order, lowConf), nil
			}
			if s.spent >= a.opts.MaxTrials {
				return a.finishExhausted(s, nHi, extrap, errEst, order, lowConf), nil
			}
			mid := roundEven(float64(nLo+nHi) / 2)
			if mid <= nLo || mid >= nHi {
				return a.finish(s, nHi, extrap, errEst, order, lowConf), nil
			}
			a.evalBatch(ctx, s, []int{mid})

		default:
			// Nothing passes yet: extend the bracket upward.
			if s.spent >= a.opts.MaxTrials {
				return a.finishExhausted(s, 0, extrap, errEst, order, lowConf), nil
			}
			next := a.nextFiner(ns, n0)
			if next == 0 {
				return a.finishExhausted(s, 0, extrap, errEst, order, lowConf), nil
			}
			a.evalBatch(ctx, s, []int{next})
		}
	}
}

// trialDt derives the timestep for resolution n under the configured
// policy. Under FixedCFL both mesh and timestep refine together; the
// diffusive bound is applied with a safety margin so derived configs never
// trip the solver's own guard.
func (a *Agent) trialDt(s *study, n int) float64 {
	if a.opts.Policy == sim.FixedDt {
		return s.base.Dt
	}
	g := s.base.Grid
	h := math.Min(g.Lx, g.Ly) / float64(n)
	dt := s.base.Dt
	if s.uEst > 0 {
		dt = a.opts.CFL * h / s.uEst
	}
	if nu := s.base.Nu; nu > 0 {
		diff := 0.9 * sim.DiffusiveLimit / (nu * 2 / (h * h))
		dt = math.Min(dt, diff)
	}
	if dt > s.base.TFinal/2 {
		dt = s.base.TFinal / 2
	}
	return dt
}
