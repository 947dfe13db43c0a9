package converge

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vortex2d/internal/sim"
)

// evaluate runs (or recalls) one trial at resolution n. Errors are
// captured into the trial record, never returned: a failed trial is a
// reportable outcome of the study.
func (a *Agent) evaluate(ctx context.Context, s *study, n int) {
	dt := a.trialDt(s, n)
	cfg := s.base.WithResolution(n, dt)
	key := cfg.CacheKey()

	_, cached := a.cache.Lookup(key)

	start := time.Now()
	v, err := a.cache.GetOrCompute(ctx, key, func(ctx context.Context) (float64, error) {
		result, err := a.method.Solve(ctx, cfg)
		if err != nil {
			return 0, err
		}
		return a.opts.Metric.Select(result.Diagnostics), nil
	})

	trial := Trial{
		N:       n,
		Dt:      dt,
		Value:   v,
		Cached:  cached,
		Elapsed: time.Since(start),
		Err:     err,
		ErrKind: classify(err),
	}
	s.record(trial, a.opts.OnTrial)
}

// evalBatch evaluates a set of resolutions, possibly concurrently. Each
// trial is a pure function of its config, so the only shared state is the
// cache; the study records results under its own lock. The agent's state
// machine does not advance until the whole batch has completed.
func (a *Agent) evalBatch(ctx context.Context, s *study, ns []int) {
	if len(ns) == 1 {
		a.evaluate(ctx, s, ns[0])
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Parallel)
	for _, n := range ns {
		n := n
		g.Go(func() error {
			a.evaluate(gctx, s, n)
			return nil
		})
	}
	g.Wait()
}

func classify(err error) string {
	if err == nil {
		return ""
	}
	var invalid *sim.InvalidConfigError
	var stability *sim.StabilityViolationError
	var blowup *sim.NumericalBlowupError
	switch {
	case errors.As(err, &invalid):
		return "invalid-config"
	case errors.As(err, &stability):
		return "stability"
	case errors.As(err, &blowup):
		return "blowup"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (s *study) record(t Trial, onTrial func(Trial)) {
	s.mu.Lock()
	s.trials = append(s.trials, t)
	if !t.Failed() {
		s.values[t.N] = t.Value
	}
	if !t.Cached {
		s.spent++
	}
	s.mu.Unlock()
	if onTrial != nil {
		onTrial(t)
	}
}

// sorted returns the successful (N, metric) pairs in ascending N.
func (s *study) sorted() ([]int, []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := make([]int, 0, len(s.values))
	for n := range s.values {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	ms := make([]float64, len(ns))
	for i, n := range ns {
		ms[i] = s.values[n]
	}
	return ns, ms
}

// estimatePreflightOrder derives the observed order from the preflight
// doubling triplet when all three succeeded; otherwise it assumes the
// scheme's design order of 2.
func (a *Agent) estimatePreflightOrder(s *study, preflight []int) float64 {
	const designOrder = 2
	if len(preflight) < 3 {
		return designOrder
	}
	s.mu.Lock()
	m1, ok1 := s.values[preflight[0]]
	m2, ok2 := s.values[preflight[1]]
	m3, ok3 := s.values[preflight[2]]
	s.mu.Unlock()
	if !ok1 || !ok2 || !ok3 {
		return designOrder
	}
	return estimateOrder(m1, m2, m3, designOrder)
}

// nextFiner proposes the next resolution above everything tried, or zero
// when the cap is reached.
func (a *Agent) nextFiner(tried []int, n0 int) int {
	largest := n0
	if len(tried) > 0 {
		largest = tried[len(tried)-1]
	}
	next := 2 * largest
	if next > a.opts.MaxN {
		if largest >= a.opts.MaxN {
			return 0
		}
		next = a.opts.MaxN
	}
	return roundEven(float64(next))
}

// oscillationPeak returns the index of the first point past the last sign
// change in the successive differences of ms, or zero when the sequence is
// monotone. Points at or beyond the returned index lie past the observed
// oscillation.
func oscillationPeak(ms []float64) int {
	peak := 0
	for i := 2; i < len(ms); i++ {
		d1 := ms[i-1] - ms[i-2]
		d2 := ms[i] - ms[i-1]
		if d1*d2 < 0 {
			peak = i
		}
	}
	return peak
}

// oscillationProbes proposes extra resolutions past the finest tried, used
// when an oscillating metric leaves too few points beyond its peak.
func (a *Agent) oscillationProbes(tried []int) []int {
	largest := tried[len(tried)-1]
	probes := make([]int, 0, 2)
	for _, f := range []float64{1.5, 2} {
		n := roundEven(f * float64(largest))
		if n > largest && n <= a.opts.MaxN {
			probes = append(probes, n)
		}
	}
	return dedupe(probes, a.opts.MaxN)
}

func roundEven(x float64) int {
	n := int(math.Round(x/2)) * 2
	if n < 2 {
		n = 2
	}
	return n
}

// dedupe sorts, clamps to the cap, and removes duplicates.
func dedupe(ns []int, maxN int) []int {
	out := make([]int, 0, len(ns))
	for _, n := range ns {
		if n > maxN {
			n = maxN
		}
		out = append(out, n)
	}
	sort.Ints(out)
	uniq := out[:0]
	for i, n := range out {
		if i == 0 || n != out[i-1] {
			uniq = append(uniq, n)
		}
	}
	return uniq
}

// report builders.

func (a *Agent) baseReport(s *study, status Status, lowConf bool) *Report {
	s.mu.Lock()
	trials := make([]Trial, len(s.trials))
	copy(trials, s.trials)
	s.mu.Unlock()
	return &Report{
		Status:        status,
		LowConfidence: lowConf,
		Metric:        a.opts.Metric,
		Tolerance:     a.opts.Tolerance,
		Policy:        a.opts.Policy,
		Trials:        trials,
	}
}

func (a *Agent) report(s *study, status Status, lowConf bool) *Report {
	return a.baseReport(s, status, lowConf)
}

// reportWith fills the best-available estimate for studies that ended
// before a proper bracket existed.
func (a *Agent) reportWith(s *study, status Status, lowConf bool, order float64, ns []int, ms []float64) *Report {
	r := a.baseReport(s, status, lowConf)
	r.Order = order
	switch len(ns) {
	case 0:
	case 1:
		r.Extrapolated = ms[0]
		r.ErrEstimate = math.Abs(ms[0])
		r.LowConfidence = true
	default:
		k := len(ns)
		r.Extrapolated, r.ErrEstimate = extrapolate(ns[k-2], ms[k-2], ns[k-1], ms[k-1], order)
	}
	return r
}

func (a *Agent) finish(s *study, bestN int, extrap, errEst, order float64, lowConf bool) *Report {
	r := a.baseReport(s, Converged, lowConf)
	r.Extrapolated = extrap
	r.ErrEstimate = errEst
	r.Order = order
	r.BestN = bestN
	r.BestDt = a.trialDt(s, bestN)
	return r
}

func (a *Agent) finishExhausted(s *study, bestN int, extrap, errEst, order float64, lowConf bool) *Report {
	r := a.baseReport(s, Exhausted, lowConf)
	r.Extrapolated = extrap
	r.ErrEstimate = errEst
	r.Order = order
	r.BestN = bestN
	if bestN > 0 {
		r.BestDt = a.trialDt(s, bestN)
	}
	return r
}
