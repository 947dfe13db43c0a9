package converge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/vortex2d/internal/cache"
	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
)

// fakeMethod reports a metric that follows m(N) = limit + coef/N^2, with
// optional per-resolution overrides and injected failures. It exercises the
// agent's search logic without the cost of real solves.
type fakeMethod struct {
	limit  float64
	coef   float64
	values map[int]float64
	fail   map[int]error
	solves atomic.Int64
}

func (f *fakeMethod) Name() string { return "fake" }

func (f *fakeMethod) Solve(_ context.Context, cfg sim.SimulationConfig) (*sim.SolveResult, error) {
	f.solves.Add(1)
	n := cfg.Grid.Nx
	if err, ok := f.fail[n]; ok {
		return nil, err
	}
	v, ok := f.values[n]
	if !ok {
		v = f.limit + f.coef/float64(n*n)
	}
	return &sim.SolveResult{
		Config:      cfg,
		Diagnostics: field.Diagnostics{MaxVorticity: v, Energy: v, Enstrophy: v},
	}, nil
}

func baseConfig() sim.SimulationConfig {
	return sim.SimulationConfig{
		Grid:   field.GridSpec{Nx: 8, Ny: 8, Lx: 10, Ly: 10},
		Nu:     1e-4,
		Dt:     1e-3,
		TFinal: 1,
		IC:     sim.ICSpec{Profile: "gaussian", Pattern: "single", NVortices: 1},
	}
}

func fixedDtOptions(tol float64) Options {
	opts := DefaultOptions()
	opts.Policy = sim.FixedDt
	opts.Tolerance = tol
	opts.StartN = 8
	opts.Parallel = 1
	return opts
}

func TestRunConvergesOnSecondOrderMetric(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	agent := New(method, nil, fixedDtOptions(0.5))

	report, err := agent.Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(report.Status).To(Equal(Converged))
	g.Expect(report.LowConfidence).To(BeFalse())
	// Bisection between the failing 8 and passing 16 lands on 16 once the
	// bracket collapses.
	g.Expect(report.BestN).To(Equal(16))
	g.Expect(report.BestDt).To(Equal(1e-3))
	g.Expect(report.Extrapolated).To(BeNumerically("~", 10.0, 1e-9))
	g.Expect(report.Order).To(BeNumerically("~", 2.0, 1e-9))
	g.Expect(report.ErrEstimate).To(BeNumerically(">", 0))

	// Preflight 8/16/32 plus midpoints 12 and 14.
	g.Expect(report.Trials).To(HaveLen(5))
	succ := report.Succeeded()
	ns := make([]int, len(succ))
	for i, tr := range succ {
		ns[i] = tr.N
	}
	g.Expect(ns).To(Equal([]int{8, 12, 14, 16, 32}))
}

func TestRunExhaustsBudget(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	opts := fixedDtOptions(1e-12)
	opts.MaxTrials = 4
	agent := New(method, nil, opts)

	report, err := agent.Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(report.Status).To(Equal(Exhausted))
	g.Expect(report.BestN).To(BeZero())
	g.Expect(report.Extrapolated).To(BeNumerically("~", 10.0, 1e-9))
	g.Expect(method.solves.Load()).To(Equal(int64(4)))
}

func TestRunRecordsFailedTrials(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{
		limit: 10,
		coef:  100,
		fail:  map[int]error{8: &sim.NumericalBlowupError{Step: 3, Time: 0.003}},
	}
	agent := New(method, nil, fixedDtOptions(0.5))

	report, err := agent.Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())

	// With the coarsest trial gone, 16 passes against the 16/32
	// extrapolation immediately.
	g.Expect(report.Status).To(Equal(Converged))
	g.Expect(report.BestN).To(Equal(16))

	var failed []Trial
	for _, tr := range report.Trials {
		if tr.Failed() {
			failed = append(failed, tr)
		}
	}
	g.Expect(failed).To(HaveLen(1))
	g.Expect(failed[0].N).To(Equal(8))
	g.Expect(failed[0].ErrKind).To(Equal("blowup"))

	for _, tr := range report.Succeeded() {
		g.Expect(tr.N).NotTo(Equal(8))
	}
}

func TestRunNonMonotonicLowConfidence(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{
		limit: 10,
		values: map[int]float64{
			8:  10.5,
			16: 9.8,
			32: 10.05,
			48: 10.02,
			64: 10.01,
		},
	}
	agent := New(method, nil, fixedDtOptions(0.6))

	report, err := agent.Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(report.Status).To(Equal(Converged))
	g.Expect(report.LowConfidence).To(BeTrue())

	// The oscillation forces probes past the finest preflight point.
	tried := make(map[int]bool)
	for _, tr := range report.Trials {
		tried[tr.N] = true
	}
	g.Expect(tried).To(HaveKey(48))
	g.Expect(tried).To(HaveKey(64))
}

func TestRunReusesSharedCache(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	shared := cache.New()
	opts := fixedDtOptions(0.5)

	first, err := New(method, shared, opts).Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())
	solvesAfterFirst := method.solves.Load()
	g.Expect(solvesAfterFirst).To(BeNumerically(">", 0))

	second, err := New(method, shared, opts).Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(method.solves.Load()).To(Equal(solvesAfterFirst))

	g.Expect(second.Status).To(Equal(first.Status))
	g.Expect(second.BestN).To(Equal(first.BestN))
	for _, tr := range second.Trials {
		g.Expect(tr.Cached).To(BeTrue(), "trial at N=%d should be a cache hit", tr.N)
	}
}

func TestRunCanceledContext(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	agent := New(method, nil, fixedDtOptions(0.5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := agent.Run(ctx, baseConfig())
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(report).NotTo(BeNil())
	g.Expect(report.Status).To(Equal(Exhausted))
}

func TestRunRejectsBadOptions(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	opts := fixedDtOptions(0.5)
	opts.Tolerance = -1

	_, err := New(method, nil, opts).Run(context.Background(), baseConfig())
	var ice *sim.InvalidConfigError
	g.Expect(err).To(HaveOccurred())
	g.Expect(errors.As(err, &ice)).To(BeTrue())
}

func TestRunOnTrialCallback(t *testing.T) {
	g := NewWithT(t)

	method := &fakeMethod{limit: 10, coef: 100}
	opts := fixedDtOptions(0.5)
	var seen []int
	opts.OnTrial = func(tr Trial) { seen = append(seen, tr.N) }

	report, err := New(method, nil, opts).Run(context.Background(), baseConfig())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(seen).To(HaveLen(len(report.Trials)))
}

func TestTrialDtPolicies(t *testing.T) {
	g := NewWithT(t)

	base := baseConfig()
	base.Grid.Lx = 10
	base.Grid.Ly = 10
	base.TFinal = 10
	s := &study{base: base, uEst: 0.5}

	fixed := New(&fakeMethod{}, nil, fixedDtOptions(0.5))
	g.Expect(fixed.trialDt(s, 64)).To(Equal(base.Dt))

	opts := DefaultOptions()
	opts.CFL = 0.4
	cfl := New(&fakeMethod{}, nil, opts)
	// dt = CFL * h / U with h = 10/64.
	g.Expect(cfl.trialDt(s, 64)).To(BeNumerically("~", 0.4*(10.0/64)/0.5, 1e-12))

	// Doubling the resolution halves the derived timestep.
	g.Expect(cfl.trialDt(s, 128)).To(BeNumerically("~", cfl.trialDt(s, 64)/2, 1e-12))
}
