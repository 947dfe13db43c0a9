package sim

import "math"

const (
	// AdvectiveCFLLimit is the Courant bound for the explicit advection
	// scheme under SSP-RK3.
	AdvectiveCFLLimit = 0.5
	// DiffusiveLimit bounds nu*dt*(1/dx^2 + 1/dy^2) for explicit diffusion.
	DiffusiveLimit = 0.25
)

// MaxStableDt returns the largest admissible timestep for the given grid,
// viscosity, and velocity-scale estimate. A zero velocity scale or zero
// viscosity disables the corresponding bound.
func MaxStableDt(cfg SimulationConfig, uEst float64) float64 {
	limit := math.Inf(1)
	h := math.Min(cfg.Grid.Dx(), cfg.Grid.Dy())
	if uEst > 0 {
		limit = AdvectiveCFLLimit * h / uEst
	}
	if cfg.Nu > 0 {
		dx2 := cfg.Grid.Dx() * cfg.Grid.Dx()
		dy2 := cfg.Grid.Dy() * cfg.Grid.Dy()
		diff := DiffusiveLimit / (cfg.Nu * (1/dx2 + 1/dy2))
		limit = math.Min(limit, diff)
	}
	return limit
}

// CheckStability rejects the configured dt if it violates either bound.
// uEst is the velocity scale estimated from the initial-condition
// coefficients; the check uses no field data, so it runs before any
// allocation.
func CheckStability(cfg SimulationConfig, uEst float64) error {
	h := math.Min(cfg.Grid.Dx(), cfg.Grid.Dy())
	if uEst > 0 {
		adv := AdvectiveCFLLimit * h / uEst
		if cfg.Dt > adv {
			return &StabilityViolationError{
				Kind: "advective", Dt: cfg.Dt, Limit: adv,
				Message: "reduce dt or coarsen the grid",
			}
		}
	}
	if cfg.Nu > 0 {
		dx2 := cfg.Grid.Dx() * cfg.Grid.Dx()
		dy2 := cfg.Grid.Dy() * cfg.Grid.Dy()
		diff := DiffusiveLimit / (cfg.Nu * (1/dx2 + 1/dy2))
		if cfg.Dt > diff {
			return &StabilityViolationError{
				Kind: "diffusive", Dt: cfg.Dt, Limit: diff,
				Message: "explicit diffusion bound exceeded",
			}
		}
	}
	return nil
}

// CFLPolicy selects how dt behaves as the convergence agent refines the
// grid. FixedCFL re-derives dt from the grid spacing each trial (dual
// refinement); FixedDt holds the base dt across all resolutions.
type CFLPolicy int

const (
	FixedCFL CFLPolicy = iota
	FixedDt
)

func (p CFLPolicy) String() string {
	if p == FixedDt {
		return "fixed-dt"
	}
	return "fixed-cfl"
}
