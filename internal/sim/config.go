package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/vortex2d/internal/field"
)

// ICSpec names an initial-condition profile and its coefficients. Profiles
// are a closed set owned by the ic package; the coefficients are free-form
// and interpreted per profile.
type ICSpec struct {
	Profile   string
	Pattern   string // vortex arrangement: single, grid, circular, random
	NVortices int
	Seed      int64 // placement seed for the random pattern
	Coeffs    map[string]float64
}

// SimulationConfig fully determines one solve. It is deterministic input:
// two solves with equal configs produce bit-identical results, which is
// what makes result caching sound.
type SimulationConfig struct {
	Grid          field.GridSpec
	Nu            float64
	Dt            float64
	TFinal        float64
	IC            ICSpec
	SnapshotTimes []float64
}

// Validate rejects structurally bad configs before any allocation. Profile
// names are checked later by the initial-condition generator, which owns
// the closed set.
func (c SimulationConfig) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return &InvalidConfigError{Field: "grid", Reason: err.Error()}
	}
	if c.Dt <= 0 {
		return invalidf("dt", "must be positive, got %g", c.Dt)
	}
	if c.TFinal <= c.Dt {
		return invalidf("t_final", "must exceed dt, got t_final=%g dt=%g", c.TFinal, c.Dt)
	}
	if c.Nu < 0 {
		return invalidf("nu", "must be non-negative, got %g", c.Nu)
	}
	if c.IC.Profile == "" {
		return invalidf("ic", "profile must be set")
	}
	if c.IC.NVortices < 0 {
		return invalidf("ic", "n_vortices must be non-negative, got %d", c.IC.NVortices)
	}
	return nil
}

// CacheKey is the canonical serialization of every field that influences
// the solve output. Coefficients are emitted in sorted order so equal
// configs always map to the same key.
func (c SimulationConfig) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nx=%d;ny=%d;lx=%g;ly=%g;nu=%g;dt=%g;t=%g;ic=%s;pat=%s;nv=%d;seed=%d",
		c.Grid.Nx, c.Grid.Ny, c.Grid.Lx, c.Grid.Ly,
		c.Nu, c.Dt, c.TFinal,
		c.IC.Profile, c.IC.Pattern, c.IC.NVortices, c.IC.Seed)
	keys := make([]string, 0, len(c.IC.Coeffs))
	for k := range c.IC.Coeffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ";%s=%g", k, c.IC.Coeffs[k])
	}
	return b.String()
}

// WithResolution returns a copy of the config at grid size N (square) and
// timestep dt, leaving everything else untouched. Used by the convergence
// agent during refinement.
func (c SimulationConfig) WithResolution(n int, dt float64) SimulationConfig {
	out := c
	out.Grid.Nx = n
	out.Grid.Ny = n
	out.Dt = dt
	return out
}
