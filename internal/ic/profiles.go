package ic

import (
	"math"
	"sort"

	"github.com/san-kum/vortex2d/internal/sim"
)

// coeff reads a named coefficient with a default.
func coeff(m map[string]float64, name string, def float64) float64 {
	if v, ok := m[name]; ok {
		return v
	}
	return def
}

// profile is one closed-form vorticity shape. pointwise evaluates a single
// vortex centered at the origin; taylor-green overrides the whole field
// instead (it is not a localized vortex).
type profile struct {
	// eval returns omega at (x, y) for a vortex centered at the origin.
	eval func(x, y float64, c map[string]float64) float64
	// velocityScale estimates the peak advection speed induced by one
	// vortex, used for the pre-run CFL check.
	velocityScale func(c map[string]float64) float64
	// wholeField profiles ignore vortex positions (taylor-green).
	wholeField bool
}

var profiles = map[string]profile{
	// Smoothly truncated Gaussian blob: a Gaussian core multiplied by a
	// C2 polynomial taper that reaches zero at cutoff*sigma, so the field
	// has compact support.
	"gaussian": {
		eval: func(x, y float64, c map[string]float64) float64 {
			amp := coeff(c, "amplitude", 1.0)
			sigma := coeff(c, "sigma", 0.5)
			cut := coeff(c, "cutoff", 4.0) * sigma
			r2 := x*x + y*y
			if r2 >= cut*cut {
				return 0
			}
			taper := 1 - r2/(cut*cut)
			return amp * math.Exp(-r2/(2*sigma*sigma)) * taper * taper
		},
		velocityScale: func(c map[string]float64) float64 {
			return coeff(c, "amplitude", 1.0) * coeff(c, "sigma", 0.5)
		},
	},

	// Counter-rotating Gaussian pair separated along y.
	"vortex-pair": {
		eval: func(x, y float64, c map[string]float64) float64 {
			amp := coeff(c, "amplitude", 1.0)
			sigma := coeff(c, "sigma", 0.5)
			d := coeff(c, "separation", 1.0)
			s2 := 2 * sigma * sigma
			up := math.Exp(-(x*x + (y-d/2)*(y-d/2)) / s2)
			dn := math.Exp(-(x*x + (y+d/2)*(y+d/2)) / s2)
			return amp * (up - dn)
		},
		velocityScale: func(c map[string]float64) float64 {
			return 2 * coeff(c, "amplitude", 1.0) * coeff(c, "sigma", 0.5)
		},
	},

	// Lamb-Oseen benchmark vortex: gamma/(4 pi nu0 t0) * exp(-r^2/(4 nu0 t0)).
	"lamb-oseen": {
		eval: func(x, y float64, c map[string]float64) float64 {
			gamma := coeff(c, "gamma", 1.0)
			nu0 := coeff(c, "nu0", 0.1)
			t0 := coeff(c, "t0", 1.0)
			core := 4 * nu0 * t0
			return gamma / (math.Pi * core) * math.Exp(-(x*x+y*y)/core)
		},
		velocityScale: func(c map[string]float64) float64 {
			gamma := coeff(c, "gamma", 1.0)
			rc := math.Sqrt(4 * coeff(c, "nu0", 0.1) * coeff(c, "t0", 1.0))
			return gamma / (2 * math.Pi * rc)
		},
	},

	// Rankine vortex: uniform core vorticity inside core_radius.
	"rankine": {
		eval: func(x, y float64, c map[string]float64) float64 {
			rc := coeff(c, "core_radius", 0.5)
			if x*x+y*y <= rc*rc {
				return coeff(c, "omega0", 1.0)
			}
			return 0
		},
		velocityScale: func(c map[string]float64) float64 {
			return coeff(c, "omega0", 1.0) * coeff(c, "core_radius", 0.5) / 2
		},
	},

	// Taylor-Green cellular field: 2k sin(kx) sin(ky), with higher
	// harmonics folded in when more than one "vortex" is requested.
	"taylor-green": {
		wholeField: true,
		eval: func(x, y float64, c map[string]float64) float64 {
			amp := coeff(c, "amplitude", 1.0)
			k := coeff(c, "wavenumber", 1.0)
			omega := 2 * k * math.Sin(k*x) * math.Sin(k*y)
			n := int(coeff(c, "harmonics", 1))
			for i := 2; i <= n; i++ {
				ki := k * float64(i)
				omega += 2 * ki / float64(i) * math.Sin(ki*x) * math.Sin(ki*y)
			}
			return amp * omega
		},
		velocityScale: func(c map[string]float64) float64 {
			return coeff(c, "amplitude", 1.0)
		},
	},
}

// Profiles lists the supported profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VelocityScale estimates the peak advection speed for the spec, from the
// coefficients alone. Used by the stability guard before any allocation.
func VelocityScale(spec sim.ICSpec) (float64, error) {
	p, ok := profiles[spec.Profile]
	if !ok {
		return 0, unknownProfile(spec.Profile)
	}
	return p.velocityScale(spec.Coeffs), nil
}

func unknownProfile(name string) error {
	return &sim.InvalidConfigError{
		Field:  "ic.profile",
		Reason: "unknown profile " + name,
	}
}
