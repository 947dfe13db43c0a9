package config

import "sort"

// Presets mirror the configurations the original interface shipped with.
var Presets = map[string]*Config{
	"quick-test": {
		Method: "finite-difference",
		Nx:     64, Ny: 64, Lx: DefaultLx, Ly: DefaultLy,
		Nu: DefaultNu, Dt: DefaultDt, TFinal: 1.0,
		IC: ICConfig{Profile: "lamb-oseen", Pattern: "single", NVortices: 1},
	},
	"standard": {
		Method: "finite-difference",
		Nx:     128, Ny: 128, Lx: DefaultLx, Ly: DefaultLy,
		Nu: DefaultNu, Dt: DefaultDt, TFinal: 10.0,
		IC: ICConfig{Profile: "lamb-oseen", Pattern: "grid", NVortices: 4},
	},
	"high-resolution": {
		Method: "finite-difference",
		Nx:     256, Ny: 256, Lx: DefaultLx, Ly: DefaultLy,
		Nu: DefaultNu, Dt: DefaultDt, TFinal: 10.0,
		IC: ICConfig{Profile: "lamb-oseen", Pattern: "circular", NVortices: 6},
	},
	"convergence-study": {
		Method: "finite-difference",
		Nx:     128, Ny: 128, Lx: DefaultLx, Ly: DefaultLy,
		Nu: DefaultNu, Dt: 0.0001, TFinal: 1.0,
		IC: ICConfig{Profile: "taylor-green", Pattern: "single", NVortices: 1},
		Convergence: ConvConfig{
			Metric:    "max-vorticity",
			Tolerance: 1e-2,
			MaxTrials: 12,
			Policy:    "fixed-cfl",
			CFL:       DefaultCFL,
			StartN:    32,
			MaxN:      512,
		},
	},
}

// GetPreset returns a copy of the named preset with unset sections filled
// from the defaults, or nil if the name is unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	def := DefaultConfig()
	if cfg.Convergence.Metric == "" {
		cfg.Convergence = def.Convergence
	}
	return &cfg
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
