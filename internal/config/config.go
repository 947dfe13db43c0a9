package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
)

const (
	DefaultN      = 128
	DefaultLx     = 10.0
	DefaultLy     = 10.0
	DefaultDt     = 0.001
	DefaultTFinal = 10.0
	DefaultNu     = 1e-4
	DefaultCFL    = 0.4
)

type Config struct {
	Method string  `yaml:"method"`
	Nx     int     `yaml:"nx"`
	Ny     int     `yaml:"ny"`
	Lx     float64 `yaml:"lx"`
	Ly     float64 `yaml:"ly"`
	Nu     float64 `yaml:"nu"`
	Dt     float64 `yaml:"dt"`
	TFinal float64 `yaml:"t_final"`

	IC          ICConfig   `yaml:"ic"`
	Snapshots   []float64  `yaml:"snapshots"`
	Convergence ConvConfig `yaml:"convergence"`
}

type ICConfig struct {
	Profile   string             `yaml:"profile"`
	Pattern   string             `yaml:"pattern"`
	NVortices int                `yaml:"n_vortices"`
	Seed      int64              `yaml:"seed"`
	Coeffs    map[string]float64 `yaml:"coeffs"`
}

type ConvConfig struct {
	Metric    string  `yaml:"metric"`
	Tolerance float64 `yaml:"tolerance"`
	MaxTrials int     `yaml:"max_trials"`
	Policy    string  `yaml:"policy"` // fixed-cfl or fixed-dt
	CFL       float64 `yaml:"cfl"`
	StartN    int     `yaml:"start_n"`
	MaxN      int     `yaml:"max_n"`
	Order     float64 `yaml:"order"`
}

func DefaultConfig() *Config {
	return &Config{
		Method: "finite-difference",
		Nx:     DefaultN,
		Ny:     DefaultN,
		Lx:     DefaultLx,
		Ly:     DefaultLy,
		Nu:     DefaultNu,
		Dt:     DefaultDt,
		TFinal: DefaultTFinal,
		IC: ICConfig{
			Profile:   "lamb-oseen",
			Pattern:   "single",
			NVortices: 1,
		},
		Convergence: ConvConfig{
			Metric:    "max-vorticity",
			Tolerance: 1e-2,
			MaxTrials: 12,
			Policy:    "fixed-cfl",
			CFL:       DefaultCFL,
			MaxN:      1024,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Simulation converts the file-level config into the validated simulation
// config used by solvers.
func (c *Config) Simulation() (sim.SimulationConfig, error) {
	scfg := sim.SimulationConfig{
		Grid:   field.GridSpec{Nx: c.Nx, Ny: c.Ny, Lx: c.Lx, Ly: c.Ly},
		Nu:     c.Nu,
		Dt:     c.Dt,
		TFinal: c.TFinal,
		IC: sim.ICSpec{
			Profile:   c.IC.Profile,
			Pattern:   c.IC.Pattern,
			NVortices: c.IC.NVortices,
			Seed:      c.IC.Seed,
			Coeffs:    c.IC.Coeffs,
		},
		SnapshotTimes: c.Snapshots,
	}
	if err := scfg.Validate(); err != nil {
		return sim.SimulationConfig{}, err
	}
	return scfg, nil
}

// ConvergeOptions converts the convergence section into agent options.
func (c *Config) ConvergeOptions() (converge.Options, error) {
	opts := converge.DefaultOptions()
	cc := c.Convergence
	if cc.Metric != "" {
		m, err := converge.ParseMetric(cc.Metric)
		if err != nil {
			return opts, err
		}
		opts.Metric = m
	}
	if cc.Tolerance > 0 {
		opts.Tolerance = cc.Tolerance
	}
	if cc.MaxTrials > 0 {
		opts.MaxTrials = cc.MaxTrials
	}
	switch cc.Policy {
	case "", "fixed-cfl":
		opts.Policy = sim.FixedCFL
	case "fixed-dt":
		opts.Policy = sim.FixedDt
	default:
		return opts, &sim.InvalidConfigError{
			Field:  "convergence.policy",
			Reason: "unknown policy " + cc.Policy + " (fixed-cfl, fixed-dt)",
		}
	}
	if cc.CFL > 0 {
		opts.CFL = cc.CFL
	}
	if cc.StartN > 0 {
		opts.StartN = cc.StartN
	}
	if cc.MaxN > 0 {
		opts.MaxN = cc.MaxN
	}
	if cc.Order > 0 {
		opts.Order = cc.Order
	}
	return opts, nil
}
