package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/vortex2d/internal/cache"
	"github.com/san-kum/vortex2d/internal/config"
	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/export"
	_ "github.com/san-kum/vortex2d/internal/fd" // registers the finite-difference method
	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
	"github.com/san-kum/vortex2d/internal/sweep"
	"github.com/san-kum/vortex2d/internal/tui"
	"github.com/san-kum/vortex2d/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	method     string
	gridN      int
	lx, ly     float64
	nu         float64
	dt         float64
	tFinal     float64
	icProfile  string
	icPattern  string
	nVortices  int
	seed       int64
	live       bool
	save       bool

	tolerance float64
	metric    string
	maxTrials int
	policy    string
	cfl       float64
	startN    int
	maxN      int
	order     float64
	cacheFile string

	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepCount int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vortex2d",
		Short: "2D vorticity-streamfunction solver with adaptive convergence studies",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vortex2d", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a single simulation",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "live monitor")
	runCmd.Flags().BoolVar(&save, "save", false, "save run to data directory")

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "run an adaptive convergence study",
		RunE:  runConvergence,
	}
	addSimFlags(convergeCmd)
	convergeCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "convergence tolerance")
	convergeCmd.Flags().StringVar(&metric, "metric", "", "metric (max-vorticity, energy, enstrophy)")
	convergeCmd.Flags().IntVar(&maxTrials, "max-trials", 0, "trial budget")
	convergeCmd.Flags().StringVar(&policy, "policy", "", "dt policy (fixed-cfl, fixed-dt)")
	convergeCmd.Flags().Float64Var(&cfl, "cfl", 0, "target courant number")
	convergeCmd.Flags().IntVar(&startN, "start-n", 0, "coarsest resolution")
	convergeCmd.Flags().IntVar(&maxN, "max-n", 0, "resolution cap")
	convergeCmd.Flags().Float64Var(&order, "order", 0, "assumed convergence order (0 = estimate)")
	convergeCmd.Flags().StringVar(&cacheFile, "cache-file", "", "persist trial cache to file")
	convergeCmd.Flags().BoolVar(&live, "live", false, "live monitor")
	convergeCmd.Flags().BoolVar(&save, "save", false, "save report to data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter across a range",
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "nu", "parameter to vary (nu, dt, t_final, or IC coefficient)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "range start")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0, "range end")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 5, "number of cases")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "render the final field of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	rootCmd.AddCommand(runCmd, convergeCmd, sweepCmd, presetsCmd, listCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "finite-difference", "solver method")
	cmd.Flags().IntVar(&gridN, "n", 0, "grid size (square)")
	cmd.Flags().Float64Var(&lx, "lx", 0, "domain width")
	cmd.Flags().Float64Var(&ly, "ly", 0, "domain height")
	cmd.Flags().Float64Var(&nu, "nu", -1, "viscosity")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&tFinal, "time", 0, "final time")
	cmd.Flags().StringVar(&icProfile, "ic", "", "initial condition profile")
	cmd.Flags().StringVar(&icPattern, "pattern", "", "vortex arrangement pattern")
	cmd.Flags().IntVar(&nVortices, "vortices", 0, "number of vortices")
	cmd.Flags().Int64Var(&seed, "seed", 0, "placement seed (random pattern)")
}

// loadConfig layers: defaults <- preset <- config file <- flags.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)",
				preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if gridN > 0 {
		cfg.Nx, cfg.Ny = gridN, gridN
	}
	if lx > 0 {
		cfg.Lx = lx
	}
	if ly > 0 {
		cfg.Ly = ly
	}
	if nu >= 0 {
		cfg.Nu = nu
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if tFinal > 0 {
		cfg.TFinal = tFinal
	}
	if icProfile != "" {
		cfg.IC.Profile = icProfile
	}
	if icPattern != "" {
		cfg.IC.Pattern = icPattern
	}
	if nVortices > 0 {
		cfg.IC.NVortices = nVortices
	}
	if seed != 0 {
		cfg.IC.Seed = seed
	}

	if tolerance > 0 {
		cfg.Convergence.Tolerance = tolerance
	}
	if metric != "" {
		cfg.Convergence.Metric = metric
	}
	if maxTrials > 0 {
		cfg.Convergence.MaxTrials = maxTrials
	}
	if policy != "" {
		cfg.Convergence.Policy = policy
	}
	if cfl > 0 {
		cfg.Convergence.CFL = cfl
	}
	if startN > 0 {
		cfg.Convergence.StartN = startN
	}
	if maxN > 0 {
		cfg.Convergence.MaxN = maxN
	}
	if order > 0 {
		cfg.Convergence.Order = order
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scfg, err := cfg.Simulation()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var obs sim.Observer
	var events chan tea.Msg
	var monitorDone chan struct{}
	if live {
		events = make(chan tea.Msg, 64)
		obs = sim.ObserverFunc(func(info sim.StepInfo) {
			select {
			case events <- tui.StepMsg(info):
			default: // never stall the solver on a slow terminal
			}
		})
		monitorDone = make(chan struct{})
		go func() {
			defer close(monitorDone)
			p := tea.NewProgram(tui.NewModel("vortex2d run", events))
			p.Run()
		}()
	}

	solver, err := sim.NewMethod(cfg.Method, obs)
	if err != nil {
		return err
	}

	result, err := solver.Solve(ctx, scfg)
	if live {
		close(events)
		<-monitorDone
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed %d steps to t=%g in %.2fs\n", result.Steps, result.EndTime, result.Elapsed.Seconds())
	fmt.Printf("max|w| = %.6g   energy = %.6g   enstrophy = %.6g\n",
		result.Diagnostics.MaxVorticity, result.Diagnostics.Energy, result.Diagnostics.Enstrophy)
	fmt.Println()
	fmt.Print(viz.RenderField(result.Final, 64, 24))

	if save {
		store := export.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.SaveRun(cfg.Method, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved as %s\n", runID)
	}
	return nil
}

func runConvergence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scfg, err := cfg.Simulation()
	if err != nil {
		return err
	}
	opts, err := cfg.ConvergeOptions()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	solver, err := sim.NewMethod(cfg.Method, nil)
	if err != nil {
		return err
	}

	trialCache := cache.New()
	if cacheFile != "" {
		if err := trialCache.Load(cacheFile); err != nil {
			return err
		}
	}

	var events chan tea.Msg
	var monitorDone chan struct{}
	if live {
		events = make(chan tea.Msg, 64)
		opts.OnTrial = func(t converge.Trial) {
			select {
			case events <- tui.TrialMsg(t):
			default:
			}
		}
		monitorDone = make(chan struct{})
		go func() {
			defer close(monitorDone)
			p := tea.NewProgram(tui.NewModel("vortex2d converge", events))
			p.Run()
		}()
	} else {
		opts.OnTrial = func(t converge.Trial) {
			if t.Failed() {
				fmt.Printf("trial N=%d failed: %s\n", t.N, t.ErrKind)
				return
			}
			fmt.Printf("trial N=%d dt=%.3g -> %.6g (%.2fs)\n", t.N, t.Dt, t.Value, t.Elapsed.Seconds())
		}
	}

	agent := converge.New(solver, trialCache, opts)
	report, err := agent.Run(ctx, scfg)
	if live {
		close(events)
		<-monitorDone
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(viz.PlotConvergence(report))

	if cacheFile != "" {
		if err := trialCache.Save(cacheFile); err != nil {
			return err
		}
	}
	if save {
		store := export.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.SaveReport(report)
		if err != nil {
			return err
		}
		fmt.Printf("saved as %s\n", runID)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scfg, err := cfg.Simulation()
	if err != nil {
		return err
	}
	if sweepTo == sweepFrom {
		return fmt.Errorf("sweep range is empty: --from %g --to %g", sweepFrom, sweepTo)
	}

	ctx, cancel := signalContext()
	defer cancel()

	solver, err := sim.NewMethod(cfg.Method, nil)
	if err != nil {
		return err
	}

	runner := sweep.NewRunner(solver, 0)
	runner.OnDone = func(o sweep.Outcome) {
		if o.Err != nil {
			fmt.Printf("%s: failed: %v\n", o.Case.Label, o.Err)
			return
		}
		fmt.Printf("%s: done in %.2fs\n", o.Case.Label, o.Elapsed.Seconds())
	}

	cases := sweep.Range(scfg, sweepParam, sweepFrom, sweepTo, sweepCount)
	outcomes := runner.Run(ctx, cases)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "case\tmax|w|\tenergy\tenstrophy\tstatus")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", o.Case.Label, o.Err)
			continue
		}
		d := o.Result.Diagnostics
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\tok\n", o.Case.Label, d.MaxVorticity, d.Energy, d.Enstrophy)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := export.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tgrid\tnu\tdt\tt_final\tmax|w|")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%dx%d\t%g\t%g\t%g\t%.6g\n",
			r.ID, r.Nx, r.Ny, r.Nu, r.Dt, r.TFinal, r.MaxVorticity)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := export.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	data, nx, err := store.LoadFieldCSV(args[0], "final.csv")
	if err != nil {
		return err
	}

	f := &field.Field{
		Grid: field.GridSpec{Nx: nx, Ny: len(data) / nx, Lx: 1, Ly: 1},
		Data: data,
	}
	fmt.Printf("%s  (%dx%d, t=%g)\n\n", meta.ID, meta.Nx, meta.Ny, meta.TFinal)
	fmt.Print(viz.RenderField(f, 64, 24))
	return nil
}
