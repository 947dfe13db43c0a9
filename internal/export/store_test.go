package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
)

func sampleResult() *sim.SolveResult {
	grid := field.GridSpec{Nx: 4, Ny: 4, Lx: 1, Ly: 1}
	final := field.New(grid)
	for i := range final.Data {
		final.Data[i] = float64(i) * 0.5
	}
	snap := final.Clone()
	return &sim.SolveResult{
		Config: sim.SimulationConfig{
			Grid: grid, Nu: 1e-4, Dt: 0.01, TFinal: 1,
			IC: sim.ICSpec{Profile: "gaussian", Pattern: "single", NVortices: 1},
		},
		Snapshots:   []field.Snapshot{{Time: 0.5, Step: 50, Omega: snap}},
		Final:       final,
		Diagnostics: field.Diagnostics{MaxVorticity: 7.5, Energy: 1.25, Enstrophy: 2.5},
		Steps:       100,
		Elapsed:     3 * time.Second,
	}
}

func TestSaveRunRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	result := sampleResult()
	runID, err := store.SaveRun("finite-difference", result)
	require.NoError(t, err)

	meta, err := store.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "finite-difference", meta.Method)
	assert.Equal(t, 4, meta.Nx)
	assert.Equal(t, 100, meta.Steps)
	assert.Equal(t, 7.5, meta.MaxVorticity)

	data, nx, err := store.LoadFieldCSV(runID, "final.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, nx)
	assert.Equal(t, result.Final.Data, data)

	snapData, _, err := store.LoadFieldCSV(runID, "snapshot_t0.5000.csv")
	require.NoError(t, err)
	assert.Equal(t, result.Snapshots[0].Omega.Data, snapData)
}

func TestListRuns(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = store.SaveRun("finite-difference", sampleResult())
	require.NoError(t, err)

	runs, err = store.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "gaussian", runs[0].ICProfile)
}

// Back-to-back saves of the same profile must land in distinct run
// directories rather than overwriting each other.
func TestSaveRunDistinctIDs(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	first, err := store.SaveRun("finite-difference", sampleResult())
	require.NoError(t, err)
	second, err := store.SaveRun("finite-difference", sampleResult())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListMissingBaseDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveReport(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	report := &converge.Report{
		Status:       converge.Converged,
		Metric:       converge.MaxVorticity,
		Tolerance:    1e-2,
		Extrapolated: 10,
		ErrEstimate:  0.004,
		Order:        2,
		BestN:        64,
		BestDt:       0.005,
		Trials: []converge.Trial{
			{N: 32, Dt: 0.01, Value: 10.4},
			{N: 64, Dt: 0.005, Value: 10.1, Cached: true},
			{N: 128, Dt: 0.0025, Err: errors.New("boom"), ErrKind: "blowup"},
		},
	}

	runID, err := store.SaveReport(report)
	require.NoError(t, err)

	base := store.baseDir
	for _, name := range []string{"report.json", "trials.csv"} {
		_, err := os.Stat(filepath.Join(base, runID, name))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(base, runID, "trials.csv"))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "n,dt,value,cached,elapsed_s,error")
	assert.Contains(t, content, "blowup")
}
