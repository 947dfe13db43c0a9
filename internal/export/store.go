// Package export persists solve results and convergence reports as plain
// data files. The base directory is an opaque handle supplied by the
// caller; no path policy lives here.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Nx        int       `json:"nx"`
	Ny        int       `json:"ny"`
	Nu        float64   `json:"nu"`
	Dt        float64   `json:"dt"`
	TFinal    float64   `json:"t_final"`
	ICProfile string    `json:"ic_profile"`
	Steps     int       `json:"steps"`
	ElapsedS  float64   `json:"elapsed_s"`

	MaxVorticity float64 `json:"max_vorticity"`
	Energy       float64 `json:"energy"`
	Enstrophy    float64 `json:"enstrophy"`
}

// SaveRun writes metadata plus the final field and snapshots under a fresh
// run directory, returning the run ID.
func (s *Store) SaveRun(method string, result *sim.SolveResult) (string, error) {
	runID := fmt.Sprintf("%s_%d", result.Config.IC.Profile, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Timestamp:    time.Now(),
		Method:       method,
		Nx:           result.Config.Grid.Nx,
		Ny:           result.Config.Grid.Ny,
		Nu:           result.Config.Nu,
		Dt:           result.Config.Dt,
		TFinal:       result.Config.TFinal,
		ICProfile:    result.Config.IC.Profile,
		Steps:        result.Steps,
		ElapsedS:     result.Elapsed.Seconds(),
		MaxVorticity: result.Diagnostics.MaxVorticity,
		Energy:       result.Diagnostics.Energy,
		Enstrophy:    result.Diagnostics.Enstrophy,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if result.Final != nil {
		if err := writeFieldCSV(filepath.Join(runDir, "final.csv"), result.Final.Grid.Nx, result.Final.Data); err != nil {
			return "", err
		}
	}
	for _, snap := range result.Snapshots {
		name := fmt.Sprintf("snapshot_t%s.csv", strconv.FormatFloat(snap.Time, 'f', 4, 64))
		if err := writeFieldCSV(filepath.Join(runDir, name), snap.Omega.Grid.Nx, snap.Omega.Data); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// SaveReport writes a convergence report as JSON plus a trial-history CSV.
func (s *Store) SaveReport(report *converge.Report) (string, error) {
	runID := fmt.Sprintf("converge_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "report.json"), reportJSON(report)); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "trials.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"n", "dt", "value", "cached", "elapsed_s", "error"}); err != nil {
		return "", err
	}
	for _, t := range report.Trials {
		errText := ""
		if t.Err != nil {
			errText = t.ErrKind
		}
		row := []string{
			strconv.Itoa(t.N),
			strconv.FormatFloat(t.Dt, 'g', -1, 64),
			strconv.FormatFloat(t.Value, 'g', -1, 64),
			strconv.FormatBool(t.Cached),
			strconv.FormatFloat(t.Elapsed.Seconds(), 'f', 3, 64),
			errText,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFieldCSV reads a field written by writeFieldCSV back into a dense
// array, returning the data row-major plus the row width.
func (s *Store) LoadFieldCSV(runID, name string) ([]float64, int, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%s/%s: empty field file", runID, name)
	}

	nx := len(records[0])
	data := make([]float64, 0, nx*len(records))
	for _, record := range records {
		for _, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, 0, err
			}
			data = append(data, v)
		}
	}
	return data, nx, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFieldCSV emits one CSV row per grid row.
func writeFieldCSV(path string, nx int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	row := make([]string, nx)
	for off := 0; off < len(data); off += nx {
		for i := 0; i < nx; i++ {
			row[i] = strconv.FormatFloat(data[off+i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// reportJSON flattens a report into JSON-friendly types.
func reportJSON(r *converge.Report) map[string]any {
	trials := make([]map[string]any, 0, len(r.Trials))
	for _, t := range r.Trials {
		entry := map[string]any{
			"n":      t.N,
			"dt":     t.Dt,
			"cached": t.Cached,
		}
		if t.Failed() {
			entry["error"] = t.ErrKind
			entry["detail"] = t.Err.Error()
		} else {
			entry["value"] = t.Value
		}
		trials = append(trials, entry)
	}
	return map[string]any{
		"status":         r.Status.String(),
		"low_confidence": r.LowConfidence,
		"metric":         r.Metric.String(),
		"tolerance":      r.Tolerance,
		"policy":         r.Policy.String(),
		"extrapolated":   r.Extrapolated,
		"error_estimate": r.ErrEstimate,
		"order":          r.Order,
		"best_n":         r.BestN,
		"best_dt":        r.BestDt,
		"trials":         trials,
	}
}
