package ic

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/vortex2d/internal/field"
	"github.com/san-kum/vortex2d/internal/sim"
)

var testGrid = field.GridSpec{Nx: 32, Ny: 32, Lx: 10, Ly: 10}

func TestGenerateAllProfiles(t *testing.T) {
	for _, profile := range Profiles() {
		t.Run(profile, func(t *testing.T) {
			omega, err := Generate(testGrid, sim.ICSpec{Profile: profile})
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if !omega.IsFinite() {
				t.Error("field has non-finite values")
			}
			if field.MaxAbs(omega) == 0 {
				t.Error("field is identically zero")
			}
		})
	}
}

func TestGenerateUnknownProfile(t *testing.T) {
	_, err := Generate(testGrid, sim.ICSpec{Profile: "not_a_real_ic"})
	var invalid *sim.InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestVelocityScaleUnknownProfile(t *testing.T) {
	_, err := VelocityScale(sim.ICSpec{Profile: "not_a_real_ic"})
	var invalid *sim.InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestVortexPairAntisymmetry(t *testing.T) {
	omega, err := Generate(testGrid, sim.ICSpec{Profile: "vortex-pair"})
	if err != nil {
		t.Fatal(err)
	}
	// The pair is antisymmetric under y -> -y, so total circulation
	// vanishes.
	var sum float64
	for _, v := range omega.Data {
		sum += v
	}
	if math.Abs(sum) > 1e-10*float64(len(omega.Data)) {
		t.Errorf("net circulation = %g, want ~0", sum)
	}
}

func TestGaussianCompactSupport(t *testing.T) {
	omega, err := Generate(testGrid, sim.ICSpec{
		Profile: "gaussian",
		Coeffs:  map[string]float64{"sigma": 0.5, "cutoff": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Beyond cutoff*sigma = 1.5 the field must be exactly zero.
	for j := 0; j < testGrid.Ny; j++ {
		for i := 0; i < testGrid.Nx; i++ {
			x, y := testGrid.X(i), testGrid.Y(j)
			if math.Hypot(x, y) > 1.5 && omega.At(i, j) != 0 {
				t.Fatalf("nonzero vorticity %g outside cutoff at (%g, %g)", omega.At(i, j), x, y)
			}
		}
	}
}

func TestDispersePatterns(t *testing.T) {
	tests := []struct {
		pattern string
		n       int
		want    int
	}{
		{"single", 5, 1},
		{"circular", 4, 4},
		{"grid", 4, 4},
		{"grid", 5, 5},
		{"random", 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			positions, err := Disperse(tt.n, tt.pattern, 10, 10, 42)
			if err != nil {
				t.Fatalf("Disperse failed: %v", err)
			}
			if len(positions) != tt.want {
				t.Errorf("got %d positions, want %d", len(positions), tt.want)
			}
		})
	}
}

func TestDisperseUnknownPattern(t *testing.T) {
	_, err := Disperse(4, "spiral", 10, 10, 0)
	var invalid *sim.InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestDisperseRandomDeterministic(t *testing.T) {
	a, _ := Disperse(5, "random", 10, 10, 7)
	b, _ := Disperse(5, "random", 10, 10, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different placements: %v vs %v", a[i], b[i])
		}
	}
	c, _ := Disperse(5, "random", 10, 10, 8)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical placements")
	}
}

func TestDisperseRandomSeparation(t *testing.T) {
	positions, _ := Disperse(4, "random", 10, 10, 1)
	minDist := 1.0 // max(lx, ly) / 10
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			d := math.Hypot(positions[i].X-positions[j].X, positions[i].Y-positions[j].Y)
			if d < minDist {
				t.Errorf("vortices %d and %d only %g apart, want >= %g", i, j, d, minDist)
			}
		}
	}
}

func TestMultiVortexNormalization(t *testing.T) {
	single, _ := Generate(testGrid, sim.ICSpec{Profile: "gaussian"})
	multi, _ := Generate(testGrid, sim.ICSpec{Profile: "gaussian", Pattern: "circular", NVortices: 4})
	// Normalization by vortex count keeps the peak comparable to the
	// single-vortex amplitude.
	if field.MaxAbs(multi) > field.MaxAbs(single)*1.5 {
		t.Errorf("multi-vortex peak %g not normalized (single peak %g)",
			field.MaxAbs(multi), field.MaxAbs(single))
	}
}
