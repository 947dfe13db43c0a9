package fd

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vortex2d/internal/field"
)

func randomField(grid field.GridSpec, seed int64) *field.Field {
	rng := rand.New(rand.NewSource(seed))
	f := field.New(grid)
	for i := range f.Data {
		f.Data[i] = rng.Float64()*2 - 1
	}
	return f
}

// The Arakawa Jacobian conserves the domain integrals of J, omega*J, and
// psi*J exactly on a periodic grid; that is the whole reason it is used
// instead of naive centered advection.
func TestArakawaConservation(t *testing.T) {
	grid := field.GridSpec{Nx: 24, Ny: 24, Lx: 2 * math.Pi, Ly: 2 * math.Pi}
	psi := randomField(grid, 1)
	omega := randomField(grid, 2)
	jac := field.New(grid)

	Arakawa(psi, omega, jac)

	scale := float64(grid.Cells()) * field.MaxAbs(jac)
	var sumJ float64
	for _, v := range jac.Data {
		sumJ += v
	}
	if math.Abs(sumJ) > 1e-12*scale {
		t.Errorf("sum(J) = %g, want 0", sumJ)
	}
	if dot := floats.Dot(omega.Data, jac.Data); math.Abs(dot) > 1e-12*scale {
		t.Errorf("sum(omega*J) = %g, want 0 (enstrophy leak)", dot)
	}
	if dot := floats.Dot(psi.Data, jac.Data); math.Abs(dot) > 1e-12*scale {
		t.Errorf("sum(psi*J) = %g, want 0 (energy leak)", dot)
	}
}

func TestArakawaAntisymmetry(t *testing.T) {
	grid := field.GridSpec{Nx: 16, Ny: 16, Lx: 1, Ly: 1}
	a := randomField(grid, 3)
	b := randomField(grid, 4)
	jab := field.New(grid)
	jba := field.New(grid)

	Arakawa(a, b, jab)
	Arakawa(b, a, jba)

	for i := range jab.Data {
		if math.Abs(jab.Data[i]+jba.Data[i]) > 1e-12 {
			t.Fatalf("J(a,b) != -J(b,a) at %d: %g vs %g", i, jab.Data[i], jba.Data[i])
		}
	}
}

// J(f, f) = 0 by antisymmetry; proportional fields advect nothing.
func TestArakawaProportionalFields(t *testing.T) {
	grid := field.GridSpec{Nx: 16, Ny: 16, Lx: 2 * math.Pi, Ly: 2 * math.Pi}
	f := randomField(grid, 5)
	g := f.Clone()
	g.Scale(2.5)
	jac := field.New(grid)

	Arakawa(f, g, jac)
	for i, v := range jac.Data {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("J(f, 2.5f)[%d] = %g, want 0", i, v)
		}
	}
}

func TestLaplacianEigenfunction(t *testing.T) {
	grid := field.GridSpec{Nx: 64, Ny: 64, Lx: 2 * math.Pi, Ly: 2 * math.Pi}
	f := field.New(grid)
	f.Fill(func(x, y float64) float64 { return math.Sin(x) * math.Sin(y) })

	lap := field.New(grid)
	Laplacian(f, lap)

	// Discrete eigenvalue of the five-point stencil for mode (1,1).
	h := grid.Dx()
	lam := 2 * (2*math.Cos(h) - 2) / (h * h)
	for i := range f.Data {
		want := lam * f.Data[i]
		if math.Abs(lap.Data[i]-want) > 1e-10 {
			t.Fatalf("laplacian[%d] = %g, want %g", i, lap.Data[i], want)
		}
	}
}

func TestVelocitiesSolidBodyShear(t *testing.T) {
	grid := field.GridSpec{Nx: 32, Ny: 32, Lx: 2 * math.Pi, Ly: 2 * math.Pi}
	psi := field.New(grid)
	psi.Fill(func(x, y float64) float64 { return math.Sin(y) })

	u := field.New(grid)
	v := field.New(grid)
	Velocities(psi, u, v)

	// u = dpsi/dy = cos(y) (to second order), v = -dpsi/dx = 0.
	for j := 0; j < grid.Ny; j++ {
		for i := 0; i < grid.Nx; i++ {
			wantU := math.Cos(grid.Y(j)) * math.Sin(grid.Dy()) / grid.Dy()
			if math.Abs(u.At(i, j)-wantU) > 1e-10 {
				t.Fatalf("u(%d,%d) = %g, want %g", i, j, u.At(i, j), wantU)
			}
			if math.Abs(v.At(i, j)) > 1e-12 {
				t.Fatalf("v(%d,%d) = %g, want 0", i, j, v.At(i, j))
			}
		}
	}
}
