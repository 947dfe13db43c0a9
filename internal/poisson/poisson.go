// Package poisson solves the periodic discrete Poisson equation that
// recovers the streamfunction from vorticity.
//
// The operator is the standard five-point Laplacian, assembled as the sum
// of two one-dimensional second-difference operators (one per axis). On a
// periodic grid the DFT diagonalizes both exactly, so the solve reduces to
// a pointwise division by the operator's eigenvalues in Fourier space. The
// eigenvalue table plays the role of a cached factorization: it is built
// once per grid size and reused for every solve on that grid.
package poisson

import (
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/vortex2d/internal/field"
)

// Solver holds the precomputed spectral inverse of the five-point periodic
// Laplacian for one grid size. Not safe for concurrent use; each solve run
// owns its own Solver.
type Solver struct {
	grid field.GridSpec
	// inv[j][i] = 1/(lamX[i]+lamY[j]) with the singular constant mode
	// pinned to zero, which enforces the zero-mean gauge on psi.
	inv  [][]float64
	work [][]complex128
}

// New assembles and "factorizes" the operator for the grid.
func New(grid field.GridSpec) *Solver {
	lamX := eigenvalues(grid.Nx, grid.Dx())
	lamY := eigenvalues(grid.Ny, grid.Dy())

	inv := make([][]float64, grid.Ny)
	work := make([][]complex128, grid.Ny)
	for j := range inv {
		inv[j] = make([]float64, grid.Nx)
		work[j] = make([]complex128, grid.Nx)
		for i := range inv[j] {
			lam := lamX[i] + lamY[j]
			if lam != 0 {
				inv[j][i] = 1 / lam
			}
		}
	}
	return &Solver{grid: grid, inv: inv, work: work}
}

// eigenvalues returns the DFT eigenvalues of the periodic 1-D second
// difference (f[i-1] - 2f[i] + f[i+1]) / h^2.
func eigenvalues(n int, h float64) []float64 {
	lam := make([]float64, n)
	for k := 0; k < n; k++ {
		lam[k] = (2*math.Cos(2*math.Pi*float64(k)/float64(n)) - 2) / (h * h)
	}
	return lam
}

// Solve solves lap(psi) = -omega for psi, writing the zero-mean solution
// into psi. The fields must share the solver's grid.
func (s *Solver) Solve(omega, psi *field.Field) {
	nx, ny := s.grid.Nx, s.grid.Ny

	for j := 0; j < ny; j++ {
		row := omega.Data[j*nx : (j+1)*nx]
		for i, v := range row {
			s.work[j][i] = complex(v, 0)
		}
	}

	hat := fft.FFT2(s.work)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			// lap(psi) = -omega  =>  psiHat = -omegaHat / lambda.
			hat[j][i] *= complex(-s.inv[j][i], 0)
		}
	}
	out := fft.IFFT2(hat)

	for j := 0; j < ny; j++ {
		row := psi.Data[j*nx : (j+1)*nx]
		for i := range row {
			row[i] = real(out[j][i])
		}
	}
}
