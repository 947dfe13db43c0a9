package field

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxAbs returns max|f| over all cells.
func MaxAbs(f *Field) float64 {
	return floats.Norm(f.Data, math.Inf(1))
}

// Energy computes the total kinetic energy 1/2 * sum(psi*omega) dx dy,
// the discrete psi-omega inner-product form of 1/2 * integral |grad psi|^2.
func Energy(psi, omega *Field) float64 {
	cell := psi.Grid.Dx() * psi.Grid.Dy()
	return 0.5 * floats.Dot(psi.Data, omega.Data) * cell
}

// Enstrophy computes 1/2 * sum(omega^2) dx dy.
func Enstrophy(omega *Field) float64 {
	cell := omega.Grid.Dx() * omega.Grid.Dy()
	return 0.5 * floats.Dot(omega.Data, omega.Data) * cell
}

// Diagnose bundles the three scalar diagnostics for a vorticity field and
// its streamfunction.
func Diagnose(psi, omega *Field) Diagnostics {
	return Diagnostics{
		MaxVorticity: MaxAbs(omega),
		Energy:       Energy(psi, omega),
		Enstrophy:    Enstrophy(omega),
	}
}
