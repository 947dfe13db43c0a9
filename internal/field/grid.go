package field

import "fmt"

// GridSpec describes a uniform periodic grid over a rectangular domain.
// The domain is centered on the origin: x in [-Lx/2, Lx/2), y in [-Ly/2, Ly/2).
type GridSpec struct {
	Nx, Ny int
	Lx, Ly float64
}

func (g GridSpec) Dx() float64 { return g.Lx / float64(g.Nx) }
func (g GridSpec) Dy() float64 { return g.Ly / float64(g.Ny) }

func (g GridSpec) Cells() int { return g.Nx * g.Ny }

// X returns the x coordinate of column i.
func (g GridSpec) X(i int) float64 { return -g.Lx/2 + float64(i)*g.Dx() }

// Y returns the y coordinate of row j.
func (g GridSpec) Y(j int) float64 { return -g.Ly/2 + float64(j)*g.Dy() }

func (g GridSpec) Validate() error {
	if g.Nx <= 0 || g.Ny <= 0 {
		return fmt.Errorf("grid size must be positive, got %dx%d", g.Nx, g.Ny)
	}
	if g.Lx <= 0 || g.Ly <= 0 {
		return fmt.Errorf("domain extents must be positive, got %gx%g", g.Lx, g.Ly)
	}
	return nil
}

// Wrap maps an index onto [0, n) with periodic wrap-around. Works for
// offsets down to -n, which covers every stencil used here.
func Wrap(i, n int) int {
	return (i + n) % n
}
