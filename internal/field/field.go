package field

import "math"

// Field is a scalar quantity sampled on a periodic grid, stored row-major:
// Data[j*Nx+i] is the value at column i, row j.
type Field struct {
	Grid GridSpec
	Data []float64
}

func New(grid GridSpec) *Field {
	return &Field{Grid: grid, Data: make([]float64, grid.Cells())}
}

func (f *Field) At(i, j int) float64 {
	return f.Data[j*f.Grid.Nx+i]
}

func (f *Field) Set(i, j int, v float64) {
	f.Data[j*f.Grid.Nx+i] = v
}

// AtWrap reads with periodic wrap-around indexing.
func (f *Field) AtWrap(i, j int) float64 {
	return f.Data[Wrap(j, f.Grid.Ny)*f.Grid.Nx+Wrap(i, f.Grid.Nx)]
}

func (f *Field) Clone() *Field {
	c := New(f.Grid)
	copy(c.Data, f.Data)
	return c
}

// Fill evaluates fn at every cell center.
func (f *Field) Fill(fn func(x, y float64) float64) {
	for j := 0; j < f.Grid.Ny; j++ {
		y := f.Grid.Y(j)
		for i := 0; i < f.Grid.Nx; i++ {
			f.Set(i, j, fn(f.Grid.X(i), y))
		}
	}
}

// IsFinite reports whether every cell holds a finite value.
func (f *Field) IsFinite() bool {
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scale multiplies every cell in place.
func (f *Field) Scale(s float64) {
	for i := range f.Data {
		f.Data[i] *= s
	}
}

// Snapshot is a copy of a field at a completed step, tagged with the actual
// step time (no interpolation between steps).
type Snapshot struct {
	Time  float64
	Step  int
	Omega *Field
}

// Diagnostics holds the scalar summaries recorded for a field.
type Diagnostics struct {
	MaxVorticity float64
	Energy       float64
	Enstrophy    float64
}

