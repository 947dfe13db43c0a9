// Package viz renders fields and diagnostic series for the terminal.
package viz

import (
	"strings"

	"github.com/san-kum/vortex2d/internal/field"
)

// glyphs orders density characters from strong negative vorticity through
// zero to strong positive.
var glyphs = []rune("#*+-. ,:o@")

// RenderField draws a downsampled ASCII view of the field, cols x rows
// characters. Values are scaled symmetrically around zero so the two
// rotation senses stay visually distinct.
func RenderField(f *field.Field, cols, rows int) string {
	if cols <= 0 {
		cols = 64
	}
	if rows <= 0 {
		rows = 24
	}
	maxAbs := field.MaxAbs(f)
	if maxAbs == 0 {
		maxAbs = 1
	}

	var sb strings.Builder
	for r := rows - 1; r >= 0; r-- {
		j := r * f.Grid.Ny / rows
		for c := 0; c < cols; c++ {
			i := c * f.Grid.Nx / cols
			v := f.At(i, j) / maxAbs // in [-1, 1]
			idx := int((v + 1) / 2 * float64(len(glyphs)-1))
			if idx < 0 {
				idx = 0
			}
			if idx >= len(glyphs) {
				idx = len(glyphs) - 1
			}
			sb.WriteRune(glyphs[idx])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
