package colorenc

import (
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/enrichmap/pkg/matrix"
)

// Transform converts raw cell values to ramp scores before color mapping.
type Transform int

const (
	// TransformLinear uses the value as-is (counts, scores).
	TransformLinear Transform = iota
	// TransformNegLog10 maps p-values onto -log10(p), so smaller p-values
	// produce stronger scores. Non-positive inputs saturate at 320, below
	// the smallest representable positive p-value.
	TransformNegLog10
)

// Apply transforms a single value.
func (t Transform) Apply(v float64) float64 {
	if t == TransformNegLog10 {
		if v <= 0 {
			return 320
		}
		return -math.Log10(v)
	}
	return v
}

// Params shape the value→color ramp.
type Params struct {
	// Baseline is the transformed score at or below which the output is
	// forced to the blank color.
	Baseline float64
	// ClampLimit caps transformed scores; everything at or above it maps to
	// the fully saturated base color.
	ClampLimit float64
	// Lens controls the nonlinearity of the ramp. Zero is linear; positive
	// values saturate faster at low scores, negative values slower.
	Lens float64
}

// DefaultParams returns the ramp shaping used by the pipeline:
// baseline 0, clamp at -log10(p) == 4, lens 5.
func DefaultParams() Params {
	return Params{Baseline: 0, ClampLimit: 4, Lens: 5}
}

// Ramp maps a transformed score onto the white→base saturation ramp.
// Scores at or below the baseline return [Blank]; scores at or above the
// clamp limit return the base color. Blending happens in Lab space.
func Ramp(score float64, base Color, p Params) Color {
	if score <= p.Baseline {
		return Blank
	}
	span := p.ClampLimit - p.Baseline
	if span <= 0 {
		return base
	}
	frac := (math.Min(score, p.ClampLimit) - p.Baseline) / span
	frac = lensWarp(frac, p.Lens)

	white := colorful.Color{R: 1, G: 1, B: 1}
	mixed := white.BlendLab(base.opaque(), frac).Clamped()
	return Color{R: mixed.R, G: mixed.G, B: mixed.B, A: 1}
}

// lensWarp bends the [0,1] ramp fraction. lens > 0 pulls the curve upward
// (faster saturation at low values), lens < 0 pushes it down, 0 is identity.
func lensWarp(frac, lens float64) float64 {
	switch {
	case lens > 0:
		return 1 - math.Pow(1-frac, 1+lens)
	case lens < 0:
		return math.Pow(frac, 1-lens)
	default:
		return frac
	}
}

// Matrix is a color matrix with the same shape as the incidence matrix it
// was encoded from.
type Matrix struct {
	rows   []string
	cols   []string
	rowIdx map[string]int
	cells  [][]Color
}

// Encode maps every cell of m through the transform and ramp, using each
// column's base color. Every column must have a base color; a missing entry
// returns ErrMissingBaseColor naming the column.
func Encode(m *matrix.Incidence, base map[string]Color, t Transform, p Params) (*Matrix, error) {
	rows, cols := m.Rows(), m.Cols()

	for _, col := range cols {
		if _, ok := base[col]; !ok {
			return nil, fmt.Errorf("column %q: %w", col, ErrMissingBaseColor)
		}
	}

	out := &Matrix{
		rows:   rows,
		cols:   cols,
		rowIdx: make(map[string]int, len(rows)),
		cells:  make([][]Color, len(rows)),
	}
	for i, r := range rows {
		out.rowIdx[r] = i
		out.cells[i] = make([]Color, len(cols))
		for j, col := range cols {
			score := t.Apply(m.At(i, j))
			out.cells[i][j] = Ramp(score, base[col], p)
		}
	}
	return out, nil
}

// Rows returns the row keys in matrix order.
func (m *Matrix) Rows() []string { return slices.Clone(m.rows) }

// Cols returns the column names in matrix order.
func (m *Matrix) Cols() []string { return slices.Clone(m.cols) }

// Row returns the color row for the given key and whether it exists.
func (m *Matrix) Row(key string) ([]Color, bool) {
	i, ok := m.rowIdx[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(m.cells[i]), true
}

// At returns the color at numeric position (i, j).
func (m *Matrix) At(i, j int) Color { return m.cells[i][j] }
