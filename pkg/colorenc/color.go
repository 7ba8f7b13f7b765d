// Package colorenc maps numeric incidence matrices to color matrices.
//
// Each source column has a base color; cell values are transformed
// (typically -log10 for p-values), clamped, and mapped onto a white→base
// saturation ramp. Cells below the baseline map to the blank color, and
// [BlankThresholds.IsBlank] classifies near-white or near-transparent colors
// as "absence of signal" so glyph encoding can drop them.
//
// Color math (Lab blending, HCL decomposition) is delegated to
// github.com/lucasb-eyer/go-colorful.
package colorenc

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrMissingBaseColor is returned by [Encode] when a matrix column has no
// base color assigned.
var ErrMissingBaseColor = errors.New("missing base color for source column")

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Blank is the designated "absence of signal" color: fully transparent white.
var Blank = Color{R: 1, G: 1, B: 1, A: 0}

// Hex parses a "#rrggbb" string into an opaque Color.
func Hex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

// MustHex parses a "#rrggbb" string and panics on failure.
// Intended for package-level defaults and tests.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#rrggbb". Alpha is not encoded.
func (c Color) Hex() string {
	return c.opaque().Hex()
}

func (c Color) opaque() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Equal reports whether two colors match within a small tolerance.
func (c Color) Equal(o Color) bool {
	const eps = 1e-6
	return math.Abs(c.R-o.R) < eps &&
		math.Abs(c.G-o.G) < eps &&
		math.Abs(c.B-o.B) < eps &&
		math.Abs(c.A-o.A) < eps
}

// BlankThresholds configures the blank-color classification.
// A color is blank when ANY of the three checks passes:
//   - it equals one of the Literals,
//   - its HCL chroma is at most ChromaMax and its luminance at least LumMin
//     (near-white greys),
//   - its alpha is at most AlphaMax (near-transparent).
type BlankThresholds struct {
	ChromaMax float64
	LumMin    float64
	AlphaMax  float64
	Literals  []Color
}

// DefaultBlankThresholds returns the thresholds used throughout the
// pipeline. The literal set contains [Blank] and opaque white.
func DefaultBlankThresholds() BlankThresholds {
	return BlankThresholds{
		ChromaMax: 0.08,
		LumMin:    0.92,
		AlphaMax:  0.05,
		Literals:  []Color{Blank, {R: 1, G: 1, B: 1, A: 1}},
	}
}

// IsBlank classifies a color as "absence of signal".
func (bt BlankThresholds) IsBlank(c Color) bool {
	for _, lit := range bt.Literals {
		if c.Equal(lit) {
			return true
		}
	}
	if c.A <= bt.AlphaMax {
		return true
	}
	_, chroma, lum := c.opaque().Hcl()
	return chroma <= bt.ChromaMax && lum >= bt.LumMin
}
