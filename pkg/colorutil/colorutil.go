// Package colorutil provides shared color types and conversions for the
// plate reader application.
package colorutil

import (
	"encoding/json"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// RGB is an 8-bit-per-channel color as sampled from a well region.
// It marshals to and from the JSON array form [r, g, b] used by the
// calibration interchange format.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// NewRGB creates an RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// MarshalJSON encodes the color as [r, g, b].
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON decodes the color from [r, g, b].
func (c *RGB) UnmarshalJSON(data []byte) error {
	var arr [3]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("color must be a [r,g,b] array: %w", err)
	}
	for _, v := range arr {
		if v < 0 || v > 255 {
			return fmt.Errorf("color component %d out of range 0-255", v)
		}
	}
	c.R, c.G, c.B = uint8(arr[0]), uint8(arr[1]), uint8(arr[2])
	return nil
}

// CMYK converts the color to CMYK, each component in [0, 1].
// A pure black input returns (0, 0, 0, 1) rather than dividing by zero.
func (c RGB) CMYK() (cy, ma, ye, k float64) {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0

	maxC := r
	if g > maxC {
		maxC = g
	}
	if b > maxC {
		maxC = b
	}

	k = 1 - maxC
	if k == 1 {
		return 0, 0, 0, 1
	}

	cy = (1 - r - k) / (1 - k)
	ma = (1 - g - k) / (1 - k)
	ye = (1 - b - k) / (1 - k)
	return cy, ma, ye, k
}

// Magnitude returns the Euclidean norm of the RGB vector, in [0, ~441.7].
func (c RGB) Magnitude() float64 {
	return floats.Norm([]float64{float64(c.R), float64(c.G), float64(c.B)}, 2)
}

// Hex returns the color as a "#rrggbb" string.
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

// ParseHex parses a "#rrggbb" string into an RGB color.
func ParseHex(s string) (RGB, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}
