// Package sampler extracts representative colors from well regions.
//
// Sampling shrinks the region around its own center by the sampling
// fraction before averaging, so edge artifacts (well walls, glare rings,
// meniscus shadows) do not contaminate the measured color.
package sampler

import (
	"image"

	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

// SampleRect averages every pixel inside the central fraction-scaled
// sub-rectangle of r. fraction must be in (0, 1]; 0.7 samples the central
// 70%-linear-scale sub-region.
//
// A region whose inset width or height rounds to zero pixels returns the
// (0,0,0) sentinel, which callers must treat as "no data", not black.
func SampleRect(img image.Image, r geometry.Rect, fraction float64) colorutil.RGB {
	inset := r.Inset(fraction)

	x0 := int(inset.X + 0.5)
	y0 := int(inset.Y + 0.5)
	x1 := int(inset.X + inset.Width + 0.5)
	y1 := int(inset.Y + inset.Height + 0.5)

	bounds := img.Bounds()
	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}
	if x1 > bounds.Max.X {
		x1 = bounds.Max.X
	}
	if y1 > bounds.Max.Y {
		y1 = bounds.Max.Y
	}
	if x1 <= x0 || y1 <= y0 {
		return colorutil.RGB{}
	}

	var sumR, sumG, sumB, count uint64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sumR += uint64(r >> 8)
			sumG += uint64(g >> 8)
			sumB += uint64(b >> 8)
			count++
		}
	}
	if count == 0 {
		return colorutil.RGB{}
	}
	return average(sumR, sumG, sumB, count)
}

// SampleCircle averages every pixel within fraction times the circle's
// radius of its center, using an inclusive disc test (dx²+dy² ≤ r²).
// Pixels inside the bounding square but outside the disc are excluded.
//
// A region whose inset radius rounds to zero pixels returns the (0,0,0)
// sentinel, which callers must treat as "no data", not black.
func SampleCircle(img image.Image, c geometry.Circle, fraction float64) colorutil.RGB {
	inset := c.Inset(fraction)

	r := int(inset.Radius + 0.5)
	if r < 1 {
		return colorutil.RGB{}
	}
	cx := int(inset.Center.X + 0.5)
	cy := int(inset.Center.Y + 0.5)
	bounds := img.Bounds()

	var sumR, sumG, sumB, count uint64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			px, py := cx+dx, cy+dy
			if px < bounds.Min.X || px >= bounds.Max.X ||
				py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			pr, pg, pb, _ := img.At(px, py).RGBA()
			sumR += uint64(pr >> 8)
			sumG += uint64(pg >> 8)
			sumB += uint64(pb >> 8)
			count++
		}
	}
	if count == 0 {
		return colorutil.RGB{}
	}
	return average(sumR, sumG, sumB, count)
}

// average rounds each channel sum to the nearest integer.
func average(sumR, sumG, sumB, count uint64) colorutil.RGB {
	half := count / 2
	return colorutil.RGB{
		R: uint8((sumR + half) / count),
		G: uint8((sumG + half) / count),
		B: uint8((sumB + half) / count),
	}
}
