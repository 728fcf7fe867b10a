package sampler

import (
	"image"
	"image/color"
	"testing"

	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

// uniformImage creates a solid-color RGBA image.
func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// discImage creates an image that is inner inside the disc of the given
// radius around (cx, cy) and outer everywhere else.
func discImage(w, h, cx, cy, radius int, inner, outer color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, inner)
			} else {
				img.SetRGBA(x, y, outer)
			}
		}
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func TestSampleCircleMask(t *testing.T) {
	// Pure red inside radius 10, pure blue outside. Any sampling
	// fraction up to 1.0 must return pure red: pixels in the bounding
	// square but outside the disc are excluded from the average.
	img := discImage(40, 40, 20, 20, 10, red, blue)
	circle := geometry.NewCircle(20, 20, 10)

	for _, fraction := range []float64{0.3, 0.5, 0.7, 1.0} {
		got := SampleCircle(img, circle, fraction)
		if got != (colorutil.RGB{R: 255}) {
			t.Errorf("fraction %.1f: got %+v, want pure red", fraction, got)
		}
	}
}

func TestSampleRectInset(t *testing.T) {
	// Rect 20x20 at (10,10), fraction 0.5: the inset is the central
	// 10x10 sub-region [15,25)x[15,25). Paint exactly that region green
	// and everything else red; a correct inset samples pure green.
	img := uniformImage(40, 40, red)
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			img.SetRGBA(x, y, green)
		}
	}

	got := SampleRect(img, geometry.NewRect(10, 10, 20, 20), 0.5)
	if got != (colorutil.RGB{G: 255}) {
		t.Fatalf("got %+v, want pure green", got)
	}
}

func TestSampleRectFullRegion(t *testing.T) {
	img := uniformImage(10, 10, color.RGBA{R: 40, G: 80, B: 120, A: 255})
	got := SampleRect(img, geometry.NewRect(0, 0, 10, 10), 1.0)
	if got != (colorutil.RGB{R: 40, G: 80, B: 120}) {
		t.Fatalf("got %+v, want {40 80 120}", got)
	}
}

func TestDegenerateRegions(t *testing.T) {
	img := uniformImage(20, 20, red)
	tests := []struct {
		name   string
		sample func() colorutil.RGB
	}{
		{"zero-width rect", func() colorutil.RGB {
			return SampleRect(img, geometry.NewRect(5, 5, 0, 10), 1.0)
		}},
		{"rect inset below a pixel", func() colorutil.RGB {
			return SampleRect(img, geometry.NewRect(5, 5, 4, 4), 0.1)
		}},
		{"zero radius", func() colorutil.RGB {
			return SampleCircle(img, geometry.NewCircle(10, 10, 0), 1.0)
		}},
		{"radius inset below a pixel", func() colorutil.RGB {
			return SampleCircle(img, geometry.NewCircle(10, 10, 2), 0.1)
		}},
		{"fully outside image", func() colorutil.RGB {
			return SampleRect(img, geometry.NewRect(100, 100, 10, 10), 1.0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample(); got != (colorutil.RGB{}) {
				t.Errorf("got %+v, want (0,0,0) sentinel", got)
			}
		})
	}
}

func TestSampleAveragesChannels(t *testing.T) {
	// Half the region is (100,0,0), half is (200,0,0); the average
	// must round to the nearest integer, 150.
	img := uniformImage(10, 10, color.RGBA{R: 100, A: 255})
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	got := SampleRect(img, geometry.NewRect(0, 0, 10, 10), 1.0)
	if got.R != 150 || got.G != 0 || got.B != 0 {
		t.Fatalf("got %+v, want R=150", got)
	}
}
