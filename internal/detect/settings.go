// Package detect finds circular and rectangular sample wells in plate
// images. Detection runs against an injected Vision capability so the
// OpenCV backend can be swapped for a test double.
package detect

import "fmt"

// Mode selects which well geometry the detector searches for.
type Mode int

const (
	// ModeCircle detects circular wells via the Hough circle transform.
	ModeCircle Mode = iota
	// ModeRectangle detects rectangular wells via contour analysis.
	ModeRectangle
)

func (m Mode) String() string {
	switch m {
	case ModeCircle:
		return "circle"
	case ModeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// Fixed detection constants. These match the tuned behavior of the
// original well detector and are deliberately not user-configurable.
const (
	cannyLowThreshold  = 50.0
	cannyHighThreshold = 150.0

	// Accepted bounding-box aspect ratio range for rectangular wells;
	// filters degenerate slivers while keeping moderately elongated wells.
	aspectRatioMin = 0.5
	aspectRatioMax = 2.0

	// Minimum distance between detected circle centers is
	// min(imageWidth, imageHeight) / houghMinDistDivisor.
	houghMinDistDivisor = 8
)

// Settings holds every tunable knob for a detection pass. It is a plain
// value object: copy freely, compare by value, validate at the boundary.
type Settings struct {
	Mode Mode `json:"mode"`

	// Circle detection (Hough transform)
	EdgeThreshold  float64 `json:"edge_threshold"`  // Canny high threshold fed to Hough
	AccumThreshold float64 `json:"accum_threshold"` // Accumulator threshold; lower finds more circles
	MinRadius      int     `json:"min_radius"`      // Pixels
	MaxRadius      int     `json:"max_radius"`      // Pixels

	// Rectangle detection (contour analysis)
	MinArea float64 `json:"min_area"` // Contour area bounds, px²
	MaxArea float64 `json:"max_area"`
	Epsilon float64 `json:"epsilon"` // Polygon approximation tolerance, fraction of perimeter

	// Color sampling
	SampleFraction float64 `json:"sample_fraction"` // Central sub-region fraction, (0, 1]

	// Optional preprocessing, applied before detection and sampling.
	Brightness       float64 `json:"brightness"`        // Relative change, -1..1; 0 disables
	Contrast         float64 `json:"contrast"`          // Relative change, -1..1; 0 disables
	AdaptiveContrast bool    `json:"adaptive_contrast"` // CLAHE on the luminance channel
	ClipLimit        float64 `json:"clip_limit"`        // CLAHE clip limit
	Sharpen          bool    `json:"sharpen"`
	SharpenAmount    float64 `json:"sharpen_amount"`
	BlurKernel       int     `json:"blur_kernel"` // Gaussian blur radius in px; 0 disables
}

// DefaultSettings returns detection settings tuned for typical plate
// scans under even lighting.
func DefaultSettings() Settings {
	return Settings{
		Mode:           ModeCircle,
		EdgeThreshold:  100,
		AccumThreshold: 30,
		MinRadius:      10,
		MaxRadius:      80,
		MinArea:        400,
		MaxArea:        50000,
		Epsilon:        0.02,
		SampleFraction: 0.7,
		ClipLimit:      2.0,
		SharpenAmount:  0.5,
	}
}

// WithMode returns a copy of the settings with the detection mode set.
func (s Settings) WithMode(m Mode) Settings {
	s.Mode = m
	return s
}

// WithRadiusRange returns a copy with the circle radius range set.
func (s Settings) WithRadiusRange(minRadius, maxRadius int) Settings {
	s.MinRadius = minRadius
	s.MaxRadius = maxRadius
	return s
}

// WithAreaRange returns a copy with the rectangle area range set.
func (s Settings) WithAreaRange(minArea, maxArea float64) Settings {
	s.MinArea = minArea
	s.MaxArea = maxArea
	return s
}

// WithSampleFraction returns a copy with the sampling fraction set.
func (s Settings) WithSampleFraction(f float64) Settings {
	s.SampleFraction = f
	return s
}

// Validate checks ranges that callers must not be trusted with.
func (s Settings) Validate() error {
	if s.SampleFraction <= 0 || s.SampleFraction > 1 {
		return fmt.Errorf("sample fraction %.3f out of range (0, 1]", s.SampleFraction)
	}
	if s.MinRadius <= 0 || s.MaxRadius < s.MinRadius {
		return fmt.Errorf("invalid radius range %d-%d", s.MinRadius, s.MaxRadius)
	}
	if s.MinArea < 0 || s.MaxArea < s.MinArea {
		return fmt.Errorf("invalid area range %.0f-%.0f", s.MinArea, s.MaxArea)
	}
	if s.Epsilon <= 0 {
		return fmt.Errorf("polygon approximation epsilon must be positive, got %.4f", s.Epsilon)
	}
	if s.BlurKernel < 0 {
		return fmt.Errorf("blur kernel must be non-negative, got %d", s.BlurKernel)
	}
	return nil
}
