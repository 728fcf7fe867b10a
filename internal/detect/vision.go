package detect

import (
	"errors"
	"image"

	"plate-reader/pkg/geometry"
)

// ErrDetectorUnavailable is returned when the computer-vision capability
// is missing or not yet initialized. Detection fails fast with this
// error rather than silently returning no results; callers may retry
// once initialization completes.
var ErrDetectorUnavailable = errors.New("detector unavailable: vision capability not ready")

// Vision is the computer-vision capability the detector depends on.
// The production implementation is backed by OpenCV (see GoCV); tests
// inject doubles. Keeping this an interface avoids any process-wide
// vision singleton.
type Vision interface {
	// Ready reports whether the capability is initialized and usable.
	Ready() bool

	// FindCircles runs Hough circle detection on the image. minDist is
	// the minimum distance between returned circle centers;
	// edgeThreshold and accumThreshold are the Hough edge and
	// accumulator thresholds. Result order is whatever the underlying
	// detector produces.
	FindCircles(img image.Image, minDist, edgeThreshold, accumThreshold float64, minRadius, maxRadius int) ([]geometry.Circle, error)

	// FindContours runs Canny edge detection with the given thresholds
	// and returns the external contours only; holes and nested contours
	// are ignored.
	FindContours(img image.Image, lowThreshold, highThreshold float64) ([][]geometry.Point2D, error)

	// ApproxPolygon approximates a closed contour to a polygon with the
	// given absolute tolerance in pixels.
	ApproxPolygon(contour []geometry.Point2D, tolerance float64) []geometry.Point2D

	// EqualizeAdaptive applies adaptive histogram equalization (CLAHE)
	// to the image's luminance channel.
	EqualizeAdaptive(img image.Image, clipLimit float64) (image.Image, error)
}
