package detect

import (
	"fmt"
	"image"

	"plate-reader/internal/sampler"
	"plate-reader/internal/shape"
	"plate-reader/pkg/geometry"
)

// Detector finds sample wells in plate images through an injected
// Vision capability.
type Detector struct {
	vision Vision
}

// NewDetector creates a detector backed by the given vision capability.
func NewDetector(v Vision) *Detector {
	return &Detector{vision: v}
}

// Detect dispatches on the settings' mode. An empty result with a nil
// error means nothing was found, which is valid; callers decide how to
// surface it.
func (d *Detector) Detect(img image.Image, s Settings, imageIndex int, used map[string]bool, roi *geometry.Rect) ([]shape.Shape, error) {
	switch s.Mode {
	case ModeCircle:
		return d.DetectCircles(img, s, imageIndex, used, roi)
	case ModeRectangle:
		return d.DetectRectangles(img, s, imageIndex, used, roi)
	default:
		return nil, fmt.Errorf("unknown detection mode %d", s.Mode)
	}
}

// DetectCircles finds circular wells via the Hough circle transform.
//
// The minimum distance between circle centers is min(width, height)/8,
// a fixed heuristic. Candidates are filtered by the ROI (full
// containment: the circle's entire extent must lie inside the ROI),
// then labeled from the shared namespace and color-sampled. Newly
// assigned labels are added to used within the call, so uniqueness
// holds across a single pass.
func (d *Detector) DetectCircles(img image.Image, s Settings, imageIndex int, used map[string]bool, roi *geometry.Rect) ([]shape.Shape, error) {
	pre, err := d.prepare(img, s)
	if err != nil {
		return nil, err
	}

	bounds := pre.Bounds()
	minDim := bounds.Dx()
	if bounds.Dy() < minDim {
		minDim = bounds.Dy()
	}
	minDist := float64(minDim) / houghMinDistDivisor

	circles, err := d.vision.FindCircles(pre, minDist, s.EdgeThreshold, s.AccumThreshold, s.MinRadius, s.MaxRadius)
	if err != nil {
		return nil, fmt.Errorf("circle detection failed: %w", err)
	}

	var shapes []shape.Shape
	for _, c := range circles {
		if c.Radius < shape.MinRadius {
			continue
		}
		if roi != nil && !roi.ContainsRect(c.Bounds()) {
			continue
		}

		circle := c
		label := shape.NextLabel(used)
		used[label] = true
		shapes = append(shapes, shape.Shape{
			Label:        label,
			Kind:         shape.KindCircle,
			Circle:       &circle,
			Color:        sampler.SampleCircle(pre, circle, s.SampleFraction),
			ImageIndex:   imageIndex,
			AutoDetected: true,
		})
	}
	return shapes, nil
}

// DetectRectangles finds rectangular wells via contour analysis: Canny
// edges with fixed thresholds, external contours only, area filtering,
// polygon approximation at epsilon × perimeter, exactly four vertices,
// and a bounding-box aspect ratio within [0.5, 2.0].
//
// The ROI rule matches DetectCircles: full containment of the bounding
// rectangle.
func (d *Detector) DetectRectangles(img image.Image, s Settings, imageIndex int, used map[string]bool, roi *geometry.Rect) ([]shape.Shape, error) {
	pre, err := d.prepare(img, s)
	if err != nil {
		return nil, err
	}

	contours, err := d.vision.FindContours(pre, cannyLowThreshold, cannyHighThreshold)
	if err != nil {
		return nil, fmt.Errorf("contour detection failed: %w", err)
	}

	var shapes []shape.Shape
	for _, contour := range contours {
		area := geometry.PolygonArea(contour)
		if area < s.MinArea || area > s.MaxArea {
			continue
		}

		perimeter := geometry.PolygonPerimeter(contour)
		approx := d.vision.ApproxPolygon(contour, s.Epsilon*perimeter)
		if len(approx) != 4 {
			continue
		}

		box := geometry.BoundingBox(approx)
		if box.Width < shape.MinSide || box.Height < shape.MinSide {
			continue
		}
		aspect := box.Width / box.Height
		if aspect < aspectRatioMin || aspect > aspectRatioMax {
			continue
		}
		if roi != nil && !roi.ContainsRect(box) {
			continue
		}

		rect := box
		label := shape.NextLabel(used)
		used[label] = true
		shapes = append(shapes, shape.Shape{
			Label:        label,
			Kind:         shape.KindRectangle,
			Rect:         &rect,
			Color:        sampler.SampleRect(pre, rect, s.SampleFraction),
			ImageIndex:   imageIndex,
			AutoDetected: true,
		})
	}
	return shapes, nil
}

// prepare validates the call and runs the preprocessing pipeline.
// Fails fast with ErrDetectorUnavailable before any computation when
// the vision capability is missing.
func (d *Detector) prepare(img image.Image, s Settings) (image.Image, error) {
	if d == nil || d.vision == nil || !d.vision.Ready() {
		return nil, ErrDetectorUnavailable
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection settings: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	return preprocess(d.vision, img, s)
}
