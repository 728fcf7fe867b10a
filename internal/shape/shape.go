// Package shape provides well region records and the in-memory registry
// that tracks them across loaded plate images.
package shape

import (
	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

// Kind indicates the geometry variant of a well region.
type Kind int

const (
	// KindCircle is a circular well, stored as center + radius.
	KindCircle Kind = iota
	// KindRectangle is a rectangular well, stored as top-left + size.
	KindRectangle
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// Minimum sizes for a shape to enter the registry. Anything smaller is
// treated as an accidental micro-drag or detector noise and silently
// discarded at creation.
const (
	MinRadius = 2.0 // pixels
	MinSide   = 2.0 // pixels
)

// Shape represents a detected or manually drawn sample well.
// Geometry is in image pixel coordinates, never canvas coordinates.
type Shape struct {
	ID    string `json:"id"`    // Unique identifier, e.g. "well-003"; immutable
	Label string `json:"label"` // User-visible label, unique across all images
	Kind  Kind   `json:"kind"`

	// Exactly one of Circle / Rect is set, matching Kind.
	Circle *geometry.Circle `json:"circle,omitempty"`
	Rect   *geometry.Rect   `json:"rect,omitempty"`

	Color        colorutil.RGB `json:"color"`         // Sampled average color
	ImageIndex   int           `json:"image_index"`   // Which loaded image owns this shape
	AutoDetected bool          `json:"auto_detected"` // Provenance only; no behavioral effect
}

// MeetsMinimumSize reports whether the shape's geometry clears the
// minimum-size threshold required to enter the registry.
func (s Shape) MeetsMinimumSize() bool {
	switch s.Kind {
	case KindCircle:
		return s.Circle != nil && s.Circle.Radius >= MinRadius
	case KindRectangle:
		return s.Rect != nil && s.Rect.Width >= MinSide && s.Rect.Height >= MinSide
	default:
		return false
	}
}

// Bounds returns the axis-aligned bounding rectangle of the shape.
func (s Shape) Bounds() geometry.Rect {
	if s.Kind == KindCircle && s.Circle != nil {
		return s.Circle.Bounds()
	}
	if s.Rect != nil {
		return *s.Rect
	}
	return geometry.Rect{}
}
