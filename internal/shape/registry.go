package shape

import (
	"fmt"
	"sort"

	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

// Registry is the in-memory collection of all shapes, keyed by id and
// partitioned by owning image index. It is the single mutable store for
// well records; all mutation goes through its explicit operations.
//
// The registry does not enforce label uniqueness on rename: a rename that
// collides with an existing label is last-write-wins and surfacing the
// collision is the caller's concern. Label allocation through NextLabel
// is what keeps the namespace collision-free in normal operation.
type Registry struct {
	shapes map[string]Shape
	nextID int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{shapes: make(map[string]Shape)}
}

// Add inserts a shape, generating a unique id if the shape has none.
// Shapes below the minimum-size threshold are silently discarded and
// never enter the registry; the second return value reports whether the
// shape was stored.
func (r *Registry) Add(s Shape) (Shape, bool) {
	if !s.MeetsMinimumSize() {
		return Shape{}, false
	}
	if s.ID == "" {
		// Skip over ids already present, e.g. after a snapshot restore.
		for {
			r.nextID++
			id := fmt.Sprintf("well-%03d", r.nextID)
			if _, exists := r.shapes[id]; !exists {
				s.ID = id
				break
			}
		}
	}
	r.shapes[s.ID] = s
	return s, true
}

// Get returns the shape with the given id.
func (r *Registry) Get(id string) (Shape, bool) {
	s, ok := r.shapes[id]
	return s, ok
}

// Remove deletes the shape with the given id. It has no cascading
// effects beyond the single shape.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.shapes[id]; !ok {
		return false
	}
	delete(r.shapes, id)
	return true
}

// Update is a partial update applied to an existing shape. Nil fields
// are left unchanged. Geometry fields are applied only when they match
// the shape's kind.
type Update struct {
	Label  *string
	Circle *geometry.Circle
	Rect   *geometry.Rect
	Color  *colorutil.RGB
}

// Apply merges the update into the shape with the given id and returns
// the updated shape. Renaming to a label already held by another shape
// is not rejected here (last write wins); see the type comment.
func (r *Registry) Apply(id string, u Update) (Shape, bool) {
	s, ok := r.shapes[id]
	if !ok {
		return Shape{}, false
	}
	if u.Label != nil {
		s.Label = *u.Label
	}
	if u.Circle != nil && s.Kind == KindCircle {
		c := *u.Circle
		s.Circle = &c
	}
	if u.Rect != nil && s.Kind == KindRectangle {
		rc := *u.Rect
		s.Rect = &rc
	}
	if u.Color != nil {
		s.Color = *u.Color
	}
	r.shapes[id] = s
	return s, true
}

// All returns every shape, ordered by id for deterministic iteration.
func (r *Registry) All() []Shape {
	out := make([]Shape, 0, len(r.shapes))
	for _, s := range r.shapes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ForImage returns the shapes owned by the given image index, ordered by id.
func (r *Registry) ForImage(imageIndex int) []Shape {
	var out []Shape
	for _, s := range r.shapes {
		if s.ImageIndex == imageIndex {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of shapes in the registry.
func (r *Registry) Len() int {
	return len(r.shapes)
}

// FindByLabel returns the shape carrying the given label, if any.
func (r *Registry) FindByLabel(label string) (Shape, bool) {
	for _, s := range r.shapes {
		if s.Label == label {
			return s, true
		}
	}
	return Shape{}, false
}

// ClearForImage removes every shape owned by the given image index.
// Shapes on other images are untouched. Used before a fresh detection
// pass replaces that image's shapes.
func (r *Registry) ClearForImage(imageIndex int) {
	for id, s := range r.shapes {
		if s.ImageIndex == imageIndex {
			delete(r.shapes, id)
		}
	}
}

// RemoveImage removes every shape owned by the given image index and
// decrements the image index of every shape on a later image, keeping
// indices contiguous after the surrounding image list drops an entry.
func (r *Registry) RemoveImage(imageIndex int) {
	for id, s := range r.shapes {
		switch {
		case s.ImageIndex == imageIndex:
			delete(r.shapes, id)
		case s.ImageIndex > imageIndex:
			s.ImageIndex--
			r.shapes[id] = s
		}
	}
}

// UsedLabels returns the set of labels currently held by any shape.
func (r *Registry) UsedLabels() map[string]bool {
	used := make(map[string]bool, len(r.shapes))
	for _, s := range r.shapes {
		used[s.Label] = true
	}
	return used
}

// NextLabel returns the next free label given the registry's current
// contents.
func (r *Registry) NextLabel() string {
	return NextLabel(r.UsedLabels())
}
