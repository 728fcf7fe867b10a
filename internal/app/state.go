// Package app holds the session state for the plate reader: the loaded
// image list, the well registry, committed concentration points,
// detection settings, and fitted calibration models.
//
// State is the single mutable store. The execution model is
// single-threaded and synchronous, but mutation is still guarded by a
// mutex so a presentation layer may call in from its own goroutine.
package app

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"plate-reader/internal/calib"
	"plate-reader/internal/detect"
	"plate-reader/internal/export"
	"plate-reader/internal/sampler"
	"plate-reader/internal/shape"
	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

// State is the application session state.
type State struct {
	mu sync.RWMutex

	images   []string // Display names; slice index is the image index
	registry *shape.Registry
	points   map[string]float64 // Committed concentration per label
	settings detect.Settings
	models   map[string]calib.Model
	roi      *geometry.Rect

	detector *detect.Detector
}

// NewState creates a session backed by the given vision capability.
func NewState(v detect.Vision) *State {
	return &State{
		registry: shape.NewRegistry(),
		points:   make(map[string]float64),
		settings: detect.DefaultSettings(),
		detector: detect.NewDetector(v),
	}
}

// AddImage appends an image to the session and returns its index.
func (st *State) AddImage(name string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.images = append(st.images, name)
	return len(st.images) - 1
}

// ImageCount returns the number of loaded images.
func (st *State) ImageCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.images)
}

// RemoveImage drops the image at the given index, cascades the delete
// to its shapes, and renumbers the shapes of every later image so
// indices stay contiguous.
func (st *State) RemoveImage(index int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if index < 0 || index >= len(st.images) {
		return fmt.Errorf("image index %d out of range", index)
	}
	st.images = append(st.images[:index], st.images[index+1:]...)
	st.registry.RemoveImage(index)
	return nil
}

// Settings returns the current detection settings.
func (st *State) Settings() detect.Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// SetSettings replaces the detection settings after validating them.
func (st *State) SetSettings(s detect.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings = s
	return nil
}

// SetROI restricts detection to the given region of interest.
func (st *State) SetROI(r geometry.Rect) {
	st.mu.Lock()
	defer st.mu.Unlock()
	roi := r
	st.roi = &roi
}

// ClearROI removes the detection region of interest.
func (st *State) ClearROI() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.roi = nil
}

// ROI returns the current region of interest, or nil if unset.
func (st *State) ROI() *geometry.Rect {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.roi == nil {
		return nil
	}
	roi := *st.roi
	return &roi
}

// RunDetection detects wells on the given image and replaces that
// image's shapes with the result. The replace is atomic: detection runs
// first, and only on success are the image's previous shapes cleared
// and the new ones inserted. A failed pass leaves the registry exactly
// as it was. Shapes on other images are never touched.
//
// Labels freed by the replaced shapes are reused; labels held by shapes
// on other images are not.
func (st *State) RunDetection(img image.Image, imageIndex int) ([]shape.Shape, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if imageIndex < 0 || imageIndex >= len(st.images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}

	used := make(map[string]bool)
	for _, s := range st.registry.All() {
		if s.ImageIndex != imageIndex {
			used[s.Label] = true
		}
	}

	detected, err := st.detector.Detect(img, st.settings, imageIndex, used, st.roi)
	if err != nil {
		return nil, err
	}

	st.registry.ClearForImage(imageIndex)
	stored := make([]shape.Shape, 0, len(detected))
	for _, s := range detected {
		if added, ok := st.registry.Add(s); ok {
			stored = append(stored, added)
		}
	}
	return stored, nil
}

// CommitManualCircle adds a manually drawn circular well, sampling its
// color with the current sampling fraction and allocating the next free
// label. Undersized geometry is silently discarded and ok is false.
func (st *State) CommitManualCircle(img image.Image, c geometry.Circle, imageIndex int) (shape.Shape, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := shape.Shape{
		Label:      st.registry.NextLabel(),
		Kind:       shape.KindCircle,
		Circle:     &c,
		ImageIndex: imageIndex,
	}
	if img != nil {
		s.Color = sampler.SampleCircle(img, c, st.settings.SampleFraction)
	}
	return st.registry.Add(s)
}

// CommitManualRect adds a manually drawn rectangular well. Semantics
// match CommitManualCircle.
func (st *State) CommitManualRect(img image.Image, r geometry.Rect, imageIndex int) (shape.Shape, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := shape.Shape{
		Label:      st.registry.NextLabel(),
		Kind:       shape.KindRectangle,
		Rect:       &r,
		ImageIndex: imageIndex,
	}
	if img != nil {
		s.Color = sampler.SampleRect(img, r, st.settings.SampleFraction)
	}
	return st.registry.Add(s)
}

// Shapes returns every shape, ordered by id.
func (st *State) Shapes() []shape.Shape {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.registry.All()
}

// ShapesForImage returns the shapes owned by an image, ordered by id.
func (st *State) ShapesForImage(imageIndex int) []shape.Shape {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.registry.ForImage(imageIndex)
}

// RemoveShape deletes a single shape. Its committed point, if any,
// becomes orphaned and is ignored by subsequent fits.
func (st *State) RemoveShape(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.registry.Remove(id)
}

// RenameShape changes a shape's label. Collisions with existing labels
// are not rejected: last write wins, and surfacing the conflict is the
// presentation layer's concern.
func (st *State) RenameShape(id, label string) (shape.Shape, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.registry.Apply(id, shape.Update{Label: &label})
}

// UpdateShape applies a partial geometry/color update to a shape.
func (st *State) UpdateShape(id string, u shape.Update) (shape.Shape, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.registry.Apply(id, u)
}

// CommitPoint records a known concentration for a label, overwriting
// any prior value for that label.
func (st *State) CommitPoint(label string, y float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.points[label] = y
}

// UncommitPoint removes the committed concentration for a label.
func (st *State) UncommitPoint(label string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.points, label)
}

// Points returns the committed points sorted by label.
func (st *State) Points() []calib.Point {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.pointsLocked()
}

func (st *State) pointsLocked() []calib.Point {
	out := make([]calib.Point, 0, len(st.points))
	for label, y := range st.points {
		out = append(out, calib.Point{Label: label, Y: y})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// FitModels recomputes the calibration models from the current
// committed points and shape colors. The result replaces any previous
// models wholesale.
func (st *State) FitModels() (map[string]calib.Model, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	models, err := calib.Fit(st.pointsLocked(), st.registry.All())
	if err != nil {
		return nil, err
	}
	st.models = models
	return copyModels(models), nil
}

// Models returns the most recently fitted models.
func (st *State) Models() map[string]calib.Model {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return copyModels(st.models)
}

// Predict inverse-predicts a concentration from an observed color on
// every fitted channel.
func (st *State) Predict(c colorutil.RGB) map[string]float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return calib.PredictAll(st.models, c)
}

// ExportCalibration builds the interchange document from the session.
func (st *State) ExportCalibration() export.Document {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return export.New(st.pointsLocked(), st.registry.All(), copyModels(st.models))
}

// ImportCalibration applies an interchange document's committed points
// and models to the session. Existing committed points are replaced.
func (st *State) ImportCalibration(doc export.Document) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.points = make(map[string]float64, len(doc.CommittedPoints))
	for _, p := range doc.CommittedPoints {
		st.points[p.Label] = p.Y
	}
	st.models = copyModels(doc.RegressionModels)
}

// Snapshot is the full serializable session for the external cache
// collaborator. Every field round-trips through plain JSON.
type Snapshot struct {
	Images          []string               `json:"images"`
	Shapes          []shape.Shape          `json:"shapes"`
	CommittedPoints []calib.Point          `json:"committed_points"`
	Models          map[string]calib.Model `json:"regression_models,omitempty"`
	Settings        detect.Settings        `json:"settings"`
	ROI             *geometry.Rect         `json:"roi,omitempty"`
}

// Snapshot captures the current session.
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap := Snapshot{
		Images:          append([]string(nil), st.images...),
		Shapes:          st.registry.All(),
		CommittedPoints: st.pointsLocked(),
		Models:          copyModels(st.models),
		Settings:        st.settings,
	}
	if st.roi != nil {
		roi := *st.roi
		snap.ROI = &roi
	}
	return snap
}

// Restore replaces the session with a previously captured snapshot.
func (st *State) Restore(snap Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.images = append([]string(nil), snap.Images...)
	st.registry = shape.NewRegistry()
	for _, s := range snap.Shapes {
		st.registry.Add(s)
	}
	st.points = make(map[string]float64, len(snap.CommittedPoints))
	for _, p := range snap.CommittedPoints {
		st.points[p.Label] = p.Y
	}
	st.models = copyModels(snap.Models)
	if snap.Settings.SampleFraction > 0 {
		st.settings = snap.Settings
	}
	st.roi = nil
	if snap.ROI != nil {
		roi := *snap.ROI
		st.roi = &roi
	}
}

func copyModels(models map[string]calib.Model) map[string]calib.Model {
	if models == nil {
		return nil
	}
	out := make(map[string]calib.Model, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}
