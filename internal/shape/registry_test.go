package shape

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plate-reader/pkg/colorutil"
	"plate-reader/pkg/geometry"
)

func circleShape(label string, imageIndex int, radius float64) Shape {
	c := geometry.NewCircle(50, 50, radius)
	return Shape{Label: label, Kind: KindCircle, Circle: &c, ImageIndex: imageIndex}
}

func rectShape(label string, imageIndex int, w, h float64) Shape {
	r := geometry.NewRect(10, 10, w, h)
	return Shape{Label: label, Kind: KindRectangle, Rect: &r, ImageIndex: imageIndex}
}

func TestAddGeneratesUniqueIDs(t *testing.T) {
	reg := NewRegistry()
	a, ok := reg.Add(circleShape("a", 0, 10))
	if !ok || a.ID == "" {
		t.Fatalf("add failed or empty id: %+v", a)
	}
	b, ok := reg.Add(circleShape("b", 0, 10))
	if !ok || b.ID == a.ID {
		t.Fatalf("duplicate or missing id: %q vs %q", a.ID, b.ID)
	}
}

func TestAddDiscardsUndersized(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name string
		s    Shape
	}{
		{"tiny circle", circleShape("a", 0, MinRadius - 0.5)},
		{"thin rect", rectShape("a", 0, MinSide-1, 50)},
		{"short rect", rectShape("a", 0, 50, MinSide-1)},
		{"circle missing geometry", Shape{Label: "a", Kind: KindCircle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := reg.Add(tt.s); ok {
				t.Error("undersized shape entered the registry")
			}
		})
	}
	if reg.Len() != 0 {
		t.Fatalf("registry should be empty, has %d", reg.Len())
	}
}

func TestNextLabelNamespace(t *testing.T) {
	used := make(map[string]bool)
	for c := 'a'; c <= 'z'; c++ {
		label := NextLabel(used)
		if label != string(c) {
			t.Fatalf("expected %q, got %q", string(c), label)
		}
		used[label] = true
	}
	if label := NextLabel(used); label != "?1" {
		t.Fatalf("expected ?1 after exhausting a-z, got %q", label)
	}
	used["?1"] = true
	if label := NextLabel(used); label != "?2" {
		t.Fatalf("expected ?2, got %q", label)
	}
}

func TestNextLabelSkipsHoles(t *testing.T) {
	reg := NewRegistry()
	reg.Add(circleShape("a", 0, 10))
	reg.Add(circleShape("c", 0, 10))
	if label := reg.NextLabel(); label != "b" {
		t.Fatalf("expected b, got %q", label)
	}
}

func TestLabelUniquenessAcrossImages(t *testing.T) {
	// Labels are a global namespace: allocating through NextLabel while
	// adding shapes on different images must never produce a duplicate.
	reg := NewRegistry()
	for img := 0; img < 3; img++ {
		for i := 0; i < 10; i++ {
			label := reg.NextLabel()
			if _, ok := reg.Add(circleShape(label, img, 10)); !ok {
				t.Fatalf("add failed for %q", label)
			}
		}
	}
	seen := make(map[string]bool)
	for _, s := range reg.All() {
		if seen[s.Label] {
			t.Fatalf("duplicate label %q", s.Label)
		}
		seen[s.Label] = true
	}
}

func TestRenameLastWriteWins(t *testing.T) {
	// The registry does not dedup renames: renaming b to "a" leaves two
	// shapes labeled "a". Documented behavior, surfaced to the UI layer.
	reg := NewRegistry()
	a, _ := reg.Add(circleShape("a", 0, 10))
	b, _ := reg.Add(circleShape("b", 0, 10))

	label := "a"
	if _, ok := reg.Apply(b.ID, Update{Label: &label}); !ok {
		t.Fatal("rename failed")
	}

	gotA, _ := reg.Get(a.ID)
	gotB, _ := reg.Get(b.ID)
	if gotA.Label != "a" || gotB.Label != "a" {
		t.Fatalf("expected both labeled a, got %q and %q", gotA.Label, gotB.Label)
	}
}

func TestApplyPartialUpdate(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.Add(circleShape("a", 0, 10))

	newGeom := geometry.NewCircle(70, 80, 15)
	col := colorutil.RGB{R: 200, G: 10, B: 10}
	updated, ok := reg.Apply(s.ID, Update{Circle: &newGeom, Color: &col})
	if !ok {
		t.Fatal("update failed")
	}

	want := s
	want.Circle = &newGeom
	want.Color = col
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("updated shape mismatch (-want +got):\n%s", diff)
	}

	// A rect update on a circle shape is ignored.
	r := geometry.NewRect(0, 0, 5, 5)
	after, _ := reg.Apply(s.ID, Update{Rect: &r})
	if after.Rect != nil {
		t.Fatal("rect geometry applied to a circle shape")
	}
}

func TestClearForImage(t *testing.T) {
	reg := NewRegistry()
	reg.Add(circleShape("a", 0, 10))
	reg.Add(circleShape("b", 1, 10))
	reg.Add(circleShape("c", 1, 10))
	reg.Add(circleShape("d", 2, 10))

	reg.ClearForImage(1)

	if got := len(reg.ForImage(1)); got != 0 {
		t.Fatalf("image 1 still has %d shapes", got)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 shapes left, got %d", reg.Len())
	}
	// Other images untouched, indices unchanged.
	if got := len(reg.ForImage(2)); got != 1 {
		t.Fatalf("image 2 has %d shapes, want 1", got)
	}
}

func TestRemoveImageRenumbers(t *testing.T) {
	reg := NewRegistry()
	reg.Add(circleShape("a", 0, 10))
	reg.Add(circleShape("b", 1, 10))
	reg.Add(circleShape("c", 2, 10))
	reg.Add(circleShape("d", 2, 10))

	reg.RemoveImage(1)

	counts := make(map[int]int)
	for _, s := range reg.All() {
		counts[s.ImageIndex]++
		if s.ImageIndex == 2 {
			t.Fatalf("shape %s retains image index 2", s.Label)
		}
	}
	want := map[int]int{0: 1, 1: 2}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("per-image counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveShape(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.Add(circleShape("a", 0, 10))
	if !reg.Remove(s.ID) {
		t.Fatal("remove failed")
	}
	if reg.Remove(s.ID) {
		t.Fatal("second remove should report false")
	}
	if _, ok := reg.Get(s.ID); ok {
		t.Fatal("shape still present")
	}
}

func TestGeneratedIDsSkipRestored(t *testing.T) {
	reg := NewRegistry()
	restored := circleShape("a", 0, 10)
	restored.ID = fmt.Sprintf("well-%03d", 1)
	reg.Add(restored)

	fresh, ok := reg.Add(circleShape("b", 0, 10))
	if !ok || fresh.ID == restored.ID {
		t.Fatalf("generated id %q collides with restored id", fresh.ID)
	}
}
