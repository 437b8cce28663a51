package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float64) Box {
	return Box{Min: mgl64.Vec3{minX, minY, minZ}, Max: mgl64.Vec3{maxX, maxY, maxZ}}
}

// TestIntersectsSymmetric verifies overlap results do not depend on argument order
func TestIntersectsSymmetric(t *testing.T) {
	unit := box(0, 0, 0, 1, 1, 1)

	tests := []struct {
		name string
		b    Box
		want bool
	}{
		{"identical", unit, true},
		{"overlapping", box(0.5, 0.5, 0.5, 1.5, 1.5, 1.5), true},
		{"contained", box(0.25, 0.25, 0.25, 0.75, 0.75, 0.75), true},
		{"touching face", box(1, 0, 0, 2, 1, 1), true},
		{"touching corner", box(1, 1, 1, 2, 2, 2), true},
		{"apart on x", box(1.01, 0, 0, 2, 1, 1), false},
		{"apart on y", box(0, -2, 0, 1, -0.01, 1), false},
		{"apart on z", box(0, 0, 3, 1, 1, 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Intersects(unit, tt.b)
			ba := Intersects(tt.b, unit)
			if ab != ba {
				t.Fatalf("Asymmetric result: a∩b=%v b∩a=%v", ab, ba)
			}
			if ab != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, ab)
			}
		})
	}
}

// TestShrinkStaysValid verifies shrinking never produces an inverted box
func TestShrinkStaysValid(t *testing.T) {
	b := box(0, 0, 0, 1, 0.2, 4).Shrink(0.15)

	if math.Abs(b.Min.X()-0.15) > epsilon || math.Abs(b.Max.X()-0.85) > epsilon {
		t.Errorf("Unexpected x extent [%.2f, %.2f]", b.Min.X(), b.Max.X())
	}
	if b.Min.Y() != 0.1 || b.Max.Y() != 0.1 {
		t.Errorf("Thin axis should collapse to its centre, got [%.2f, %.2f]", b.Min.Y(), b.Max.Y())
	}
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			t.Errorf("Axis %d inverted: %.2f > %.2f", i, b.Min[i], b.Max[i])
		}
	}

	grown := box(0, 0, 0, 1, 1, 1).Shrink(-0.5)
	if grown.Min.X() != -0.5 || grown.Max.X() != 1.5 {
		t.Errorf("Negative shrink should expand, got [%.2f, %.2f]", grown.Min.X(), grown.Max.X())
	}
}

// TestHitTestGroundedObstacle verifies a grounded player hits an obstacle in its lane
func TestHitTestGroundedObstacle(t *testing.T) {
	player := ShapeOf(KindPlayer).BoxAt(mgl64.Vec3{0, 0.1, 0}).Shrink(0.15)

	tests := []struct {
		name string
		pos  mgl64.Vec3
		want bool
	}{
		{"same lane", mgl64.Vec3{0, 0, 0}, true},
		{"next lane", mgl64.Vec3{1.5, 0, 0}, false},
		{"far ahead", mgl64.Vec3{0, 0, -10}, false},
		{"edge overlap", mgl64.Vec3{0.6, 0, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entity{Kind: KindObstacle, Position: tt.pos}
			if got := HitTest(player, e, 0.15); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	// A player at the apex of a jump clears a 2-unit obstacle
	airborne := ShapeOf(KindPlayer).BoxAt(mgl64.Vec3{0, 4.1, 0}).Shrink(0.15)
	if HitTest(airborne, &Entity{Kind: KindObstacle}, 0.15) {
		t.Error("Airborne player should clear the obstacle")
	}
}
