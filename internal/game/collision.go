package game

import "github.com/go-gl/mathgl/mgl64"

// Box is an axis-aligned bounding volume.
type Box struct {
	Min, Max mgl64.Vec3
}

// Intersects reports whether two boxes overlap. Touching faces count as
// overlapping. The test is symmetric.
func Intersects(a, b Box) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || a.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Shrink contracts every side by t. An axis that would invert collapses to
// its centre so the box never becomes inside-out.
func (b Box) Shrink(t float64) Box {
	out := b
	for i := 0; i < 3; i++ {
		lo, hi := b.Min[i]+t, b.Max[i]-t
		if lo > hi {
			mid := (b.Min[i] + b.Max[i]) / 2
			lo, hi = mid, mid
		}
		out.Min[i], out.Max[i] = lo, hi
	}
	return out
}

// Shape describes the extent of a visual around its position.
// Grounded shapes stand on their position (y grows upward from it);
// others are centred on it.
type Shape struct {
	Size     mgl64.Vec3
	Grounded bool
}

// BoxAt computes the world volume of the shape at pos. Boxes are recomputed
// every frame from the current position.
func (s Shape) BoxAt(pos mgl64.Vec3) Box {
	half := s.Size.Mul(0.5)
	b := Box{Min: pos.Sub(half), Max: pos.Add(half)}
	if s.Grounded {
		b.Min[1] = pos[1]
		b.Max[1] = pos[1] + s.Size[1]
	}
	return b
}

// shapes holds the hitbox geometry for each visual kind.
var shapes = map[Kind]Shape{
	KindPlayer:             {Size: mgl64.Vec3{1, 1.6, 1.2}, Grounded: true},
	KindObstacle:           {Size: mgl64.Vec3{1, 2, 1}, Grounded: true},
	KindCollectible:        {Size: mgl64.Vec3{0.5, 0.5, 0.5}},
	KindSponsorCollectible: {Size: mgl64.Vec3{0.4, 0.4, 0.4}},
	KindSponsorBanner:      {Size: mgl64.Vec3{4, 2, 0.05}},
}

// ShapeOf returns the hitbox geometry for a kind.
func ShapeOf(k Kind) Shape {
	return shapes[k]
}

// HitTest checks the player volume against an entity volume after shrinking
// the entity by tolerance.
func HitTest(player Box, e *Entity, tolerance float64) bool {
	return Intersects(player, ShapeOf(e.Kind).BoxAt(e.Position).Shrink(tolerance))
}
