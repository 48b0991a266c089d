package math

// BoundingBox is an axis-aligned bounding box in either local or world space,
// shared by shapes (§3 Shape), entities, and the scene BVH (§4.6).
type BoundingBox struct {
	Min Vec3
	Max Vec3
}

// MinimumBoundingBoxVolume is the minimum volume a shape's bbox is inflated
// to, per §3's "inflated by 10^-5 minimum" invariant.
const MinimumBoundingBoxVolume float32 = 1e-5

func NewEmptyBoundingBox() BoundingBox {
	inf := float32(3.402823466e+38)
	return BoundingBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

func NewBoundingBox(min, max Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

func (b BoundingBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b BoundingBox) Extend(p Vec3) BoundingBox {
	return BoundingBox{
		Min: Vec3{minf(b.Min.X, p.X), minf(b.Min.Y, p.Y), minf(b.Min.Z, p.Z)},
		Max: Vec3{maxf(b.Max.X, p.X), maxf(b.Max.Y, p.Y), maxf(b.Max.Z, p.Z)},
	}
}

func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return BoundingBox{
		Min: Vec3{minf(b.Min.X, o.Min.X), minf(b.Min.Y, o.Min.Y), minf(b.Min.Z, o.Min.Z)},
		Max: Vec3{maxf(b.Max.X, o.Max.X), maxf(b.Max.Y, o.Max.Y), maxf(b.Max.Z, o.Max.Z)},
	}
}

// Contains reports whether b fully encloses o (used by the scene-BVH
// invariant in §8 property 7: "L.bbox encloses the bbox of its entity").
func (b BoundingBox) Contains(o BoundingBox) bool {
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && b.Min.Z <= o.Min.Z &&
		b.Max.X >= o.Max.X && b.Max.Y >= o.Max.Y && b.Max.Z >= o.Max.Z
}

func (b BoundingBox) Center() Vec3 {
	return Vec3{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2, (b.Min.Z + b.Max.Z) / 2}
}

func (b BoundingBox) Diagonal() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BoundingBox) Diameter() float32 {
	return b.Diagonal().Length()
}

func (b BoundingBox) Volume() float32 {
	d := b.Diagonal()
	return d.X * d.Y * d.Z
}

func (b BoundingBox) SurfaceArea() float32 {
	d := b.Diagonal()
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// LargestAxis returns 0, 1, or 2 for the x, y or z axis with the largest
// extent — used by the BVH median-split partition (§4.6).
func (b BoundingBox) LargestAxis() int {
	d := b.Diagonal()
	axis := 0
	largest := d.X
	if d.Y > largest {
		axis = 1
		largest = d.Y
	}
	if d.Z > largest {
		axis = 2
	}
	return axis
}

// Inflate grows the bbox so its volume is at least MinimumBoundingBoxVolume,
// matching the shape-loader invariant in §3/§4.2.
func (b BoundingBox) Inflate() BoundingBox {
	if !b.IsEmpty() && b.Volume() >= MinimumBoundingBoxVolume {
		return b
	}
	center := b.Center()
	half := float32(0.5) * cubeRootf(MinimumBoundingBoxVolume)
	grown := BoundingBox{
		Min: Vec3{center.X - half, center.Y - half, center.Z - half},
		Max: Vec3{center.X + half, center.Y + half, center.Z + half},
	}
	return b.Union(grown)
}

// Transformed returns the bbox of all eight corners of b mapped through m,
// the AABB-of-transformed-AABB the entity loader needs (§4.3 step 5).
func (b BoundingBox) Transformed(m Mat4) BoundingBox {
	if b.IsEmpty() {
		return b
	}
	out := NewEmptyBoundingBox()
	for i := 0; i < 8; i++ {
		corner := Vec3{
			pick(i&1 != 0, b.Min.X, b.Max.X),
			pick(i&2 != 0, b.Min.Y, b.Max.Y),
			pick(i&4 != 0, b.Min.Z, b.Max.Z),
		}
		out = out.Extend(corner.Transform(m))
	}
	return out
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return b
	}
	return a
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func cubeRootf(v float32) float32 {
	if v <= 0 {
		return 0
	}
	// Newton's method, a handful of iterations is plenty for this use.
	x := v
	for i := 0; i < 16; i++ {
		x = x - (x*x*x-v)/(3*x*x)
	}
	return x
}
