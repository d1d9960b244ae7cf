// Package linalg holds the vector and plane primitives that brush
// reconstruction is written against. Vectors are sdfx v3.Vec values;
// the three-plane solve uses an mgl64 determinant.
package linalg

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a point or direction in map space.
type Vec = v3.Vec

// EpsilonDistance is the tolerance used for side tests, vertex
// deduplication and the parallel-plane cutoff.
const EpsilonDistance = 0.001

// Side classifies a point against a plane.
type Side int

const (
	SideOn    Side = iota // within EpsilonDistance of the plane
	SideFront             // on the side the normal points to
	SideBack
)

func (s Side) String() string {
	switch s {
	case SideOn:
		return "on"
	case SideFront:
		return "front"
	case SideBack:
		return "back"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Plane is the set of points p with Normal·p == Dist. Normal is unit length.
type Plane struct {
	Normal Vec
	Dist   float64
}

// PlaneFromPoints builds the plane through three points. The normal is
// (p0-p1) x (p2-p1), which for map brushes points out of the solid.
// ok is false when the points are collinear.
func PlaneFromPoints(p0, p1, p2 Vec) (p Plane, ok bool) {
	n := p0.Sub(p1).Cross(p2.Sub(p1))
	l := n.Length()
	if l < EpsilonDistance*EpsilonDistance {
		return Plane{}, false
	}
	n = n.DivScalar(l)
	return Plane{Normal: n, Dist: n.Dot(p0)}, true
}

// Distance returns the signed distance of v from the plane, positive in front.
func (p Plane) Distance(v Vec) float64 {
	return p.Normal.Dot(v) - p.Dist
}

// Side classifies v against the plane using EpsilonDistance.
func (p Plane) Side(v Vec) Side {
	d := p.Distance(v)
	switch {
	case d > EpsilonDistance:
		return SideFront
	case d < -EpsilonDistance:
		return SideBack
	default:
		return SideOn
	}
}

// Coincident reports whether p and q describe the same oriented plane.
func (p Plane) Coincident(q Plane) bool {
	return p.Normal.Sub(q.Normal).Length() < EpsilonDistance &&
		math.Abs(p.Dist-q.Dist) < EpsilonDistance
}

// Intersect3 returns the single point shared by three planes. ok is false
// when two or more of the planes are parallel, or the three meet in a line.
func Intersect3(a, b, c Plane) (v Vec, ok bool) {
	det := mgl64.Mat3FromCols(toMgl(a.Normal), toMgl(b.Normal), toMgl(c.Normal)).Det()
	if math.Abs(det) < EpsilonDistance {
		return Vec{}, false
	}
	sum := b.Normal.Cross(c.Normal).MulScalar(a.Dist).
		Add(c.Normal.Cross(a.Normal).MulScalar(b.Dist)).
		Add(a.Normal.Cross(b.Normal).MulScalar(c.Dist))
	return sum.DivScalar(det), true
}

// Centroid returns the arithmetic mean of pts. ok is false for an empty slice.
func Centroid(pts []Vec) (c Vec, ok bool) {
	if len(pts) == 0 {
		return Vec{}, false
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.DivScalar(float64(len(pts))), true
}

func toMgl(v Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
