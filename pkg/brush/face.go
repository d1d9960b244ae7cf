package brush

import (
	"slices"
	"strings"

	"github.com/chazu/brushwork/pkg/linalg"
)

// FaceDef is one bounding-plane line of a brush as read from a map:
// three points on the plane, a texture name and its surface properties.
type FaceDef struct {
	Points     [3]linalg.Vec
	Texture    string
	Properties []Property
}

// Face is one bounding plane of a brush together with the polygon that
// plane contributes to the brush surface.
type Face struct {
	points     [3]linalg.Vec
	plane      linalg.Plane
	texture    string
	properties []Property
	vertices   []linalg.Vec
}

// NewFace builds a face from its definition. The vertex list starts empty.
func NewFace(def FaceDef) (*Face, error) {
	p, ok := linalg.PlaneFromPoints(def.Points[0], def.Points[1], def.Points[2])
	if !ok {
		return nil, ErrDegeneratePlane
	}
	return &Face{
		points:     def.Points,
		plane:      p,
		texture:    def.Texture,
		properties: slices.Clone(def.Properties),
	}, nil
}

// Plane returns the bounding plane. Its normal points out of the brush.
func (f *Face) Plane() linalg.Plane {
	return f.plane
}

// Texture returns the opaque texture name.
func (f *Face) Texture() string {
	return f.texture
}

// Properties returns a copy of the surface properties.
func (f *Face) Properties() []Property {
	return slices.Clone(f.properties)
}

// Vertices returns a copy of the polygon vertices in their current order.
func (f *Face) Vertices() []linalg.Vec {
	return slices.Clone(f.vertices)
}

// NumVertices returns the number of vertices found so far.
func (f *Face) NumVertices() int {
	return len(f.vertices)
}

// Def returns the definition the face was built from.
func (f *Face) Def() FaceDef {
	return FaceDef{
		Points:     f.points,
		Texture:    f.texture,
		Properties: slices.Clone(f.properties),
	}
}

// AddVertex appends v unless a vertex within EpsilonDistance is already
// present. It reports whether v was added.
func (f *Face) AddVertex(v linalg.Vec) bool {
	for _, cur := range f.vertices {
		if v.Sub(cur).Length() < linalg.EpsilonDistance {
			return false
		}
	}
	f.vertices = append(f.vertices, v)
	return true
}

// Center returns the mean of the current vertices.
func (f *Face) Center() (linalg.Vec, error) {
	c, ok := linalg.Centroid(f.vertices)
	if !ok {
		return linalg.Vec{}, ErrNoVertices
	}
	return c, nil
}

// SortClockwise orders the vertices by sweeping around the centroid in
// the face plane. For each anchor vertex a half-plane through the anchor,
// the centroid and the face normal splits the rest; the candidate on the
// front side with the smallest angle to the anchor moves next. The
// polygon is then flipped if its winding disagrees with the face normal.
func (f *Face) SortClockwise() error {
	if len(f.vertices) < 3 {
		return ErrTooFewVertices
	}
	center, err := f.Center()
	if err != nil {
		return err
	}
	up := center.Add(f.plane.Normal)
	vs := f.vertices

	for n := 0; n <= len(vs)-3; n++ {
		a := vs[n].Sub(center).Normalize()
		sweep, ok := linalg.PlaneFromPoints(vs[n], center, up)
		if !ok {
			return ErrDegeneratePolygon
		}

		best, bestDot := -1, -1.0
		for m := n + 1; m < len(vs); m++ {
			if sweep.Side(vs[m]) == linalg.SideBack {
				continue
			}
			d := a.Dot(vs[m].Sub(center).Normalize())
			if d > bestDot {
				best, bestDot = m, d
			}
		}
		if best < 0 {
			return ErrDegeneratePolygon
		}
		vs[n+1], vs[best] = vs[best], vs[n+1]
	}

	return orient(vs, f.plane.Normal)
}

// orient reverses vs in place when the winding of its first three
// vertices disagrees with normal. Only vs[1:] is reversed so vs[0] stays
// the anchor and sorting an already sorted face is a no-op.
func orient(vs []linalg.Vec, normal linalg.Vec) error {
	wound, ok := linalg.PlaneFromPoints(vs[0], vs[1], vs[2])
	if !ok {
		return ErrDegeneratePolygon
	}
	if wound.Normal.Dot(normal) < 0 {
		slices.Reverse(vs[1:])
	}
	return nil
}

// AppendText appends the map-format line for the face: the first three
// polygon vertices, the texture and the properties.
func (f *Face) AppendText(b []byte) ([]byte, error) {
	if len(f.vertices) < 3 {
		return b, ErrNotReconstructed
	}
	return appendFaceLine(b, [3]linalg.Vec(f.vertices[:3]), f.texture, f.properties), nil
}

// String returns the map-format line. Before reconstruction the defining
// points are used in place of polygon vertices.
func (f *Face) String() string {
	pts := f.points
	if len(f.vertices) >= 3 {
		pts = [3]linalg.Vec(f.vertices[:3])
	}
	return string(appendFaceLine(nil, pts, f.texture, f.properties))
}

func appendFaceLine(b []byte, pts [3]linalg.Vec, texture string, props []Property) []byte {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("( ")
		sb.WriteString(formatCoord(p.X))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(p.Y))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(p.Z))
		sb.WriteString(" )")
	}
	sb.WriteByte(' ')
	sb.WriteString(texture)
	for _, p := range props {
		sb.WriteByte(' ')
		sb.WriteString(p.String())
	}
	return append(b, sb.String()...)
}

// reset drops the polygon so the face can be reconstructed from scratch.
func (f *Face) reset() {
	f.vertices = nil
}

// translate moves the defining points by offset and rebuilds the plane.
func (f *Face) translate(offset linalg.Vec) error {
	var pts [3]linalg.Vec
	for i, p := range f.points {
		pts[i] = p.Add(offset)
	}
	p, ok := linalg.PlaneFromPoints(pts[0], pts[1], pts[2])
	if !ok {
		return ErrDegeneratePlane
	}
	f.points = pts
	f.plane = p
	f.reset()
	return nil
}

func (f *Face) clone() *Face {
	c := *f
	c.properties = slices.Clone(f.properties)
	c.vertices = slices.Clone(f.vertices)
	return &c
}
