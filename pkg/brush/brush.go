package brush

import (
	"fmt"

	"github.com/chazu/brushwork/pkg/linalg"
	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/stat/combin"
)

// Brush is a convex solid bounded by the planes of its faces. Faces keep
// the order in which they were added.
type Brush struct {
	faces []*Face
}

// New returns an empty brush.
func New() *Brush {
	return &Brush{}
}

// AddFace appends a bounding plane. The face has no vertices until
// Reconstruct runs.
func (b *Brush) AddFace(def FaceDef) error {
	f, err := NewFace(def)
	if err != nil {
		return &GeometryError{Face: len(b.faces), Err: err}
	}
	b.faces = append(b.faces, f)
	return nil
}

// Faces returns the faces in insertion order.
func (b *Brush) Faces() []*Face {
	out := make([]*Face, len(b.faces))
	copy(out, b.faces)
	return out
}

// Len returns the number of faces.
func (b *Brush) Len() int {
	return len(b.faces)
}

// Reconstruct computes the polygon of every face. Each combination of
// three distinct planes is intersected; points in front of any plane lie
// outside the solid and are dropped, the rest become vertices of the
// three faces that produced them. Parallel triples are skipped. A face
// left with fewer than three vertices, or one whose vertices cannot be
// wound, fails the whole brush.
//
// Running Reconstruct again on a reconstructed brush leaves every vertex
// set unchanged.
func (b *Brush) Reconstruct() error {
	if len(b.faces) == 0 {
		return &GeometryError{Face: 0, Err: ErrTooFewVertices}
	}
	if len(b.faces) >= 3 {
		for _, c := range combin.Combinations(len(b.faces), 3) {
			i, j, k := c[0], c[1], c[2]
			v, ok := linalg.Intersect3(b.faces[i].plane, b.faces[j].plane, b.faces[k].plane)
			if !ok {
				continue
			}
			if b.outside(v) {
				continue
			}
			b.faces[i].AddVertex(v)
			b.faces[j].AddVertex(v)
			b.faces[k].AddVertex(v)
		}
	}

	for n, f := range b.faces {
		if len(f.vertices) < 3 {
			return &GeometryError{Face: n, Err: ErrTooFewVertices}
		}
	}
	for n, f := range b.faces {
		if err := f.SortClockwise(); err != nil {
			return &GeometryError{Face: n, Err: err}
		}
	}
	return nil
}

// outside reports whether v lies strictly in front of any face plane.
func (b *Brush) outside(v linalg.Vec) bool {
	for _, f := range b.faces {
		if f.plane.Side(v) == linalg.SideFront {
			return true
		}
	}
	return false
}

// Reconstructed reports whether every face carries a polygon.
func (b *Brush) Reconstructed() bool {
	if len(b.faces) == 0 {
		return false
	}
	for _, f := range b.faces {
		if len(f.vertices) < 3 {
			return false
		}
	}
	return true
}

// Vertices returns the distinct corners of the solid in discovery order.
func (b *Brush) Vertices() []linalg.Vec {
	var all Face
	for _, f := range b.faces {
		for _, v := range f.vertices {
			all.AddVertex(v)
		}
	}
	return all.vertices
}

// Bounds returns the axis-aligned box around the reconstructed solid.
func (b *Brush) Bounds() (sdf.Box3, error) {
	vs := b.Vertices()
	if len(vs) == 0 {
		return sdf.Box3{}, ErrNotReconstructed
	}
	box := sdf.Box3{Min: vs[0], Max: vs[0]}
	for _, v := range vs[1:] {
		box.Min = box.Min.Min(v)
		box.Max = box.Max.Max(v)
	}
	return box, nil
}

// Translate moves every bounding plane by offset and reconstructs the
// brush at its new position. On error the brush is left unchanged.
func (b *Brush) Translate(offset linalg.Vec) error {
	moved := b.Clone()
	for n, f := range moved.faces {
		if err := f.translate(offset); err != nil {
			return &GeometryError{Face: n, Err: err}
		}
	}
	if err := moved.Reconstruct(); err != nil {
		return fmt.Errorf("brush: translate: %w", err)
	}
	b.faces = moved.faces
	return nil
}

// Clone returns a deep copy of the brush.
func (b *Brush) Clone() *Brush {
	c := &Brush{faces: make([]*Face, len(b.faces))}
	for i, f := range b.faces {
		c.faces[i] = f.clone()
	}
	return c
}
