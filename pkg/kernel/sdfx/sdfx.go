// Package sdfx meshes brushes through the github.com/deadsy/sdfx SDF
// library. A brush becomes the intersection of its half-spaces; the
// brushes of an entity can be unioned into one hull before marching
// cubes runs. The result approximates the exact polygon fan, so it is
// meant for previews and merged collision hulls rather than export of
// the original faces.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/chazu/brushwork/pkg/linalg"
	"github.com/chazu/brushwork/pkg/quakemap"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Mesher = (*SdfxKernel)(nil)
	_ sdf.SDF3      = (*brushSDF)(nil)
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 64

// boundsMargin pads the sampled volume so faces on the bounding box are
// not clipped by the marching cubes grid.
const boundsMargin = 1.0

// brushSDF is the signed distance bound of a convex brush: the largest
// plane distance. It is negative inside, zero on the surface and
// positive outside.
type brushSDF struct {
	planes []linalg.Plane
	bb     sdf.Box3
}

func (s *brushSDF) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for _, pl := range s.planes {
		d = math.Max(d, pl.Distance(p))
	}
	return d
}

func (s *brushSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// SdfxKernel meshes brushes by marching cubes.
type SdfxKernel struct {
	cells int
}

// New returns a kernel sampling the longest side of each solid with the
// given number of cells. cells <= 0 selects the default.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Solid returns the SDF of a reconstructed brush.
func (k *SdfxKernel) Solid(b *brush.Brush) (sdf.SDF3, error) {
	box, err := b.Bounds()
	if err != nil {
		return nil, err
	}
	pad := v3.Vec{X: boundsMargin, Y: boundsMargin, Z: boundsMargin}
	s := &brushSDF{bb: sdf.Box3{Min: box.Min.Sub(pad), Max: box.Max.Add(pad)}}
	for _, f := range b.Faces() {
		s.planes = append(s.planes, f.Plane())
	}
	return s, nil
}

// Union returns the union of the given brushes.
func (k *SdfxKernel) Union(bs []*brush.Brush) (sdf.SDF3, error) {
	if len(bs) == 0 {
		return nil, brush.ErrNotReconstructed
	}
	solids := make([]sdf.SDF3, 0, len(bs))
	for n, b := range bs {
		s, err := k.Solid(b)
		if err != nil {
			return nil, fmt.Errorf("brush %d: %w", n, err)
		}
		solids = append(solids, s)
	}
	if len(solids) == 1 {
		return solids[0], nil
	}
	return sdf.Union3D(solids...), nil
}

// Mesh converts a single brush to a triangle mesh.
func (k *SdfxKernel) Mesh(b *brush.Brush) (*kernel.Mesh, error) {
	s, err := k.Solid(b)
	if err != nil {
		return nil, err
	}
	return k.ToMesh(s)
}

// EntityMesh unions every brush of e and meshes the result as one part.
func (k *SdfxKernel) EntityMesh(e *quakemap.Entity) (*kernel.Mesh, error) {
	s, err := k.Union(e.Solids())
	if err != nil {
		return nil, err
	}
	m, err := k.ToMesh(s)
	if err != nil {
		return nil, err
	}
	m.PartName = e.ClassName()
	return m, nil
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s sdf.SDF3) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles at %d cells", k.cells)
	}

	m := &kernel.Mesh{}
	for _, tri := range triangles {
		m.AddTriangle(*tri, tri.Normal())
	}
	return m, nil
}
