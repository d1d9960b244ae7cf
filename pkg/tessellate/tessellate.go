// Package tessellate walks a map and produces triangle meshes from its
// reconstructed brushes. One mesh is produced per brush.
package tessellate

import (
	"fmt"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/chazu/brushwork/pkg/quakemap"
	"github.com/deadsy/sdfx/sdf"
)

// Compile-time interface check.
var _ kernel.Mesher = Fan{}

// Fan triangulates every face polygon as a fan around its first vertex.
// Face polygons are convex and wound consistently, so the fan is exact.
type Fan struct{}

// Mesh triangulates the faces of b. Normals are taken from the face
// planes, so every triangle of a face shares one flat normal.
func (Fan) Mesh(b *brush.Brush) (*kernel.Mesh, error) {
	if !b.Reconstructed() {
		return nil, brush.ErrNotReconstructed
	}

	m := &kernel.Mesh{}
	for _, f := range b.Faces() {
		vs := f.Vertices()
		n := f.Plane().Normal
		for i := 1; i+1 < len(vs); i++ {
			// Vertices are wound clockwise seen from outside; the
			// triangle is emitted counter-clockwise for renderers.
			t := sdf.Triangle3{vs[0], vs[i+1], vs[i]}
			m.AddTriangle(t, n)
		}
	}
	return m, nil
}

// Tessellate produces one mesh per brush of m using k, in entity then
// brush order. A nil k uses Fan. The map is never mutated.
func Tessellate(m *quakemap.Map, k kernel.Mesher) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}
	if k == nil {
		k = Fan{}
	}

	var meshes []*kernel.Mesh
	for en, e := range m.Entities() {
		for bn, b := range e.Solids() {
			mesh, err := k.Mesh(b)
			if err != nil {
				return nil, fmt.Errorf("tessellate: entity %d brush %d: %w", en, bn, err)
			}
			mesh.PartName = partName(e, en, bn)
			meshes = append(meshes, mesh)
		}
	}
	return meshes, nil
}

// partName prefers the classname, falling back to the entity index.
func partName(e *quakemap.Entity, en, bn int) string {
	if cn := e.ClassName(); cn != "" {
		return fmt.Sprintf("%s %d brush %d", cn, en, bn)
	}
	return fmt.Sprintf("entity %d brush %d", en, bn)
}

// Merge concatenates meshes into a single mesh, rebasing indices.
func Merge(name string, meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{PartName: name}
	for _, m := range meshes {
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, i := range m.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}
