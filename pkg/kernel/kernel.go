// Package kernel defines the triangle mesh produced from reconstructed
// brushes and the Mesher interface that backends implement. The exact
// polygon fan (package tessellate) and the sdfx marching-cubes backend
// (package kernel/sdfx) can be swapped without changing callers.
package kernel

import "github.com/chazu/brushwork/pkg/brush"

// Mesher turns one reconstructed brush into a triangle mesh.
type Mesher interface {
	Mesh(b *brush.Brush) (*Mesh, error)
}
