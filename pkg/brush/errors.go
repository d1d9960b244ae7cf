package brush

import (
	"errors"
	"fmt"
)

var (
	// ErrDegeneratePlane is returned when a face's three defining points are collinear.
	ErrDegeneratePlane = errors.New("defining points are collinear")
	// ErrNoVertices is returned by Face.Center before any vertex has been added.
	ErrNoVertices = errors.New("face has no vertices")
	// ErrDegeneratePolygon is returned when the vertex sweep finds no next vertex.
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	// ErrTooFewVertices means a face ended reconstruction with fewer than 3 vertices.
	// The brush is unbounded, non-convex, or has too few planes.
	ErrTooFewVertices = errors.New("face has fewer than 3 vertices")
	// ErrNotReconstructed is returned when serializing a face that has no polygon yet.
	ErrNotReconstructed = errors.New("face has not been reconstructed")
)

// GeometryError reports a reconstruction failure on one face of a brush.
type GeometryError struct {
	Face int // index of the face within the brush
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("face %d: %v", e.Face, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}
