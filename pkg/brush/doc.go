// Package brush turns a convex solid described only by its bounding
// planes into explicit face polygons. Every triple of planes is
// intersected, points outside any plane are discarded, and the
// surviving vertices of each face are wound around the face centroid.
package brush
