// Package quakemap reads and writes the text map format: a list of
// entities, each holding "key" "value" attributes and brushes written as
// lists of bounding planes. Brushes are reconstructed into explicit face
// polygons as soon as their closing brace is read.
package quakemap
