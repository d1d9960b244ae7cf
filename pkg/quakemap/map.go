package quakemap

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
)

// Map is an ordered list of entities.
type Map struct {
	entities []*Entity
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{}
}

// AddEntity appends e.
func (m *Map) AddEntity(e *Entity) {
	m.entities = append(m.entities, e)
}

// Entities returns the entities in file order.
func (m *Map) Entities() []*Entity {
	out := make([]*Entity, len(m.entities))
	copy(out, m.entities)
	return out
}

// Len returns the number of entities.
func (m *Map) Len() int {
	return len(m.entities)
}

// BrushCount returns the number of brushes across all entities.
func (m *Map) BrushCount() int {
	n := 0
	for _, e := range m.entities {
		n += len(e.solids)
	}
	return n
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{entities: make([]*Entity, len(m.entities))}
	for i, e := range m.entities {
		c.entities[i] = e.Clone()
	}
	return c
}

// Load parses the map file at path. Skipped lines are reported through
// the standard logger.
func Load(path string) (*Map, error) {
	res, err := NewParser(WithLogger(log.Default())).ParseFile(path)
	if err != nil {
		return nil, err
	}
	return res.Map, nil
}

// Save writes m to path, replacing any existing file.
func Save(m *Map, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("quakemap: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("quakemap: close %s: %w", path, cerr)
		}
	}()

	if _, err := m.WriteTo(f); err != nil {
		return fmt.Errorf("quakemap: write %s: %w", path, err)
	}
	return nil
}

// WriteTo writes the map in map format. Entities and brushes are preceded
// by "// entity N" and "// brush N" comments; brush numbers restart in
// every entity. Every brush must have been reconstructed.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	var line []byte

	for en, e := range m.entities {
		bw.WriteString("// entity " + strconv.Itoa(en) + "\n{\n")
		for _, a := range e.attrs {
			bw.WriteString(`"` + a.Key + `" "` + a.Value + `"` + "\n")
		}
		for bn, b := range e.solids {
			bw.WriteString("// brush " + strconv.Itoa(bn) + "\n{\n")
			for fn, f := range b.Faces() {
				var err error
				line, err = f.AppendText(line[:0])
				if err != nil {
					return cw.n, fmt.Errorf("entity %d brush %d face %d: %w", en, bn, fn, err)
				}
				line = append(line, '\n')
				bw.Write(line)
			}
			bw.WriteString("}\n")
		}
		bw.WriteString("}\n")
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// countingWriter tracks the bytes that reached the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
