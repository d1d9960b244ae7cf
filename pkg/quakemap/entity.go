package quakemap

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/linalg"
)

// Attribute is one "key" "value" pair of an entity.
type Attribute struct {
	Key   string
	Value string
}

// Entity is an object in the level: ordered attributes and zero or more
// brushes.
type Entity struct {
	attrs  []Attribute
	index  map[string]int
	solids []*brush.Brush
}

// NewEntity returns an entity with no attributes and no brushes.
func NewEntity() *Entity {
	return &Entity{index: make(map[string]int)}
}

// AddAttribute sets key to value. A repeated key overwrites the value but
// keeps the position of its first appearance. Keys and values containing
// a double quote or a line break are rejected with ErrInvalidAttribute.
func (e *Entity) AddAttribute(key, value string) error {
	if err := checkAttribute(key, value); err != nil {
		return err
	}
	if i, ok := e.index[key]; ok {
		e.attrs[i].Value = value
		return nil
	}
	e.index[key] = len(e.attrs)
	e.attrs = append(e.attrs, Attribute{Key: key, Value: value})
	return nil
}

func checkAttribute(key, value string) error {
	if strings.ContainsAny(key, "\"\r\n") {
		return fmt.Errorf("key %q: %w", key, ErrInvalidAttribute)
	}
	if strings.ContainsAny(value, "\"\r\n") {
		return fmt.Errorf("%s value %q: %w", key, value, ErrInvalidAttribute)
	}
	return nil
}

// Attribute returns the value stored under key.
func (e *Entity) Attribute(key string) (string, bool) {
	i, ok := e.index[key]
	if !ok {
		return "", false
	}
	return e.attrs[i].Value, true
}

// Attributes returns the attributes in insertion order.
func (e *Entity) Attributes() []Attribute {
	return slices.Clone(e.attrs)
}

// ClassName returns the "classname" attribute, or "".
func (e *Entity) ClassName() string {
	v, _ := e.Attribute("classname")
	return v
}

// NewSolid opens a new, empty brush. Planes added afterwards go to it.
func (e *Entity) NewSolid() {
	e.solids = append(e.solids, brush.New())
}

// AddBoundingPlane appends a plane to the most recently opened brush.
func (e *Entity) AddBoundingPlane(def brush.FaceDef) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.AddFace(def)
}

// FinalizeSolid reconstructs the face polygons of the most recently
// opened brush.
func (e *Entity) FinalizeSolid() error {
	b, err := e.current()
	if err != nil {
		return err
	}
	if err := b.Reconstruct(); err != nil {
		return fmt.Errorf("brush %d: %w", len(e.solids)-1, err)
	}
	return nil
}

func (e *Entity) current() (*brush.Brush, error) {
	if len(e.solids) == 0 {
		return nil, ErrNoOpenSolid
	}
	return e.solids[len(e.solids)-1], nil
}

// Solids returns the brushes in the order they were opened.
func (e *Entity) Solids() []*brush.Brush {
	return slices.Clone(e.solids)
}

// Translate moves every brush of the entity by offset. An "origin"
// attribute holding three numbers is shifted as well, so point entities
// move too.
// On error the entity is left unchanged.
func (e *Entity) Translate(offset linalg.Vec) error {
	moved := make([]*brush.Brush, len(e.solids))
	for n, b := range e.solids {
		c := b.Clone()
		if err := c.Translate(offset); err != nil {
			return fmt.Errorf("brush %d: %w", n, err)
		}
		moved[n] = c
	}
	copy(e.solids, moved)
	if v, ok := e.Attribute("origin"); ok {
		if o, ok := parseOrigin(v); ok {
			o = o.Add(offset)
			e.attrs[e.index["origin"]].Value = fmt.Sprintf("%s %s %s",
				brush.FloatProperty(o.X), brush.FloatProperty(o.Y), brush.FloatProperty(o.Z))
		}
	}
	return nil
}

// parseOrigin reads an "x y z" attribute value.
func parseOrigin(s string) (linalg.Vec, bool) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return linalg.Vec{}, false
	}
	var xyz [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return linalg.Vec{}, false
		}
		xyz[i] = v
	}
	return linalg.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, true
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		attrs:  slices.Clone(e.attrs),
		index:  make(map[string]int, len(e.index)),
		solids: make([]*brush.Brush, len(e.solids)),
	}
	for k, v := range e.index {
		c.index[k] = v
	}
	for i, b := range e.solids {
		c.solids[i] = b.Clone()
	}
	return c
}
