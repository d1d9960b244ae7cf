package brush

import (
	"math"
	"strconv"

	"github.com/chazu/brushwork/pkg/linalg"
)

// PropertyKind records whether a surface property was read as an integer or a float.
type PropertyKind int

const (
	PropInt PropertyKind = iota
	PropFloat
)

func (k PropertyKind) String() string {
	switch k {
	case PropInt:
		return "int"
	case PropFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Property is one numeric surface attribute of a face (offset, rotation,
// scale, content flags, surface flags, value). The values are opaque to
// reconstruction and are written back as read.
type Property struct {
	Kind  PropertyKind
	Int   int64
	Float float64
}

// IntProperty returns an integer property.
func IntProperty(v int64) Property {
	return Property{Kind: PropInt, Int: v}
}

// FloatProperty returns a floating point property.
func FloatProperty(v float64) Property {
	return Property{Kind: PropFloat, Float: v}
}

// Value returns the property as a float64 regardless of kind.
func (p Property) Value() float64 {
	if p.Kind == PropInt {
		return float64(p.Int)
	}
	return p.Float
}

// IsWhole reports whether the value is numerically an integer.
func (p Property) IsWhole() bool {
	if p.Kind == PropInt {
		return true
	}
	return p.Float == math.Trunc(p.Float) && !math.IsInf(p.Float, 0)
}

// String renders whole values in integer form and anything else as a float.
func (p Property) String() string {
	if p.Kind == PropInt {
		return strconv.FormatInt(p.Int, 10)
	}
	if p.IsWhole() {
		return formatWhole(p.Float)
	}
	return strconv.FormatFloat(p.Float, 'f', -1, 64)
}

// formatCoord renders a vertex coordinate. Values within EpsilonDistance
// of an integer are written as that integer; the rest keep six decimals
// at most.
func formatCoord(f float64) string {
	r := math.Round(f)
	if math.Abs(f-r) < linalg.EpsilonDistance {
		return formatWhole(r)
	}
	return strconv.FormatFloat(math.Round(f*1e6)/1e6, 'f', -1, 64)
}

// formatWhole writes an integral float without a fraction or exponent.
// Negative zero is written as 0.
func formatWhole(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}
