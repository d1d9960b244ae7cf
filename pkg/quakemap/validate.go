package quakemap

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/linalg"
)

// MaxCoordinate is the largest absolute coordinate the game engine accepts.
const MaxCoordinate = 4096

// ValidationSeverity indicates whether a finding makes the map unusable
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // map cannot be written or compiled
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Brush is -1 for
// findings about the entity itself; Entity is -1 for map-level findings.
type ValidationError struct {
	Entity   int
	Brush    int
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.Entity < 0:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	case e.Brush < 0:
		return fmt.Sprintf("[%s] entity %d: %s", e.Severity, e.Entity, e.Message)
	default:
		return fmt.Sprintf("[%s] entity %d brush %d: %s", e.Severity, e.Entity, e.Brush, e.Message)
	}
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks a loaded map for problems the parser does not reject.
// It never mutates the map.
func Validate(m *Map) ValidationResult {
	var findings []ValidationError
	findings = append(findings, validateWorldspawn(m)...)
	findings = append(findings, validateClassNames(m)...)
	findings = append(findings, validateBrushes(m)...)

	var r ValidationResult
	for _, f := range findings {
		if f.Severity == SeverityError {
			r.Errors = append(r.Errors, f)
		} else {
			r.Warnings = append(r.Warnings, f)
		}
	}
	return r
}

// validateWorldspawn checks that the map starts with the world entity.
func validateWorldspawn(m *Map) []ValidationError {
	if len(m.entities) == 0 {
		return []ValidationError{{
			Entity:   -1,
			Brush:    -1,
			Message:  "map has no entities",
			Severity: SeverityWarning,
		}}
	}
	if cn := m.entities[0].ClassName(); cn != "worldspawn" {
		return []ValidationError{{
			Entity:   0,
			Brush:    -1,
			Message:  fmt.Sprintf("first entity is %q, expected worldspawn", cn),
			Severity: SeverityWarning,
		}}
	}
	return nil
}

// validateClassNames checks that every entity names its class.
func validateClassNames(m *Map) []ValidationError {
	var errs []ValidationError
	for i, e := range m.entities {
		if e.ClassName() == "" {
			errs = append(errs, ValidationError{
				Entity:   i,
				Brush:    -1,
				Message:  "missing classname",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateBrushes checks the geometry of every brush.
func validateBrushes(m *Map) []ValidationError {
	var errs []ValidationError
	for en, e := range m.entities {
		for bn, b := range e.solids {
			add := func(sev ValidationSeverity, format string, args ...any) {
				errs = append(errs, ValidationError{
					Entity:   en,
					Brush:    bn,
					Message:  fmt.Sprintf(format, args...),
					Severity: sev,
				})
			}

			if !b.Reconstructed() {
				add(SeverityError, "brush has not been reconstructed")
				continue
			}

			box, err := b.Bounds()
			if err != nil {
				add(SeverityError, "bounds: %v", err)
				continue
			}
			size := box.Max.Sub(box.Min)
			if size.X < linalg.EpsilonDistance || size.Y < linalg.EpsilonDistance || size.Z < linalg.EpsilonDistance {
				add(SeverityError, "brush has zero extent (%.4f x %.4f x %.4f)", size.X, size.Y, size.Z)
			}
			for _, c := range []float64{box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z} {
				if math.Abs(c) > MaxCoordinate {
					add(SeverityWarning, "brush extends beyond ±%d", MaxCoordinate)
					break
				}
			}

			faces := b.Faces()
			for i, f := range faces {
				if f.Texture() == "" {
					add(SeverityWarning, "face %d has no texture", i)
				}
				for j := i + 1; j < len(faces); j++ {
					if f.Plane().Coincident(faces[j].Plane()) {
						add(SeverityWarning, "faces %d and %d share a plane", i, j)
					}
				}
			}
		}
	}
	return errs
}
