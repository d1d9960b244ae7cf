package quakemap

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/linalg"
)

// ---------------------------------------------------------------------------
// Line meanings
// ---------------------------------------------------------------------------

// directive is what a single non-blank line means to the parser.
type directive interface {
	isDirective() // marker method restricting implementations to this package
}

// sectionStart is a lone "{".
type sectionStart struct{}

// sectionEnd is a lone "}".
type sectionEnd struct{}

// attributePair is a "key" "value" line.
type attributePair struct {
	key   string
	value string
}

// planeDefinition is one bounding plane of a brush.
type planeDefinition struct {
	def brush.FaceDef
}

// parseFailure is a line that matched nothing.
type parseFailure struct {
	reason string
}

func (sectionStart) isDirective()    {}
func (sectionEnd) isDirective()      {}
func (attributePair) isDirective()   {}
func (planeDefinition) isDirective() {}
func (parseFailure) isDirective()    {}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

const (
	coordPattern = `(-?\d+(?:\.\d+)?)`
	intPattern   = `(-?\d+)`
	floatPattern = `(-?[0-9.]+)`
	pointPattern = `\(\s*` + coordPattern + `\s+` + coordPattern + `\s+` + coordPattern + `\s*\)`
)

// planePattern matches three points, a texture name, x/y offset, rotation,
// x/y scale and the optional content flags, surface flags and value.
var planePattern = regexp.MustCompile(`^` +
	pointPattern + `\s+` + pointPattern + `\s+` + pointPattern +
	`\s+([A-Za-z0-9/_+*-]+)` +
	`\s+` + intPattern + `\s+` + intPattern + `\s+` + intPattern +
	`\s+` + floatPattern + `\s+` + floatPattern +
	`(?:\s+` + intPattern + `\s+` + intPattern + `\s+` + intPattern + `)?$`)

// classifyLine interprets one line of a map file. Blank lines and lines
// starting with // yield nil.
func classifyLine(line string) directive {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return nil
	}
	line = stripComment(line)

	switch {
	case line == "{":
		return sectionStart{}
	case line == "}":
		return sectionEnd{}
	case strings.Count(line, `"`) == 4:
		parts := strings.Split(line, `"`)
		return attributePair{key: parts[1], value: parts[3]}
	}

	m := planePattern.FindStringSubmatch(line)
	if m == nil {
		return parseFailure{}
	}
	def, err := planeFromMatch(m)
	if err != nil {
		return parseFailure{reason: err.Error()}
	}
	return planeDefinition{def: def}
}

// stripComment removes a trailing // comment that is not inside quotes.
func stripComment(line string) string {
	quoted := false
	for i := 0; i+1 < len(line); i++ {
		switch {
		case line[i] == '"':
			quoted = !quoted
		case !quoted && line[i] == '/' && line[i+1] == '/':
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}

// planeFromMatch converts the submatches of planePattern into a FaceDef.
func planeFromMatch(m []string) (brush.FaceDef, error) {
	var def brush.FaceDef
	for p := 0; p < 3; p++ {
		var xyz [3]float64
		for c := 0; c < 3; c++ {
			v, err := strconv.ParseFloat(m[1+p*3+c], 64)
			if err != nil {
				return def, err
			}
			xyz[c] = v
		}
		def.Points[p] = linalg.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}
	def.Texture = m[10]

	for _, s := range m[11:14] {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return def, err
		}
		def.Properties = append(def.Properties, brush.IntProperty(v))
	}
	for _, s := range m[14:16] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def, err
		}
		def.Properties = append(def.Properties, brush.FloatProperty(v))
	}
	if m[16] != "" {
		for _, s := range m[16:19] {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return def, err
			}
			def.Properties = append(def.Properties, brush.IntProperty(v))
		}
	}
	return def, nil
}
