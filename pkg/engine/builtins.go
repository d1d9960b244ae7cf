package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/linalg"
	"github.com/chazu/brushwork/pkg/quakemap"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source before passing it to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: find-entity -> find_entity
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpEntity refers to an entity of the map being edited.
type sexpEntity struct {
	e     *quakemap.Entity
	index int
}

func (s *sexpEntity) SexpString(ps *zygo.PrintState) string {
	if cn := s.e.ClassName(); cn != "" {
		return fmt.Sprintf("(entity %d %q)", s.index, cn)
	}
	return fmt.Sprintf("(entity %d)", s.index)
}
func (s *sexpEntity) Type() *zygo.RegisteredType { return nil }

// sexpBrush refers to one brush of an entity.
type sexpBrush struct {
	b     *brush.Brush
	index int
}

func (s *sexpBrush) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(brush %d :faces %d)", s.index, s.b.Len())
}
func (s *sexpBrush) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toEntity extracts the entity behind a sexpEntity.
func toEntity(s zygo.Sexp) (*quakemap.Entity, error) {
	if ref, ok := s.(*sexpEntity); ok {
		return ref.e, nil
	}
	return nil, fmt.Errorf("expected entity, got %T (%s)", s, s.SexpString(nil))
}

// toAttrValue renders a string or number as an attribute value. Whole
// numbers are written without a fraction.
func toAttrValue(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return v.S, nil
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, err := toFloat64(v)
		if err != nil {
			return "", err
		}
		return brush.FloatProperty(f).String(), nil
	}
	return "", fmt.Errorf("expected string or number, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the map builtins into a zygomys environment.
// The builtins read and edit m during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, m *quakemap.Map) {
	s := &session{m: m}

	env.AddFunction("entity_count", s.entityCount)
	env.AddFunction("brush_count", s.brushCount)
	env.AddFunction("entity", s.entity)
	env.AddFunction("find_entity", s.findEntity)
	env.AddFunction("new_entity", s.newEntity)
	env.AddFunction("get_attr", s.getAttr)
	env.AddFunction("set_attr", s.setAttr)
	env.AddFunction("classname", s.classname)
	env.AddFunction("entity_brushes", s.entityBrushes)
	env.AddFunction("translate", s.translate)
}

// session holds the map a single evaluation edits.
type session struct {
	m *quakemap.Map
}

// ref wraps the entity at index i.
func (s *session) ref(i int) *sexpEntity {
	return &sexpEntity{e: s.m.Entities()[i], index: i}
}

// -----------------------------------------------------------------------
// (entity-count)
// -----------------------------------------------------------------------
func (s *session) entityCount(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	return &zygo.SexpInt{Val: int64(s.m.Len())}, nil
}

// -----------------------------------------------------------------------
// (brush-count)
// -----------------------------------------------------------------------
func (s *session) brushCount(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	return &zygo.SexpInt{Val: int64(s.m.BrushCount())}, nil
}

// -----------------------------------------------------------------------
// (entity 0)
// -----------------------------------------------------------------------
func (s *session) entity(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("entity requires an index argument")
	}
	f, err := toFloat64(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("entity: index: %w", err)
	}
	i := int(f)
	if float64(i) != f || i < 0 || i >= s.m.Len() {
		return zygo.SexpNull, fmt.Errorf("entity: index %v out of range [0, %d)", f, s.m.Len())
	}
	return s.ref(i), nil
}

// -----------------------------------------------------------------------
// (find-entity :classname "info_player_start")
//
// Returns the first entity whose attributes match every keyword, or nil.
// -----------------------------------------------------------------------
func (s *session) findEntity(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.kw) == 0 {
		return zygo.SexpNull, fmt.Errorf("find-entity requires at least one :key value pair")
	}
	want := make(map[string]string, len(pa.kw))
	for k, v := range pa.kw {
		str, err := toAttrValue(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("find-entity: %s: %w", k, err)
		}
		want[k] = str
	}

	for i, e := range s.m.Entities() {
		match := true
		for k, v := range want {
			if got, ok := e.Attribute(k); !ok || got != v {
				match = false
				break
			}
		}
		if match {
			return s.ref(i), nil
		}
	}
	return zygo.SexpNull, nil
}

// -----------------------------------------------------------------------
// (new-entity :classname "light" :origin "0 0 64" :light 300)
//
// Appends an entity with the given attributes, in argument order.
// -----------------------------------------------------------------------
func (s *session) newEntity(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	e := quakemap.NewEntity()
	for i := 0; i < len(args); i += 2 {
		key, ok := isKW(args[i])
		if !ok {
			return zygo.SexpNull, fmt.Errorf("new-entity: argument %d: expected keyword, got %s", i, args[i].SexpString(nil))
		}
		if i+1 >= len(args) {
			return zygo.SexpNull, fmt.Errorf("new-entity: %s: missing value", key)
		}
		v, err := toAttrValue(args[i+1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("new-entity: %s: %w", key, err)
		}
		if err := e.AddAttribute(key, v); err != nil {
			return zygo.SexpNull, fmt.Errorf("new-entity: %w", err)
		}
	}
	s.m.AddEntity(e)
	return s.ref(s.m.Len() - 1), nil
}

// -----------------------------------------------------------------------
// (get-attr e "origin") or (get-attr e :origin)
// -----------------------------------------------------------------------
func (s *session) getAttr(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("get-attr requires an entity and a key")
	}
	e, err := toEntity(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("get-attr: %w", err)
	}
	key, err := toKeywordString(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("get-attr: key: %w", err)
	}
	v, ok := e.Attribute(key)
	if !ok {
		return zygo.SexpNull, nil
	}
	return &zygo.SexpStr{S: v}, nil
}

// -----------------------------------------------------------------------
// (set-attr e "message" "hello") or (set-attr e :light 200)
// -----------------------------------------------------------------------
func (s *session) setAttr(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("set-attr requires an entity, a key and a value")
	}
	e, err := toEntity(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: %w", err)
	}
	key, err := toKeywordString(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: key: %w", err)
	}
	v, err := toAttrValue(args[2])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: %s: %w", key, err)
	}
	if err := e.AddAttribute(key, v); err != nil {
		return zygo.SexpNull, fmt.Errorf("set-attr: %w", err)
	}
	return args[0], nil
}

// -----------------------------------------------------------------------
// (classname e)
// -----------------------------------------------------------------------
func (s *session) classname(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("classname requires an entity argument")
	}
	e, err := toEntity(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("classname: %w", err)
	}
	return &zygo.SexpStr{S: e.ClassName()}, nil
}

// -----------------------------------------------------------------------
// (entity-brushes e)
// -----------------------------------------------------------------------
func (s *session) entityBrushes(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("entity-brushes requires an entity argument")
	}
	e, err := toEntity(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("entity-brushes: %w", err)
	}
	var out []zygo.Sexp
	for i, b := range e.Solids() {
		out = append(out, &sexpBrush{b: b, index: i})
	}
	return zygo.MakeList(out), nil
}

// -----------------------------------------------------------------------
// (translate e :x 16 :y 0 :z -8) or (translate e (list 16 0 -8))
//
// Moves every brush of the entity and its origin attribute.
// -----------------------------------------------------------------------
func (s *session) translate(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("translate requires an entity as first argument")
	}
	e, err := toEntity(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("translate: %w", err)
	}

	var xyz [3]float64
	if len(pa.positional) > 1 {
		items, err := sexpListToSlice(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
		}
		if len(items) != 3 {
			return zygo.SexpNull, fmt.Errorf("translate: offset needs 3 components, got %d", len(items))
		}
		for i, item := range items {
			if xyz[i], err = toFloat64(item); err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: offset %d: %w", i, err)
			}
		}
	}
	for i, axis := range []string{"x", "y", "z"} {
		v, ok := pa.kw[axis]
		if !ok {
			continue
		}
		if xyz[i], err = toFloat64(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %s: %w", axis, err)
		}
	}

	if err := e.Translate(linalg.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}); err != nil {
		return zygo.SexpNull, fmt.Errorf("translate: %w", err)
	}
	return pa.positional[0], nil
}
