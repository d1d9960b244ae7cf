package quakemap

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/linalg"
)

func TestWriteToFormat(t *testing.T) {
	res := mustParse(t, "{\n\"classname\" \"worldspawn\"\n"+boxBrush+"}\n")

	var buf bytes.Buffer
	n, err := res.Map.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	wantPrefix := []string{"// entity 0", "{", `"classname" "worldspawn"`, "// brush 0", "{"}
	for i, want := range wantPrefix {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
	if len(lines) != len(wantPrefix)+6+2 {
		t.Fatalf("expected %d lines, got %d:\n%s", len(wantPrefix)+8, len(lines), buf.String())
	}
	for _, l := range lines[5:11] {
		if !strings.HasPrefix(l, "( ") || !strings.HasSuffix(l, " 0 0 0 1 1") {
			t.Errorf("unexpected face line %q", l)
		}
	}
	if lines[11] != "}" || lines[12] != "}" {
		t.Errorf("closing braces = %q %q", lines[11], lines[12])
	}
}

func TestRoundTrip(t *testing.T) {
	first := mustParse(t, sampleMap).Map

	var out1 bytes.Buffer
	if _, err := first.WriteTo(&out1); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	second := mustParse(t, out1.String()).Map

	if first.Len() != second.Len() {
		t.Fatalf("entity count %d != %d", first.Len(), second.Len())
	}
	for en, e1 := range first.Entities() {
		e2 := second.Entities()[en]
		a1, a2 := e1.Attributes(), e2.Attributes()
		if len(a1) != len(a2) {
			t.Fatalf("entity %d: attributes %v != %v", en, a1, a2)
		}
		for i := range a1 {
			if a1[i] != a2[i] {
				t.Errorf("entity %d attribute %d: %+v != %+v", en, i, a1[i], a2[i])
			}
		}

		s1, s2 := e1.Solids(), e2.Solids()
		if len(s1) != len(s2) {
			t.Fatalf("entity %d: brush count %d != %d", en, len(s1), len(s2))
		}
		for bn := range s1 {
			f1, f2 := s1[bn].Faces(), s2[bn].Faces()
			if len(f1) != len(f2) {
				t.Fatalf("brush %d: face count %d != %d", bn, len(f1), len(f2))
			}
			for fn := range f1 {
				if !f1[fn].Plane().Coincident(f2[fn].Plane()) {
					t.Errorf("brush %d face %d: plane %v != %v", bn, fn, f1[fn].Plane(), f2[fn].Plane())
				}
				if f1[fn].Texture() != f2[fn].Texture() {
					t.Errorf("brush %d face %d: texture %q != %q", bn, fn, f1[fn].Texture(), f2[fn].Texture())
				}
				if f1[fn].NumVertices() != f2[fn].NumVertices() {
					t.Errorf("brush %d face %d: %d vertices != %d", bn, fn, f1[fn].NumVertices(), f2[fn].NumVertices())
				}
			}
		}
	}

	var out2 bytes.Buffer
	if _, err := second.WriteTo(&out2); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if out1.String() != out2.String() {
		t.Errorf("second write differs:\n%s\n---\n%s", out1.String(), out2.String())
	}
}

func TestSaveLoad(t *testing.T) {
	m := mustParse(t, sampleMap).Map
	path := filepath.Join(t.TempDir(), "out.map")

	if err := Save(m, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != m.Len() || loaded.BrushCount() != m.BrushCount() {
		t.Errorf("loaded %d entities %d brushes, want %d %d",
			loaded.Len(), loaded.BrushCount(), m.Len(), m.BrushCount())
	}
}

func TestWriteToUnreconstructed(t *testing.T) {
	e := NewEntity()
	e.AddAttribute("classname", "worldspawn")
	e.NewSolid()
	err := e.AddBoundingPlane(brush.FaceDef{
		Points:  [3]linalg.Vec{{}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Texture: "base/wall",
	})
	if err != nil {
		t.Fatalf("AddBoundingPlane: %v", err)
	}
	m := NewMap()
	m.AddEntity(e)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); !errors.Is(err, brush.ErrNotReconstructed) {
		t.Errorf("expected ErrNotReconstructed, got %v", err)
	}
}

func TestMapClone(t *testing.T) {
	m := mustParse(t, sampleMap).Map
	c := m.Clone()

	c.Entities()[0].AddAttribute("message", "changed")
	if err := c.Entities()[0].Translate(linalg.Vec{X: 16}); err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if _, ok := m.Entities()[0].Attribute("message"); ok {
		t.Error("attribute change leaked into the original")
	}
	box, err := m.Entities()[0].Solids()[0].Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if box.Min.X != 0 {
		t.Errorf("original brush moved to %v", box.Min)
	}
}

func TestEntityTranslate(t *testing.T) {
	m := mustParse(t, sampleMap).Map
	world, player := m.Entities()[0], m.Entities()[1]
	offset := linalg.Vec{X: 8, Y: -8, Z: 0.5}

	if err := world.Translate(offset); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	box, err := world.Solids()[0].Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if box.Min != (linalg.Vec{X: 8, Y: -8, Z: 0.5}) || box.Max != (linalg.Vec{X: 72, Y: 56, Z: 64.5}) {
		t.Errorf("bounds after translate = %v", box)
	}

	if err := player.Translate(offset); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got, _ := player.Attribute("origin"); got != "40 24 24.5" {
		t.Errorf("origin = %q", got)
	}
}

func TestEntityTranslateFailureLeavesEntity(t *testing.T) {
	e := mustParse(t, "{\n\"classname\" \"func_wall\"\n\"origin\" \"8 8 8\"\n"+boxBrush+"}\n").Map.Entities()[0]
	// A second brush with a single plane cannot be reconstructed anywhere.
	e.NewSolid()
	if err := e.AddBoundingPlane(brush.FaceDef{
		Points:  [3]linalg.Vec{{}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Texture: "base/wall",
	}); err != nil {
		t.Fatalf("AddBoundingPlane: %v", err)
	}

	if err := e.Translate(linalg.Vec{X: 32}); err == nil {
		t.Fatal("Translate succeeded with an unreconstructable brush")
	}
	box, err := e.Solids()[0].Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if box.Min != (linalg.Vec{}) {
		t.Errorf("first brush moved to %v", box.Min)
	}
	if got, _ := e.Attribute("origin"); got != "8 8 8" {
		t.Errorf("origin = %q after failed translate", got)
	}
}

func TestAddAttributeRejectsUnwritable(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"quote in value", "message", `say "hi"`},
		{"newline in value", "message", "two\nlines"},
		{"carriage return in value", "message", "a\rb"},
		{"quote in key", `mess"age`, "hi"},
		{"newline in key", "mess\nage", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntity()
			e.AddAttribute("message", "before")
			if err := e.AddAttribute(tt.key, tt.value); !errors.Is(err, ErrInvalidAttribute) {
				t.Fatalf("expected ErrInvalidAttribute, got %v", err)
			}
			if got, _ := e.Attribute("message"); got != "before" {
				t.Errorf("message = %q, want unchanged", got)
			}
			if len(e.Attributes()) != 1 {
				t.Errorf("rejected attribute was stored: %v", e.Attributes())
			}
		})
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	m := mustParse(t, "{\n\"classname\" \"worldspawn\"\n"+boxBrush+"}\n").Map
	world := m.Entities()[0]
	values := map[string]string{
		"message": "it's a trap // not a comment",
		"url":     "http://example.com/maps",
		"_tab":    "a\tb",
	}
	for k, v := range values {
		if err := world.AddAttribute(k, v); err != nil {
			t.Fatalf("AddAttribute(%q): %v", k, err)
		}
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	res := mustParse(t, buf.String())
	if len(res.Errors) != 0 {
		t.Fatalf("reparse skipped lines: %v", res.Errors)
	}
	got := res.Map.Entities()[0]
	for k, want := range values {
		if v, ok := got.Attribute(k); !ok || v != want {
			t.Errorf("%s = %q, %v; want %q", k, v, ok, want)
		}
	}
}
