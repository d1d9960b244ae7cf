package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/brushwork/pkg/linalg"
	"github.com/chazu/brushwork/pkg/quakemap"
)

// dump serializes m so two maps can be compared line for line.
func dump(t *testing.T, m *quakemap.Map) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.String()
}

func TestEvaluateEmptySource(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  "} {
		t.Run(strings.TrimSpace(src), func(t *testing.T) {
			orig := loadTestMap(t)
			want := dump(t, orig)

			out, evalErrs, err := NewEngine().Evaluate(src, orig)
			if err != nil || len(evalErrs) > 0 {
				t.Fatalf("Evaluate: %v %v", evalErrs, err)
			}
			if out == orig {
				t.Fatal("Evaluate returned the input map instead of a copy")
			}
			if got := dump(t, out); got != want {
				t.Errorf("empty script changed the map:\n%s", got)
			}
		})
	}
}

func TestEvaluateNilMap(t *testing.T) {
	out, evalErrs, err := NewEngine().Evaluate(`(new-entity :classname "worldspawn")`, nil)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate: %v %v", evalErrs, err)
	}
	if out.Len() != 1 || out.Entities()[0].ClassName() != "worldspawn" {
		t.Errorf("expected one worldspawn entity, got %d", out.Len())
	}
}

func TestEvaluateReturnsDistinctClone(t *testing.T) {
	orig := loadTestMap(t)
	want := dump(t, orig)

	out, evalErrs, err := NewEngine().Evaluate(`(set-attr (entity 0) :message "edited")`, orig)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate: %v %v", evalErrs, err)
	}
	if got := attr(t, out, 0, "message"); got != "edited" {
		t.Errorf("returned message = %q", got)
	}
	if got := dump(t, orig); got != want {
		t.Errorf("input map changed:\n%s", got)
	}

	for i, e := range out.Entities() {
		if e == orig.Entities()[i] {
			t.Fatalf("entity %d is shared with the input", i)
		}
	}
	// Editing the result must not reach the input either.
	if err := out.Entities()[2].Translate(linalg.Vec{X: 64}); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got := dump(t, orig); got != want {
		t.Errorf("editing the result changed the input:\n%s", got)
	}
}

func TestEvaluateFailureLeavesInput(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"syntax error", `(set-attr (entity 0) :message "x"`},
		{"undefined symbol after edit", "(set-attr (entity 0) :message \"x\")\n(+ 1 undefined_symbol)"},
		{"builtin error after move", "(translate (entity 2) :x 8)\n(entity 99)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := loadTestMap(t)
			want := dump(t, orig)

			out, evalErrs, err := NewEngine().Evaluate(tt.source, orig)
			if err != nil {
				t.Fatalf("expected eval errors, got fatal: %v", err)
			}
			if out != nil {
				t.Error("expected nil map on failure")
			}
			if len(evalErrs) == 0 || evalErrs[0].Message == "" {
				t.Fatalf("expected a populated eval error, got %v", evalErrs)
			}
			if got := dump(t, orig); got != want {
				t.Errorf("input map changed:\n%s", got)
			}
		})
	}
}

func TestEvaluateTimeout(t *testing.T) {
	orig := loadTestMap(t)
	want := dump(t, orig)

	release := make(chan struct{})
	defer close(release)

	eng := NewEngine(WithTimeout(20 * time.Millisecond))
	eng.run = func(source string, m *quakemap.Map) ([]EvalError, error) {
		m.Entities()[0].AddAttribute("message", "half done")
		<-release
		return nil, nil
	}

	out, evalErrs, err := eng.Evaluate("(anything)", orig)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if out != nil || evalErrs != nil {
		t.Errorf("expected nil results on timeout, got %v %v", out, evalErrs)
	}
	if got := dump(t, orig); got != want {
		t.Errorf("input map changed by a timed out script:\n%s", got)
	}
}

func TestEvaluateSuperseded(t *testing.T) {
	orig := loadTestMap(t)
	started := make(chan struct{})
	release := make(chan struct{})

	eng := NewEngine()
	eng.run = func(source string, m *quakemap.Map) ([]EvalError, error) {
		if source == "slow" {
			close(started)
			<-release
		}
		m.Entities()[0].AddAttribute("message", source)
		return nil, nil
	}

	type result struct {
		m   *quakemap.Map
		err error
	}
	slow := make(chan result, 1)
	go func() {
		m, _, err := eng.Evaluate("slow", orig)
		slow <- result{m, err}
	}()
	<-started

	fast, _, err := eng.Evaluate("fast", orig)
	if err != nil {
		t.Fatalf("newer evaluation: %v", err)
	}
	if got := attr(t, fast, 0, "message"); got != "fast" {
		t.Errorf("newer evaluation message = %q", got)
	}

	close(release)
	r := <-slow
	if !errors.Is(r.err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded, got %v", r.err)
	}
	if r.m != nil {
		t.Error("superseded evaluation returned a map")
	}
}

func TestEvaluatePanic(t *testing.T) {
	orig := loadTestMap(t)
	want := dump(t, orig)

	eng := NewEngine()
	eng.run = func(source string, m *quakemap.Map) ([]EvalError, error) {
		m.Entities()[0].AddAttribute("message", "before panic")
		panic("boom")
	}

	out, _, err := eng.Evaluate("(boom)", orig)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic error, got %v", err)
	}
	if out != nil {
		t.Error("expected nil map after panic")
	}
	if got := dump(t, orig); got != want {
		t.Errorf("input map changed by a panicking script:\n%s", got)
	}
}

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, EvalTimeout},
		{-time.Second, EvalTimeout},
		{time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := NewEngine(WithTimeout(tt.in)).timeout; got != tt.want {
			t.Errorf("WithTimeout(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		err  EvalError
		want string
	}{
		{EvalError{Line: 5, Message: "unbalanced"}, "line 5: unbalanced"},
		{EvalError{Message: "no location"}, "no location"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: entity: index 99 out of range", 3, "out of range"},
		{"no line", "  some generic error \n", 0, "some generic error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}
