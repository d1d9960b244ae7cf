package quakemap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOpenSolid is returned when a bounding plane is added, or a brush
	// finalized, on an entity with no brush.
	ErrNoOpenSolid = errors.New("no open brush")
	// ErrUnmatchedClose is a closing brace outside any entity.
	ErrUnmatchedClose = errors.New("closing brace without an open entity")
	// ErrMisplacedAttribute is a key/value line outside an entity body.
	ErrMisplacedAttribute = errors.New("attribute outside an entity body")
	// ErrUnclosedSection means the input ended inside an entity or brush.
	ErrUnclosedSection = errors.New("unexpected end of input inside an entity or brush")
	// ErrInvalidAttribute is a key or value holding a double quote or a
	// line break, which the map format cannot represent.
	ErrInvalidAttribute = errors.New("attribute contains a quote or line break")
)

// ParseError is a line that matched none of the known forms. It is
// reported and skipped; parsing continues.
type ParseError struct {
	Line    int
	Content string
	Reason  string
}

func (e ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d %q could not be parsed: %s", e.Line, e.Content, e.Reason)
	}
	return fmt.Sprintf("line %d %q could not be parsed", e.Line, e.Content)
}

// StructuralError is a fatal problem with the nesting of the file or the
// geometry of a brush. Err holds the cause.
type StructuralError struct {
	Line    int
	Content string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Content == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Content, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}
