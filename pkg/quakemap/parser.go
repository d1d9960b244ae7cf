package quakemap

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// maxLineLength bounds a single line of input.
const maxLineLength = 1 << 20

// utf8BOM is stripped from the start of the first line.
const utf8BOM = "\ufeff"

// state is the position of the parser in the entity/brush nesting.
type state int

const (
	awaitingEntity state = iota
	inEntity
	inSolid
)

func (s state) String() string {
	switch s {
	case awaitingEntity:
		return "awaiting entity"
	case inEntity:
		return "in entity"
	case inSolid:
		return "in brush"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of a successful parse.
type Result struct {
	Map      *Map
	Errors   []ParseError // lines that were skipped
	Entities int          // entities closed
	Brushes  int          // brushes closed and reconstructed
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger reports skipped lines to l. A nil logger disables reporting.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// Parser reads map text line by line.
type Parser struct {
	logger *log.Logger
}

// NewParser returns a parser configured by opts. By default nothing is logged.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile opens path and parses it. The file is closed before returning.
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("quakemap: open %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("quakemap: %s: %w", path, err)
	}
	return res, nil
}

// Parse reads a whole map from r.
//
// Lines that match no known form are collected in Result.Errors and
// skipped. Misplaced braces, attributes or planes, brushes that fail
// reconstruction, and input ending inside an entity or brush abort the
// parse with a *StructuralError.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	res := &Result{Map: NewMap()}
	st := awaitingEntity
	var cur *Entity
	lineNo := 0

	for sc.Scan() {
		lineNo++
		text := sc.Text()
		if lineNo == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}
		line := strings.TrimSpace(text)

		switch d := classifyLine(line).(type) {
		case nil:
			continue

		case parseFailure:
			p.skip(res, ParseError{Line: lineNo, Content: line, Reason: d.reason})

		case sectionStart:
			switch st {
			case awaitingEntity:
				cur = NewEntity()
				st = inEntity
			case inEntity:
				cur.NewSolid()
				st = inSolid
			case inSolid:
				p.skip(res, ParseError{Line: lineNo, Content: line, Reason: "brace inside a brush"})
			}

		case sectionEnd:
			switch st {
			case awaitingEntity:
				return nil, &StructuralError{Line: lineNo, Content: line, Err: ErrUnmatchedClose}
			case inEntity:
				res.Map.AddEntity(cur)
				res.Entities++
				cur = nil
				st = awaitingEntity
			case inSolid:
				if err := cur.FinalizeSolid(); err != nil {
					return nil, &StructuralError{Line: lineNo, Content: line, Err: err}
				}
				res.Brushes++
				st = inEntity
			}

		case attributePair:
			if st != inEntity {
				return nil, &StructuralError{Line: lineNo, Content: line, Err: ErrMisplacedAttribute}
			}
			if err := cur.AddAttribute(d.key, d.value); err != nil {
				p.skip(res, ParseError{Line: lineNo, Content: line, Reason: err.Error()})
			}

		case planeDefinition:
			if st != inSolid {
				return nil, &StructuralError{Line: lineNo, Content: line, Err: ErrNoOpenSolid}
			}
			if err := cur.AddBoundingPlane(d.def); err != nil {
				return nil, &StructuralError{Line: lineNo, Content: line, Err: err}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	if st != awaitingEntity {
		return nil, &StructuralError{Line: lineNo, Err: fmt.Errorf("%w (%s)", ErrUnclosedSection, st)}
	}
	return res, nil
}

// skip records a non-fatal line error.
func (p *Parser) skip(res *Result, e ParseError) {
	res.Errors = append(res.Errors, e)
	if p.logger != nil {
		p.logger.Print(e.Error())
	}
}
