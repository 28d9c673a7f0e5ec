// # internal/engine/syntax/parser.go
package syntax

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ErrorKind string

const (
	LexerError  ErrorKind = "lexer"
	ParserError ErrorKind = "parser"
)

// Error is a positioned lexer or parser diagnostic.
type Error struct {
	Kind    ErrorKind
	Message string
	Loc     Range
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error at line %d: %s", e.Kind, e.Loc.Start.Line, e.Message)
}

func (e *Error) Range() Range {
	return e.Loc
}

var (
	identPathRe    = regexp.MustCompile(`^[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*$`)
	assignmentRe   = regexp.MustCompile(`^([A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*)\s*=(.*)$`)
	importRe       = regexp.MustCompile(`^([A-Za-z_]\w*)\s+from\s+(.+)$`)
	nativeImportRe = regexp.MustCompile(`^import_code\s*\((.*)\)$`)
	functionRe     = regexp.MustCompile(`^function\s*(?:\(([^)]*)\))?$`)
	opensBlockRe   = regexp.MustCompile(`(?:^|[^\w.])function\s*(?:\([^)]*\))?$`)
	keywordRe      = regexp.MustCompile(`^(?:if|else|end|for|while|return|break|continue)\b`)
	callRe         = regexp.MustCompile(`^[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*\s*(?:\(.*\))?$`)
)

// Parser turns script text into a Chunk. It keeps no state between calls and
// is safe for concurrent use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseLenient parses the whole text, skipping statements it cannot read and
// recording a diagnostic for each of them.
func (p *Parser) ParseLenient(text string) (*Chunk, []error) {
	st := newParseState(text, false)
	st.run()
	return st.chunk, st.errs
}

// ParseStrict fails on the first diagnostic.
func (p *Parser) ParseStrict(text string) (*Chunk, error) {
	st := newParseState(text, true)
	st.run()
	if len(st.errs) > 0 {
		return nil, st.errs[0]
	}
	return st.chunk, nil
}

type parseState struct {
	lines  []string
	strict bool
	depth  int
	chunk  *Chunk
	errs   []error
}

func newParseState(text string, strict bool) *parseState {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	return &parseState{
		lines:  lines,
		strict: strict,
		chunk: &Chunk{
			Start: Position{Line: 1, Character: 1},
			End:   Position{Line: len(lines), Character: len(last) + 1},
		},
	}
}

func (s *parseState) run() {
	var blockStart Range
	for i, raw := range s.lines {
		if s.strict && len(s.errs) > 0 {
			return
		}

		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		loc := Range{
			Start: Position{Line: i + 1, Character: indent + 1},
			End:   Position{Line: i + 1, Character: len(raw) + 1},
		}

		if s.depth > 0 {
			switch {
			case line == "end function":
				s.depth--
			case opensBlock(line):
				s.depth++
			}
			continue
		}

		if line == "end function" {
			s.fail(ParserError, "unexpected 'end function'", loc)
			continue
		}

		if node := s.statement(line, loc); node != nil {
			s.chunk.Body = append(s.chunk.Body, node)
			if s.depth > 0 {
				blockStart = loc
			}
		}
	}

	if s.depth > 0 {
		s.fail(ParserError, "missing 'end function'", blockStart)
	}
}

func (s *parseState) fail(kind ErrorKind, msg string, loc Range) {
	s.errs = append(s.errs, &Error{Kind: kind, Message: msg, Loc: loc})
}

func (s *parseState) statement(line string, loc Range) Node {
	switch {
	case strings.HasPrefix(line, "#include"):
		path, ok := s.stringLiteral(strings.TrimSpace(line[len("#include"):]), loc)
		if !ok {
			return nil
		}
		node := &Include{Path: path, Loc: loc}
		s.chunk.Includes = append(s.chunk.Includes, node)
		return node

	case strings.HasPrefix(line, "#import"):
		rest := strings.TrimSpace(line[len("#import"):])
		node := &Import{Loc: loc}
		if m := importRe.FindStringSubmatch(rest); m != nil {
			node.Name = m[1]
			rest = strings.TrimSpace(m[2])
		}
		path, ok := s.stringLiteral(rest, loc)
		if !ok {
			return nil
		}
		node.Path = path
		s.chunk.Imports = append(s.chunk.Imports, node)
		return node

	case nativeImportRe.MatchString(line):
		m := nativeImportRe.FindStringSubmatch(line)
		dir, ok := s.stringLiteral(strings.TrimSpace(m[1]), loc)
		if !ok {
			return nil
		}
		node := &NativeImport{Directory: dir, Loc: loc}
		s.chunk.NativeImports = append(s.chunk.NativeImports, node)
		return node
	}

	if m := assignmentRe.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[2], "=") {
		value, ok := s.value(strings.TrimSpace(m[2]), loc)
		if !ok {
			return nil
		}
		return &Assignment{Target: m[1], Value: value, Loc: loc}
	}

	if keywordRe.MatchString(line) || callRe.MatchString(line) {
		return &Expression{Text: line, Loc: loc}
	}

	s.fail(ParserError, fmt.Sprintf("unexpected statement %q", line), loc)
	return nil
}

func (s *parseState) stringLiteral(text string, loc Range) (string, bool) {
	if !strings.HasPrefix(text, `"`) {
		s.fail(ParserError, "expected string literal", loc)
		return "", false
	}
	end := closingQuote(text)
	if end < 0 {
		s.fail(LexerError, "unterminated string literal", loc)
		return "", false
	}
	if end != len(text)-1 {
		s.fail(ParserError, "unexpected input after string literal", loc)
		return "", false
	}
	return strings.ReplaceAll(text[1:end], `""`, `"`), true
}

func (s *parseState) value(text string, loc Range) (Value, bool) {
	v := Value{Text: text}
	switch {
	case text == "":
		s.fail(ParserError, "expected value", loc)
		return v, false
	case strings.HasPrefix(text, `"`):
		end := closingQuote(text)
		if end < 0 {
			s.fail(LexerError, "unterminated string literal", loc)
			return v, false
		}
		if end == len(text)-1 {
			v.Kind = ValueString
		}
	case text == "null":
		v.Kind = ValueNull
	case text == "true" || text == "false":
		v.Kind = ValueNumber
	case isNumber(text):
		v.Kind = ValueNumber
	case strings.HasPrefix(text, "["):
		if !strings.HasSuffix(text, "]") {
			s.fail(ParserError, "unclosed list literal", loc)
			return v, false
		}
		v.Kind = ValueList
	case strings.HasPrefix(text, "{"):
		if !strings.HasSuffix(text, "}") {
			s.fail(ParserError, "unclosed map literal", loc)
			return v, false
		}
		v.Kind = ValueMap
	case strings.HasPrefix(text, "new "):
		v.Kind = ValueMap
		v.Ref = strings.TrimSpace(text[len("new "):])
	case functionRe.MatchString(text):
		m := functionRe.FindStringSubmatch(text)
		v.Kind = ValueFunction
		v.Params = splitParams(m[1])
		s.depth++
	case identPathRe.MatchString(text):
		v.Kind = ValueReference
		v.Ref = text
	}
	return v, true
}

func opensBlock(line string) bool {
	return opensBlockRe.MatchString(line)
}

func isNumber(text string) bool {
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

func splitParams(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if idx := strings.Index(name, "="); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// closingQuote returns the index of the quote closing the literal that starts
// at text[0], treating "" as an escaped quote. It returns -1 when unterminated.
func closingQuote(text string) int {
	for i := 1; i < len(text); i++ {
		if text[i] != '"' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '"' {
			i++
			continue
		}
		return i
	}
	return -1
}

// stripComment removes a trailing // comment that is not inside a string.
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inString = !inString
		case !inString && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}
