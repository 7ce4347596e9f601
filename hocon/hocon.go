// Package hocon implements a koanf.Parser for the HOCON block syntax
// subset used by configuration files in the wild: brace objects with
// optional separators, dotted key paths, arrays with newline or comma
// separators, unquoted scalars, and // or # comments.
//
// Substitution literals such as ${base.url} pass through as plain strings;
// resolving them is the loader's job, after all sources are merged.
// Includes, triple-quoted strings, and value concatenation are out of
// scope.
package hocon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf/v2"
)

// HOCON implements koanf.Parser.
type HOCON struct{}

// Parser returns a HOCON parser usable anywhere koanf accepts one.
func Parser() koanf.Parser {
	return &HOCON{}
}

// Unmarshal parses HOCON text into a nested map. The root braces are
// optional, matching the usual HOCON convention.
func (p *HOCON) Unmarshal(b []byte) (map[string]any, error) {
	s := &scanner{src: []rune(string(b)), line: 1}
	s.skipVoid()

	var (
		root map[string]any
		err  error
	)
	if s.peek() == '{' {
		s.advance()
		root, err = s.parseObjectBody(true)
	} else {
		root, err = s.parseObjectBody(false)
	}
	if err != nil {
		return nil, err
	}
	s.skipVoid()
	if !s.eof() {
		return nil, s.errorf("unexpected %q after document end", s.peek())
	}
	return root, nil
}

// Marshal renders a nested map as HOCON text with sorted keys.
func (p *HOCON) Marshal(m map[string]any) ([]byte, error) {
	var b strings.Builder
	writeObjectBody(&b, m, 0)
	return []byte(b.String()), nil
}

type scanner struct {
	src  []rune
	pos  int
	line int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
	}
	return r
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("hocon: line %d: %s", s.line, fmt.Sprintf(format, args...))
}

// skipBlanks skips spaces and tabs but stops at newlines, which act as
// pair and element separators.
func (s *scanner) skipBlanks() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		default:
			return
		}
	}
}

// skipVoid skips whitespace of every kind plus comments.
func (s *scanner) skipVoid() {
	for !s.eof() {
		switch r := s.peek(); {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			s.advance()
		case r == '#':
			s.skipToEOL()
		case r == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			s.skipToEOL()
		default:
			return
		}
	}
}

func (s *scanner) skipToEOL() {
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}
}

// parseObjectBody consumes key/value pairs until the closing brace (when
// braced) or end of input.
func (s *scanner) parseObjectBody(braced bool) (map[string]any, error) {
	out := make(map[string]any)
	for {
		s.skipVoid()
		if s.eof() {
			if braced {
				return nil, s.errorf("unterminated object, missing '}'")
			}
			return out, nil
		}
		if s.peek() == '}' {
			if !braced {
				return nil, s.errorf("unexpected '}'")
			}
			s.advance()
			return out, nil
		}
		if s.peek() == ',' {
			s.advance()
			continue
		}

		path, err := s.parseKey()
		if err != nil {
			return nil, err
		}

		s.skipBlanks()
		switch s.peek() {
		case ':', '=':
			s.advance()
			s.skipBlanks()
		case '{':
			// the separator is optional before a nested object
		default:
			return nil, s.errorf("expected ':', '=', or '{' after key %q", strings.Join(path, "."))
		}

		value, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		setPath(out, path, value)
	}
}

// parseKey reads one key. Unquoted keys split on '.' into a nested path;
// quoted keys are taken literally.
func (s *scanner) parseKey() ([]string, error) {
	if s.peek() == '"' {
		key, err := s.parseQuoted()
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	start := s.pos
	for !s.eof() {
		r := s.peek()
		if r == ':' || r == '=' || r == '{' || r == '}' || r == '\n' ||
			r == ' ' || r == '\t' || r == '\r' || r == ',' || r == '[' || r == ']' {
			break
		}
		s.advance()
	}
	key := string(s.src[start:s.pos])
	if key == "" {
		return nil, s.errorf("expected a key, found %q", s.peek())
	}
	return strings.Split(key, "."), nil
}

func (s *scanner) parseValue() (any, error) {
	s.skipBlanks()
	switch s.peek() {
	case '{':
		s.advance()
		return s.parseObjectBody(true)
	case '[':
		return s.parseArray()
	case '"':
		return s.parseQuoted()
	default:
		return s.parseUnquoted()
	}
}

func (s *scanner) parseArray() (any, error) {
	s.advance() // consume '['
	items := []any{}
	for {
		s.skipVoid()
		if s.eof() {
			return nil, s.errorf("unterminated array, missing ']'")
		}
		if s.peek() == ']' {
			s.advance()
			return items, nil
		}
		if s.peek() == ',' {
			s.advance()
			continue
		}
		v, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (s *scanner) parseQuoted() (string, error) {
	start := s.pos
	s.advance() // opening quote
	for !s.eof() {
		r := s.advance()
		if r == '\\' && !s.eof() {
			s.advance()
			continue
		}
		if r == '"' {
			unquoted, err := strconv.Unquote(string(s.src[start:s.pos]))
			if err != nil {
				return "", s.errorf("bad string literal: %v", err)
			}
			return unquoted, nil
		}
		if r == '\n' {
			break
		}
	}
	return "", s.errorf("unterminated string literal")
}

// parseUnquoted reads to the end of the element and interprets the token:
// booleans, null, integers, and floats take their natural type, everything
// else stays a string. Substitutions like ${ref} stay verbatim.
func (s *scanner) parseUnquoted() (any, error) {
	start := s.pos
	for !s.eof() {
		r := s.peek()
		// A substitution is consumed whole so its closing brace is not
		// mistaken for the end of an enclosing object.
		if r == '$' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '{' {
			s.advance()
			s.advance()
			for !s.eof() && s.peek() != '}' {
				s.advance()
			}
			if s.eof() {
				return nil, s.errorf("unterminated substitution")
			}
			s.advance()
			continue
		}
		if r == '\n' || r == ',' || r == ']' || r == '}' || r == '#' {
			break
		}
		if r == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
			break
		}
		s.advance()
	}
	raw := strings.TrimSpace(string(s.src[start:s.pos]))
	if raw == "" {
		return nil, s.errorf("expected a value")
	}
	return interpretScalar(raw), nil
}

func interpretScalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// setPath stores value under the dotted path, deep-merging objects so
// later duplicate keys extend earlier ones the way HOCON requires.
func setPath(m map[string]any, path []string, value any) {
	for len(path) > 1 {
		child, ok := m[path[0]].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[path[0]] = child
		}
		m = child
		path = path[1:]
	}
	key := path[0]
	if existing, ok := m[key].(map[string]any); ok {
		if incoming, ok := value.(map[string]any); ok {
			mergeMaps(existing, incoming)
			return
		}
	}
	m[key] = value
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dm, ok := dst[k].(map[string]any); ok {
			if sm, ok := v.(map[string]any); ok {
				mergeMaps(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
}

func writeObjectBody(b *strings.Builder, m map[string]any, indent int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pad := strings.Repeat("  ", indent)
	for _, k := range keys {
		key := k
		if strings.ContainsAny(k, ". \t:={}[]#") || k == "" {
			key = strconv.Quote(k)
		}
		switch v := m[k].(type) {
		case map[string]any:
			fmt.Fprintf(b, "%s%s {\n", pad, key)
			writeObjectBody(b, v, indent+1)
			fmt.Fprintf(b, "%s}\n", pad)
		default:
			fmt.Fprintf(b, "%s%s = %s\n", pad, key, renderScalar(v, indent))
		}
	}
}

func renderScalar(v any, indent int) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if m, ok := item.(map[string]any); ok {
				var nested strings.Builder
				nested.WriteString("{\n")
				writeObjectBody(&nested, m, indent+1)
				nested.WriteString(strings.Repeat("  ", indent) + "}")
				parts[i] = nested.String()
				continue
			}
			parts[i] = renderScalar(item, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
