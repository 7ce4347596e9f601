package decode

import (
	"fmt"
	"strings"
)

// PathError is implemented by every diagnostic produced during a decode.
// The path pinpoints the failing value: "" is the root, ".field" descends
// into a record field or mapping key, "[i]" into a sequence index.
type PathError interface {
	error
	DecodePath() string
}

// ParseError reports a scalar literal that could not be interpreted as the
// required primitive, temporal, duration, or enumeration kind.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, displayPath(e.Path))
}

func (e *ParseError) DecodePath() string { return e.Path }

// MalformedConfigError reports a structural mismatch between the value tree
// and the required shape, including missing required fields.
type MalformedConfigError struct {
	Path    string
	Message string
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, displayPath(e.Path))
}

func (e *MalformedConfigError) DecodePath() string { return e.Path }

// MissingTypeError reports an incomplete type description, such as a
// sequence or mapping descriptor without an element type. It is raised
// while building descriptors, before any value is decoded.
type MissingTypeError struct {
	Message string
}

func (e *MissingTypeError) Error() string { return e.Message }

func (e *MissingTypeError) DecodePath() string { return "" }

// UnexpectedKeysError reports mapping keys that no record field consumed
// while strict key checking is in effect. Keys are sorted.
type UnexpectedKeysError struct {
	Path string
	Type string
	Keys []string
}

func (e *UnexpectedKeysError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	keys := strings.Join(quoted, ", ")
	if e.Type != "" {
		return fmt.Sprintf("unexpected key(s) %s detected for type %s at %s", keys, e.Type, displayPath(e.Path))
	}
	return fmt.Sprintf("unexpected key(s) %s detected at %s", keys, displayPath(e.Path))
}

func (e *UnexpectedKeysError) DecodePath() string { return e.Path }

// TypeConfigError reports that no candidate of a union or open base type
// matched the value. Causes holds one diagnostic per candidate, in variant
// declaration order for unions and registration order for open bases.
type TypeConfigError struct {
	Path   string
	Type   string
	Causes []error
}

func (e *TypeConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expected type %s at %s, failed subclasses:", e.Type, displayPath(e.Path))
	for _, cause := range e.Causes {
		b.WriteString("\n- ")
		b.WriteString(cause.Error())
	}
	return b.String()
}

func (e *TypeConfigError) DecodePath() string { return e.Path }

// Unwrap exposes the per-candidate causes to errors.Is/As.
func (e *TypeConfigError) Unwrap() []error { return e.Causes }

// AmbiguousTypeError reports that more than one registered candidate of an
// open base type matched the value. Matches preserves registration order.
type AmbiguousTypeError struct {
	Path    string
	Type    string
	Matches []string
}

func (e *AmbiguousTypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "multiple subtypes of %s matched at %s, use '_type' to disambiguate:", e.Type, displayPath(e.Path))
	for _, name := range e.Matches {
		b.WriteString("\n- ")
		b.WriteString(name)
	}
	return b.String()
}

func (e *AmbiguousTypeError) DecodePath() string { return e.Path }

// displayPath renders the root path as "." so messages never end in a
// dangling "at ".
func displayPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func missingFieldError(path, field string) *MalformedConfigError {
	return &MalformedConfigError{
		Path:    path,
		Message: fmt.Sprintf("no %s found", field),
	}
}

func shapeError(path string, expected string, got fmt.Stringer) *MalformedConfigError {
	return &MalformedConfigError{
		Path:    path,
		Message: fmt.Sprintf("expected %s but found %s", expected, got),
	}
}
