// Package decode is a type-directed decoder for configuration value trees.
// It walks a target type's descriptor together with a node.Node tree and
// produces either a fully typed value or a diagnostic annotated with the
// exact field path, handling optional fields, defaults, enumerations,
// tagged unions, and registry-driven open polymorphism along the way.
//
// Decoding is pure: it never mutates the input tree, performs no I/O, and
// the same (tree, type, options) triple always yields the same result.
package decode

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-dataconf/node"
)

// DefaultMaxDepth bounds the recursive walk so pathologically nested input
// fails with a diagnostic instead of exhausting the stack.
const DefaultMaxDepth = 512

// Options control a single decode call.
type Options struct {
	// StrictKeys rejects mapping keys no record field consumed. Enabled by
	// default; disable to silently drop unknown keys.
	StrictKeys bool
	// MaxDepth caps the structural recursion depth.
	MaxDepth int
}

// Option mutates the per-call Options.
type Option func(*Options)

// WithStrictKeys toggles rejection of unconsumed mapping keys.
func WithStrictKeys(strict bool) Option {
	return func(o *Options) { o.StrictKeys = strict }
}

// WithLenientKeys is shorthand for WithStrictKeys(false).
func WithLenientKeys() Option {
	return WithStrictKeys(false)
}

// WithMaxDepth overrides the recursion depth guard.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{StrictKeys: true, MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Decode walks root against the descriptor of T and returns the typed
// result. All failures come back as one diagnostic implementing PathError.
func Decode[T any](root node.Node, opts ...Option) (T, error) {
	var zero T
	d, err := Of[T]()
	if err != nil {
		return zero, err
	}
	dec := &decoder{opts: buildOptions(opts)}
	v, err := dec.decode(root, d, "", 0)
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, &MalformedConfigError{
			Message: fmt.Sprintf("decoded %s is not assignable to %s", v.Type(), reflect.TypeFor[T]()),
		}
	}
	return out, nil
}

// DecodeValue is the untyped form of Decode for manually built descriptors.
func DecodeValue(root node.Node, d *Descriptor, opts ...Option) (any, error) {
	if d == nil {
		return nil, &MissingTypeError{Message: "nil descriptor"}
	}
	dec := &decoder{opts: buildOptions(opts)}
	v, err := dec.decode(root, d, "", 0)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

type decoder struct {
	opts Options
}

func (dec *decoder) decode(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	if depth > dec.opts.MaxDepth {
		return reflect.Value{}, &MalformedConfigError{
			Path:    path,
			Message: fmt.Sprintf("nesting exceeds the maximum depth of %d", dec.opts.MaxDepth),
		}
	}

	switch d.kind {
	case kindPrimitive:
		return dec.decodePrimitive(n, d, path)
	case kindTemporal:
		return dec.decodeTemporal(n, d, path)
	case kindDuration:
		return dec.decodeDuration(n, d, path)
	case kindOptional:
		return dec.decodeOptional(n, d, path, depth)
	case kindSequence:
		return dec.decodeSequence(n, d, path, depth)
	case kindMapping:
		return dec.decodeMapping(n, d, path, depth)
	case kindRecord:
		return dec.decodeRecord(n, d, path, depth)
	case kindEnum:
		return dec.decodeEnum(n, d, path)
	case kindPolymorphic:
		return dec.decodePolymorphic(n, d, path, depth)
	case kindDynamic:
		return dec.decodeDynamic(n, d)
	default:
		return reflect.Value{}, &MalformedConfigError{
			Path:    path,
			Message: fmt.Sprintf("unhandled descriptor kind %q", d.kind.name()),
		}
	}
}

func (dec *decoder) decodePrimitive(n node.Node, d *Descriptor, path string) (reflect.Value, error) {
	out := reflect.New(d.goType).Elem()

	switch d.prim {
	case primBool:
		switch n.Kind() {
		case node.KindBool:
			out.SetBool(n.Bool())
			return out, nil
		case node.KindString:
			switch strings.ToLower(n.Str()) {
			case "true":
				out.SetBool(true)
				return out, nil
			case "false":
				out.SetBool(false)
				return out, nil
			}
			return reflect.Value{}, &ParseError{
				Path:    path,
				Message: fmt.Sprintf("cannot interpret %q as a boolean", n.Str()),
			}
		}
		return reflect.Value{}, shapeError(path, "a boolean", n.Kind())

	case primInt:
		if n.Kind() != node.KindInt {
			return reflect.Value{}, shapeError(path, "an integer", n.Kind())
		}
		return out, setIntValue(out, n.Int(), path)

	case primFloat:
		// Widening from an integer literal is fine; narrowing is not.
		switch n.Kind() {
		case node.KindInt, node.KindFloat:
			out.SetFloat(n.Float())
			return out, nil
		}
		return reflect.Value{}, shapeError(path, "a float", n.Kind())

	default: // primString
		if n.Kind() != node.KindString {
			return reflect.Value{}, shapeError(path, "a string", n.Kind())
		}
		out.SetString(n.Str())
		return out, nil
	}
}

func setIntValue(out reflect.Value, v int64, path string) error {
	switch out.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v < 0 || out.OverflowUint(uint64(v)) {
			return &ParseError{
				Path:    path,
				Message: fmt.Sprintf("integer %d overflows %s", v, out.Type()),
			}
		}
		out.SetUint(uint64(v))
	default:
		if out.OverflowInt(v) {
			return &ParseError{
				Path:    path,
				Message: fmt.Sprintf("integer %d overflows %s", v, out.Type()),
			}
		}
		out.SetInt(v)
	}
	return nil
}

func (dec *decoder) decodeTemporal(n node.Node, d *Descriptor, path string) (reflect.Value, error) {
	if n.Kind() != node.KindString {
		return reflect.Value{}, shapeError(path, "a timestamp string", n.Kind())
	}
	t, err := time.Parse(time.RFC3339, n.Str())
	if err != nil {
		return reflect.Value{}, &ParseError{
			Path:    path,
			Message: fmt.Sprintf("cannot interpret %q as an ISO-8601 timestamp with zone offset", n.Str()),
		}
	}
	return reflect.ValueOf(t), nil
}

func (dec *decoder) decodeDuration(n node.Node, d *Descriptor, path string) (reflect.Value, error) {
	if n.Kind() != node.KindString {
		return reflect.Value{}, shapeError(path, "a duration string", n.Kind())
	}
	p, err := ParsePeriod(n.Str())
	if err != nil {
		return reflect.Value{}, &ParseError{Path: path, Message: err.Error()}
	}
	return reflect.ValueOf(p), nil
}

func (dec *decoder) decodeOptional(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	if n.IsNull() {
		return reflect.Zero(d.goType), nil
	}
	inner, err := dec.decode(n, d.elem, path, depth+1)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(d.elem.goType)
	ptr.Elem().Set(inner)
	return ptr, nil
}

func (dec *decoder) decodeSequence(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	if n.Kind() != node.KindSequence {
		return reflect.Value{}, shapeError(path, "a sequence", n.Kind())
	}
	items := n.Seq()
	out := reflect.MakeSlice(d.goType, len(items), len(items))
	for i, item := range items {
		v, err := dec.decode(item, d.elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func (dec *decoder) decodeMapping(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	if n.Kind() != node.KindMapping {
		return reflect.Value{}, shapeError(path, "a mapping", n.Kind())
	}
	out := reflect.MakeMapWithSize(d.goType, n.Len())
	keyType := d.goType.Key()
	for _, e := range n.Entries() {
		v, err := dec.decode(e.Value, d.elem, path+"."+e.Key, depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(e.Key).Convert(keyType), v)
	}
	return out, nil
}

// decodeRecord resolves every declared field through the ladder: present
// value, attached default, optional absence, missing-required failure. The
// first failing field aborts the record.
func (dec *decoder) decodeRecord(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	if n.Kind() != node.KindMapping {
		return reflect.Value{}, shapeError(path, fmt.Sprintf("a mapping for %s", d.typeName()), n.Kind())
	}

	out := reflect.New(d.goType).Elem()
	consumed := map[string]bool{TypeKey: true}

	for _, f := range d.fields {
		fieldPath := path + "." + f.name
		child, present := n.Get(f.name)
		if present {
			consumed[f.name] = true
			if !child.IsNull() {
				v, err := dec.decode(child, f.desc, fieldPath, depth+1)
				if err != nil {
					return reflect.Value{}, err
				}
				out.FieldByIndex(f.index).Set(v)
				continue
			}
			// An explicit null only satisfies optional and dynamic fields.
			if f.desc.kind == kindOptional || f.desc.kind == kindDynamic {
				continue
			}
		}

		if fn := fieldDefault(d, f); fn != nil {
			v, err := fn()
			if err != nil {
				return reflect.Value{}, &MalformedConfigError{Path: fieldPath, Message: err.Error()}
			}
			if err := assignDefault(out.FieldByIndex(f.index), v, fieldPath); err != nil {
				return reflect.Value{}, err
			}
			continue
		}
		if f.desc.kind == kindOptional {
			continue
		}
		return reflect.Value{}, missingFieldError(fieldPath, f.name)
	}

	var leftover []string
	for _, key := range n.Keys() {
		if !consumed[key] {
			leftover = append(leftover, key)
		}
	}
	if len(leftover) > 0 && dec.opts.StrictKeys {
		sort.Strings(leftover)
		return reflect.Value{}, &UnexpectedKeysError{
			Path: path,
			Type: d.typeName(),
			Keys: leftover,
		}
	}

	return out, nil
}

// fieldDefault prefers the build-time tag literal and falls back to the
// registry so producers registered after the descriptor was cached are
// still honored.
func fieldDefault(d *Descriptor, f recordField) func() (any, error) {
	if f.hasDefault {
		return f.defaultFn
	}
	if fn, ok := reg.defaultFor(d.goType, f.name); ok {
		return fn
	}
	return nil
}

func assignDefault(field reflect.Value, v any, fieldPath string) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Type().ConvertibleTo(field.Type()):
		field.Set(rv.Convert(field.Type()))
	default:
		return &MalformedConfigError{
			Path:    fieldPath,
			Message: fmt.Sprintf("default value of type %s is not assignable to %s", rv.Type(), field.Type()),
		}
	}
	return nil
}

func (dec *decoder) decodeEnum(n node.Node, d *Descriptor, path string) (reflect.Value, error) {
	members := d.enum.members

	// A name match always wins over a coincidental raw-value match.
	if n.Kind() == node.KindString {
		for _, m := range members {
			if m.name == n.Str() {
				return m.value.Convert(d.goType), nil
			}
		}
	}
	for _, m := range members {
		if rawMatches(m.value, n) {
			return m.value.Convert(d.goType), nil
		}
	}

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.name
	}
	return reflect.Value{}, &ParseError{
		Path: path,
		Message: fmt.Sprintf("%s is not a member of %s, valid names: %s",
			n, d.typeName(), strings.Join(names, ", ")),
	}
}

// rawMatches compares a node scalar against a member's backing value,
// coercing string input to the backing kind when needed.
func rawMatches(member reflect.Value, n node.Node) bool {
	switch member.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch n.Kind() {
		case node.KindInt:
			return member.Int() == n.Int()
		case node.KindString:
			i, err := strconv.ParseInt(n.Str(), 10, 64)
			return err == nil && member.Int() == i
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch n.Kind() {
		case node.KindInt:
			return n.Int() >= 0 && member.Uint() == uint64(n.Int())
		case node.KindString:
			u, err := strconv.ParseUint(n.Str(), 10, 64)
			return err == nil && member.Uint() == u
		}
	case reflect.Float32, reflect.Float64:
		switch n.Kind() {
		case node.KindInt, node.KindFloat:
			return member.Float() == n.Float()
		case node.KindString:
			f, err := strconv.ParseFloat(n.Str(), 64)
			return err == nil && member.Float() == f
		}
	case reflect.String:
		return n.Kind() == node.KindString && member.String() == n.Str()
	}
	return false
}

func (dec *decoder) decodePolymorphic(n node.Node, d *Descriptor, path string, depth int) (reflect.Value, error) {
	base := d.goType
	if variants, ok := reg.unionFor(base); ok {
		return dec.decodeUnion(n, base, variants, path, depth)
	}
	if cands, ok := reg.candidatesFor(base); ok {
		return dec.decodeOpenBase(n, base, cands, path, depth)
	}
	return reflect.Value{}, &TypeConfigError{
		Path: path,
		Type: base.String(),
		Causes: []error{
			fmt.Errorf("no subtypes registered for %s", base),
		},
	}
}

// decodeUnion tries each declared variant in order and short-circuits on
// the first success; uniqueness is not required for closed unions.
func (dec *decoder) decodeUnion(n node.Node, base reflect.Type, variants []reflect.Type, path string, depth int) (reflect.Value, error) {
	causes := make([]error, 0, len(variants))
	for _, vt := range variants {
		vd, err := DescriptorOf(vt)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := dec.decode(n, vd, path, depth+1)
		if err == nil {
			out := reflect.New(base).Elem()
			out.Set(v)
			return out, nil
		}
		causes = append(causes, &candidateCause{name: vt.String(), err: err})
	}
	return reflect.Value{}, &TypeConfigError{Path: path, Type: base.String(), Causes: causes}
}

// decodeOpenBase resolves an open base against the registered candidates.
// Unlike unions, exactly one candidate must match unless the reserved
// "_type" key names one explicitly.
func (dec *decoder) decodeOpenBase(n node.Node, base reflect.Type, cands []candidate, path string, depth int) (reflect.Value, error) {
	if n.Kind() != node.KindMapping {
		return reflect.Value{}, shapeError(path, fmt.Sprintf("a mapping for %s", base), n.Kind())
	}

	// Candidate matching is always strict: an extra key must rule a
	// candidate out, otherwise every permissive candidate would match.
	strict := *dec
	strict.opts.StrictKeys = true

	if tag, ok := n.Get(TypeKey); ok {
		if tag.Kind() != node.KindString {
			return reflect.Value{}, &ParseError{
				Path:    path,
				Message: fmt.Sprintf("the %q tag must be a string, found %s", TypeKey, tag.Kind()),
			}
		}
		name := tag.Str()
		for _, c := range cands {
			if c.name != name {
				continue
			}
			cd, err := DescriptorOf(c.typ)
			if err != nil {
				return reflect.Value{}, err
			}
			v, err := strict.decode(n, cd, path, depth+1)
			if err != nil {
				return reflect.Value{}, &TypeConfigError{
					Path:   path,
					Type:   base.String(),
					Causes: []error{&candidateCause{name: c.name, err: err}},
				}
			}
			out := reflect.New(base).Elem()
			out.Set(v)
			return out, nil
		}
		return reflect.Value{}, &TypeConfigError{
			Path: path,
			Type: base.String(),
			Causes: []error{
				fmt.Errorf("no registered subtype of %s named %q", base, name),
			},
		}
	}

	var (
		matches []reflect.Value
		names   []string
		causes  []error
	)
	for _, c := range cands {
		cd, err := DescriptorOf(c.typ)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := strict.decode(n, cd, path, depth+1)
		if err != nil {
			if uk, ok := err.(*UnexpectedKeysError); ok {
				causes = append(causes, uk)
			} else {
				causes = append(causes, &candidateCause{name: c.name, err: err})
			}
			continue
		}
		matches = append(matches, v)
		names = append(names, c.name)
	}

	switch len(matches) {
	case 0:
		return reflect.Value{}, &TypeConfigError{Path: path, Type: base.String(), Causes: causes}
	case 1:
		out := reflect.New(base).Elem()
		out.Set(matches[0])
		return out, nil
	default:
		return reflect.Value{}, &AmbiguousTypeError{Path: path, Type: base.String(), Matches: names}
	}
}

func (dec *decoder) decodeDynamic(n node.Node, d *Descriptor) (reflect.Value, error) {
	v := DynamicValue(n)
	if v == nil {
		return reflect.Zero(d.goType), nil
	}
	out := reflect.New(d.goType).Elem()
	out.Set(reflect.ValueOf(v))
	return out, nil
}

// candidateCause attributes one candidate's failure inside an aggregate
// TypeConfigError line.
type candidateCause struct {
	name string
	err  error
}

func (c *candidateCause) Error() string {
	return fmt.Sprintf("expected type %s, %s", c.name, c.err.Error())
}

func (c *candidateCause) Unwrap() error { return c.err }

// parseScalarLiteral interprets a `default:"..."` tag literal against the
// field's descriptor. Only scalar-shaped descriptors can carry a literal
// default; everything else needs RegisterDefault/RegisterDefaultFunc.
// Optional fields are unwrapped by literalDefault before it calls here, so
// the producer can allocate a fresh pointer per decode.
func parseScalarLiteral(d *Descriptor, literal string) (any, error) {
	switch d.kind {
	case kindPrimitive:
		out := reflect.New(d.goType).Elem()
		switch d.prim {
		case primBool:
			b, err := strconv.ParseBool(literal)
			if err != nil {
				return nil, fmt.Errorf("not a boolean")
			}
			out.SetBool(b)
		case primInt:
			i, err := strconv.ParseInt(literal, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("not an integer")
			}
			if err := setIntValue(out, i, ""); err != nil {
				return nil, fmt.Errorf("overflows %s", d.goType)
			}
		case primFloat:
			f, err := strconv.ParseFloat(literal, 64)
			if err != nil {
				return nil, fmt.Errorf("not a float")
			}
			out.SetFloat(f)
		default:
			out.SetString(literal)
		}
		return out.Interface(), nil

	case kindTemporal:
		t, err := time.Parse(time.RFC3339, literal)
		if err != nil {
			return nil, fmt.Errorf("not an ISO-8601 timestamp")
		}
		return t, nil

	case kindDuration:
		return ParsePeriod(literal)

	case kindEnum:
		for _, m := range d.enum.members {
			if m.name == literal {
				return m.value.Convert(d.goType).Interface(), nil
			}
		}
		return nil, fmt.Errorf("not a member of %s", d.typeName())

	default:
		return nil, fmt.Errorf("literal defaults are not supported for %s fields", d.kind.name())
	}
}
