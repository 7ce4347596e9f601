package decode

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mitchellh/copystructure"
)

// TagName is the struct tag key that names record fields. Fields without a
// tag fall back to the snake_case form of the Go field name.
const TagName = "conf"

// DefaultTagName is the struct tag key carrying literal field defaults.
const DefaultTagName = "default"

var (
	timeType   = reflect.TypeOf(time.Time{})
	periodType = reflect.TypeOf(Period{})
)

// descriptors is the process-wide descriptor cache. A descriptor is built
// once per distinct Go type, under the cache lock so concurrent first use
// cannot produce duplicate entries, and is immutable afterwards.
var descriptors = struct {
	sync.Mutex
	byType map[reflect.Type]*Descriptor
}{byType: make(map[reflect.Type]*Descriptor)}

// Of returns the cached descriptor for T, building it on first use.
func Of[T any]() (*Descriptor, error) {
	return DescriptorOf(reflect.TypeFor[T]())
}

// DescriptorOf returns the cached descriptor for t, building it on first
// use. Building fails with MissingTypeError when t (or anything it
// reaches) is not a shape the decoder understands.
func DescriptorOf(t reflect.Type) (*Descriptor, error) {
	descriptors.Lock()
	defer descriptors.Unlock()
	if d, ok := descriptors.byType[t]; ok {
		return d, nil
	}

	building := make(map[reflect.Type]*Descriptor)
	d, err := buildDescriptor(t, building)
	if err != nil {
		return nil, err
	}
	for typ, built := range building {
		descriptors.byType[typ] = built
	}
	return d, nil
}

// buildDescriptor translates a reflective Go type into a descriptor.
// Recursive types are handled by publishing the descriptor into the
// in-progress set before its children are built, so self references
// resolve to the same pointer.
func buildDescriptor(t reflect.Type, building map[reflect.Type]*Descriptor) (*Descriptor, error) {
	if d, ok := descriptors.byType[t]; ok {
		return d, nil
	}
	if d, ok := building[t]; ok {
		return d, nil
	}

	if set, ok := reg.enumFor(t); ok {
		d := &Descriptor{kind: kindEnum, goType: t, enum: set}
		building[t] = d
		return d, nil
	}

	switch t {
	case timeType:
		d := &Descriptor{kind: kindTemporal, goType: t}
		building[t] = d
		return d, nil
	case periodType:
		d := &Descriptor{kind: kindDuration, goType: t}
		building[t] = d
		return d, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		d := &Descriptor{kind: kindPrimitive, goType: t, prim: primBool}
		building[t] = d
		return d, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		d := &Descriptor{kind: kindPrimitive, goType: t, prim: primInt}
		building[t] = d
		return d, nil

	case reflect.Float32, reflect.Float64:
		d := &Descriptor{kind: kindPrimitive, goType: t, prim: primFloat}
		building[t] = d
		return d, nil

	case reflect.String:
		d := &Descriptor{kind: kindPrimitive, goType: t, prim: primString}
		building[t] = d
		return d, nil

	case reflect.Pointer:
		d := &Descriptor{kind: kindOptional, goType: t}
		building[t] = d
		inner, err := buildDescriptor(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		d.elem = inner
		return d, nil

	case reflect.Slice:
		d := &Descriptor{kind: kindSequence, goType: t}
		building[t] = d
		item, err := buildDescriptor(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		d.elem = item
		return d, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, &MissingTypeError{
				Message: fmt.Sprintf("mapping type %s must use string keys", t),
			}
		}
		d := &Descriptor{kind: kindMapping, goType: t}
		building[t] = d
		value, err := buildDescriptor(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		d.elem = value
		return d, nil

	case reflect.Struct:
		return buildRecord(t, building)

	case reflect.Interface:
		if t.NumMethod() == 0 && t.Name() == "" {
			d := &Descriptor{kind: kindDynamic, goType: t}
			building[t] = d
			return d, nil
		}
		// Named interfaces resolve their candidate set lazily against the
		// registry at decode time, never at build time.
		d := &Descriptor{kind: kindPolymorphic, goType: t}
		building[t] = d
		return d, nil

	default:
		return nil, &MissingTypeError{
			Message: fmt.Sprintf("unsupported target type %s (%s)", t, t.Kind()),
		}
	}
}

func buildRecord(t reflect.Type, building map[reflect.Type]*Descriptor) (*Descriptor, error) {
	d := &Descriptor{kind: kindRecord, goType: t}
	building[t] = d

	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		if name == TypeKey {
			return nil, &MissingTypeError{
				Message: fmt.Sprintf("%s.%s: %q is reserved for subtype disambiguation", t, sf.Name, TypeKey),
			}
		}
		if seen[name] {
			return nil, &MissingTypeError{
				Message: fmt.Sprintf("%s: duplicate field name %q", t, name),
			}
		}
		seen[name] = true

		fd, err := buildDescriptor(sf.Type, building)
		if err != nil {
			return nil, err
		}

		field := recordField{name: name, index: sf.Index, desc: fd}
		if literal, ok := sf.Tag.Lookup(DefaultTagName); ok {
			fn, err := literalDefault(fd, literal)
			if err != nil {
				return nil, &MissingTypeError{
					Message: fmt.Sprintf("%s.%s: invalid default %q: %v", t, sf.Name, literal, err),
				}
			}
			field.defaultFn = fn
			field.hasDefault = true
		}
		d.fields = append(d.fields, field)
	}
	return d, nil
}

func fieldName(sf reflect.StructField) (name string, skip bool) {
	tag, ok := sf.Tag.Lookup(TagName)
	if !ok {
		return snakeCase(sf.Name), false
	}
	if tag == "-" {
		return "", true
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return snakeCase(sf.Name), false
	}
	return tag, false
}

// snakeCase converts an exported Go field name to its config key form:
// PipelineName -> pipeline_name, AreaCode -> area_code, TFXRoot -> tfx_root.
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// literalDefault parses a `default:"..."` tag literal against the field's
// descriptor at build time, so malformed defaults fail before any decode.
// Pointer fields get a fresh allocation from every producer call; handing
// out one pointer would share a mutable value across decode results.
func literalDefault(d *Descriptor, literal string) (func() (any, error), error) {
	target := d
	if d.kind == kindOptional {
		target = d.elem
	}
	value, err := parseScalarLiteral(target, literal)
	if err != nil {
		return nil, err
	}
	if d.kind != kindOptional {
		return func() (any, error) { return value, nil }, nil
	}
	return func() (any, error) {
		ptr := reflect.New(target.goType)
		ptr.Elem().Set(reflect.ValueOf(value))
		return ptr.Interface(), nil
	}, nil
}

func cloneDefault(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	cloned, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("decode: cloning default value: %w", err)
	}
	return cloned, nil
}
