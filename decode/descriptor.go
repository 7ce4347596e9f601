package decode

import (
	"reflect"
)

type descKind uint8

const (
	kindPrimitive descKind = iota
	kindTemporal
	kindDuration
	kindOptional
	kindSequence
	kindMapping
	kindRecord
	kindEnum
	kindPolymorphic
	kindDynamic
)

type primKind uint8

const (
	primBool primKind = iota
	primInt
	primFloat
	primString
)

func (p primKind) String() string {
	switch p {
	case primBool:
		return "boolean"
	case primInt:
		return "integer"
	case primFloat:
		return "float"
	default:
		return "string"
	}
}

// Descriptor is the closed description of a decode target's shape. One
// descriptor exists per distinct Go type; descriptors are immutable after
// construction and shared read-only across concurrent decodes.
type Descriptor struct {
	kind   descKind
	goType reflect.Type

	prim   primKind      // kindPrimitive
	elem   *Descriptor   // kindOptional inner, kindSequence item, kindMapping value
	fields []recordField // kindRecord
	enum   *enumSet      // kindEnum
}

// recordField is one declared field of a record descriptor. A field is
// required unless its descriptor is optional or a default is attached.
type recordField struct {
	name       string
	index      []int
	desc       *Descriptor
	defaultFn  func() (any, error)
	hasDefault bool
}

func (d *Descriptor) typeName() string {
	if d.goType == nil {
		return d.kind.name()
	}
	return d.goType.String()
}

func (k descKind) name() string {
	switch k {
	case kindPrimitive:
		return "primitive"
	case kindTemporal:
		return "timestamp"
	case kindDuration:
		return "duration"
	case kindOptional:
		return "optional"
	case kindSequence:
		return "sequence"
	case kindMapping:
		return "mapping"
	case kindRecord:
		return "record"
	case kindEnum:
		return "enumeration"
	case kindPolymorphic:
		return "polymorphic"
	default:
		return "dynamic"
	}
}

// SequenceOf builds a sequence descriptor with the given item descriptor.
// A nil item is an incomplete type description and fails immediately; it
// must never survive to decode time.
func SequenceOf(item *Descriptor) (*Descriptor, error) {
	if item == nil {
		return nil, &MissingTypeError{Message: "sequence descriptor is missing its item type"}
	}
	goType := reflect.Type(nil)
	if item.goType != nil {
		goType = reflect.SliceOf(item.goType)
	}
	return &Descriptor{kind: kindSequence, goType: goType, elem: item}, nil
}

// MappingOf builds a string-keyed mapping descriptor with the given value
// descriptor. A nil value descriptor fails immediately.
func MappingOf(value *Descriptor) (*Descriptor, error) {
	if value == nil {
		return nil, &MissingTypeError{Message: "mapping descriptor is missing its value type"}
	}
	goType := reflect.Type(nil)
	if value.goType != nil {
		goType = reflect.MapOf(reflect.TypeOf(""), value.goType)
	}
	return &Descriptor{kind: kindMapping, goType: goType, elem: value}, nil
}
