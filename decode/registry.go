package decode

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeKey is the reserved mapping key used to force selection of one
// concrete candidate when decoding into an open base type. It is never
// treated as an ordinary record field.
const TypeKey = "_type"

// registry holds the process-wide type knowledge the decoder consults
// lazily: concrete implementations of open base interfaces, closed union
// variant lists, enumeration members, and per-field default producers.
// Registration is expected at program startup; lookups are safe for
// concurrent use at any time.
type registry struct {
	mu    sync.RWMutex
	impls map[reflect.Type][]candidate
	union map[reflect.Type][]reflect.Type
	enums map[reflect.Type]*enumSet
	defax map[reflect.Type]map[string]func() (any, error)
}

// candidate is one registered concrete implementation of an open base.
type candidate struct {
	name string
	typ  reflect.Type
}

type enumSet struct {
	members []enumMember
}

type enumMember struct {
	name  string
	value reflect.Value
}

var reg = &registry{
	impls: make(map[reflect.Type][]candidate),
	union: make(map[reflect.Type][]reflect.Type),
	enums: make(map[reflect.Type]*enumSet),
	defax: make(map[reflect.Type]map[string]func() (any, error)),
}

// Register declares Impl as a concrete implementation of the open base
// interface Base. Candidates are tried in registration order when a value
// must be disambiguated, and the struct type name is what the reserved
// "_type" key selects. Register panics on misuse since registration is a
// program-definition error, not an input error.
func Register[Base any, Impl any]() {
	base := reflect.TypeFor[Base]()
	impl := reflect.TypeFor[Impl]()
	if base.Kind() != reflect.Interface {
		panic(fmt.Sprintf("decode: Register base %s is not an interface", base))
	}
	if impl.Kind() != reflect.Struct {
		panic(fmt.Sprintf("decode: Register impl %s is not a struct", impl))
	}
	if !impl.Implements(base) && !reflect.PointerTo(impl).Implements(base) {
		panic(fmt.Sprintf("decode: %s does not implement %s", impl, base))
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.union[base]; ok {
		panic(fmt.Sprintf("decode: %s is already registered as a union", base))
	}
	for _, c := range reg.impls[base] {
		if c.typ == impl {
			panic(fmt.Sprintf("decode: %s already registered for %s", impl, base))
		}
	}
	reg.impls[base] = append(reg.impls[base], candidate{name: impl.Name(), typ: impl})
}

// RegisterUnion declares U as a closed tagged union over the given variant
// prototypes. Variants are tried in the order given and the first one that
// decodes wins; unlike open bases there is no uniqueness requirement.
func RegisterUnion[U any](variants ...any) {
	base := reflect.TypeFor[U]()
	if base.Kind() != reflect.Interface {
		panic(fmt.Sprintf("decode: RegisterUnion base %s is not an interface", base))
	}
	if len(variants) == 0 {
		panic(fmt.Sprintf("decode: RegisterUnion %s needs at least one variant", base))
	}
	types := make([]reflect.Type, len(variants))
	for i, v := range variants {
		t := reflect.TypeOf(v)
		if t == nil {
			panic(fmt.Sprintf("decode: RegisterUnion %s variant %d is untyped nil", base, i))
		}
		if !t.AssignableTo(base) {
			panic(fmt.Sprintf("decode: union variant %s is not assignable to %s", t, base))
		}
		types[i] = t
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.impls[base]; ok {
		panic(fmt.Sprintf("decode: %s is already registered as an open base", base))
	}
	if _, ok := reg.union[base]; ok {
		panic(fmt.Sprintf("decode: union %s already registered", base))
	}
	reg.union[base] = types
}

// EnumMember pairs a member name with its backing value for RegisterEnum.
type EnumMember[E any] struct {
	Name  string
	Value E
}

// RegisterEnum declares the named members of enumeration type E. Member
// order is preserved for diagnostics. Resolution matches a member name
// first and only then the backing raw value.
func RegisterEnum[E any](members ...EnumMember[E]) {
	typ := reflect.TypeFor[E]()
	if len(members) == 0 {
		panic(fmt.Sprintf("decode: RegisterEnum %s needs at least one member", typ))
	}
	set := &enumSet{members: make([]enumMember, len(members))}
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		if m.Name == "" {
			panic(fmt.Sprintf("decode: RegisterEnum %s member %d has an empty name", typ, i))
		}
		if seen[m.Name] {
			panic(fmt.Sprintf("decode: RegisterEnum %s duplicate member %q", typ, m.Name))
		}
		seen[m.Name] = true
		set.members[i] = enumMember{name: m.Name, value: reflect.ValueOf(m.Value)}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.enums[typ]; ok {
		panic(fmt.Sprintf("decode: enum %s already registered", typ))
	}
	reg.enums[typ] = set
}

// RegisterDefault attaches a literal default to a field of record type T,
// identified by its config key. The value is deep-cloned on every decode
// so mutable defaults are never shared between results.
func RegisterDefault[T any](field string, value any) {
	RegisterDefaultFunc[T](field, func() any { return value })
}

// RegisterDefaultFunc attaches a deferred default producer to a field of
// record type T. The producer runs only when the field is truly absent
// from the input.
func RegisterDefaultFunc[T any](field string, fn func() any) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("decode: RegisterDefaultFunc target %s is not a struct", typ))
	}
	if fn == nil {
		panic(fmt.Sprintf("decode: RegisterDefaultFunc %s.%s given a nil producer", typ, field))
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	byField, ok := reg.defax[typ]
	if !ok {
		byField = make(map[string]func() (any, error))
		reg.defax[typ] = byField
	}
	byField[field] = func() (any, error) {
		return cloneDefault(fn())
	}
}

func (r *registry) candidatesFor(base reflect.Type) ([]candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cands, ok := r.impls[base]
	if !ok {
		return nil, false
	}
	out := make([]candidate, len(cands))
	copy(out, cands)
	return out, true
}

func (r *registry) unionFor(base reflect.Type) ([]reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types, ok := r.union[base]
	if !ok {
		return nil, false
	}
	out := make([]reflect.Type, len(types))
	copy(out, types)
	return out, true
}

func (r *registry) enumFor(typ reflect.Type) (*enumSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.enums[typ]
	return set, ok
}

func (r *registry) defaultFor(typ reflect.Type, field string) (func() (any, error), bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byField, ok := r.defax[typ]
	if !ok {
		return nil, false
	}
	fn, ok := byField[field]
	return fn, ok
}
