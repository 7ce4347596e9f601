// Package node defines the format-agnostic value tree produced by the
// configuration parsers and consumed by the decoder. A Node is immutable
// once built; decoding only ever reads it.
package node

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is a single key/value pair of a Mapping node. Mappings keep their
// source order so diagnostics and candidate enumeration stay deterministic.
type Entry struct {
	Key   string
	Value Node
}

// Node is one value in the tree. The zero value is a Null node.
type Node struct {
	kind    Kind
	boolv   bool
	intv    int64
	floatv  float64
	strv    string
	seq     []Node
	entries []Entry
}

func Null() Node            { return Node{kind: KindNull} }
func Bool(v bool) Node      { return Node{kind: KindBool, boolv: v} }
func Int(v int64) Node      { return Node{kind: KindInt, intv: v} }
func Float(v float64) Node  { return Node{kind: KindFloat, floatv: v} }
func String(v string) Node  { return Node{kind: KindString, strv: v} }
func Seq(items ...Node) Node { return Node{kind: KindSequence, seq: items} }

// Map builds a Mapping node. Later duplicate keys override earlier ones
// while keeping the first occurrence's position, mirroring how the
// supported text formats treat repeated keys.
func Map(entries ...Entry) Node {
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if at, ok := index[e.Key]; ok {
			out[at].Value = e.Value
			continue
		}
		index[e.Key] = len(out)
		out = append(out, e)
	}
	return Node{kind: KindMapping, entries: out}
}

func (n Node) Kind() Kind { return n.kind }

func (n Node) IsNull() bool { return n.kind == KindNull }

func (n Node) Bool() bool { return n.boolv }

func (n Node) Int() int64 { return n.intv }

// Float returns the numeric value of an Int or Float node.
func (n Node) Float() float64 {
	if n.kind == KindInt {
		return float64(n.intv)
	}
	return n.floatv
}

func (n Node) Str() string { return n.strv }

func (n Node) Seq() []Node { return n.seq }

func (n Node) Entries() []Entry { return n.entries }

// Get looks up a mapping key. Mappings are small in practice so a linear
// scan keeps the node layout simple and preserves ordering for free.
func (n Node) Get(key string) (Node, bool) {
	for _, e := range n.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Node{}, false
}

// Keys returns the mapping keys in source order.
func (n Node) Keys() []string {
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the element count of a Sequence or Mapping node.
func (n Node) Len() int {
	if n.kind == KindMapping {
		return len(n.entries)
	}
	return len(n.seq)
}

// Equal reports deep structural equality, including numeric kind: the
// integer 1 and the float 1.0 are not equal.
func (n Node) Equal(other Node) bool {
	if n.kind != other.kind {
		return false
	}
	switch n.kind {
	case KindNull:
		return true
	case KindBool:
		return n.boolv == other.boolv
	case KindInt:
		return n.intv == other.intv
	case KindFloat:
		return n.floatv == other.floatv
	case KindString:
		return n.strv == other.strv
	case KindSequence:
		if len(n.seq) != len(other.seq) {
			return false
		}
		for i := range n.seq {
			if !n.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(n.entries) != len(other.entries) {
			return false
		}
		for i := range n.entries {
			if n.entries[i].Key != other.entries[i].Key {
				return false
			}
			if !n.entries[i].Value.Equal(other.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a compact single-line form, mainly for tests and logs.
func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	switch n.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(n.boolv))
	case KindInt:
		b.WriteString(strconv.FormatInt(n.intv, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(n.floatv, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(n.strv))
	case KindSequence:
		b.WriteByte('[')
		for i, item := range n.seq {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	case KindMapping:
		b.WriteByte('{')
		for i, e := range n.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			e.Value.write(b)
		}
		b.WriteByte('}')
	}
}

// FromAny converts parser output (nested map[string]any / []any / scalars,
// the shape every koanf parser produces) into a Node tree.
//
// Two parser quirks are normalized here rather than in the decoder:
// map iteration order is undefined for map[string]any inputs, so keys are
// sorted for determinism; and encoding/json reports every number as a
// float64, so exact-integral floats are restored to integer nodes.
func FromAny(v any) (Node, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Node:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(int64(val)), nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return Float(float64(val)), nil
		}
		return Int(int64(val)), nil
	case float32:
		return fromFloat(float64(val)), nil
	case float64:
		return fromFloat(val), nil
	case []any:
		items := make([]Node, len(val))
		for i, item := range val {
			n, err := FromAny(item)
			if err != nil {
				return Node{}, err
			}
			items[i] = n
		}
		return Seq(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			n, err := FromAny(val[k])
			if err != nil {
				return Node{}, err
			}
			entries = append(entries, Entry{Key: k, Value: n})
		}
		return Map(entries...), nil
	default:
		return Node{}, fmt.Errorf("node: unsupported value %T", v)
	}
}

func fromFloat(f float64) Node {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < math.MaxInt64 {
		return Int(int64(f))
	}
	return Float(f)
}
