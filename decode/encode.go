package decode

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/goliatone/go-dataconf/node"
)

// Encode converts a typed value back into a value tree. It is the inverse
// of Decode for values without ambiguous subtype fields: nil optionals are
// dropped, enumerations render as their member name, timestamps and
// periods as the literals the decoder accepts.
func Encode(value any) (node.Node, error) {
	if value == nil {
		return node.Null(), nil
	}
	return encodeValue(reflect.ValueOf(value))
}

func encodeValue(v reflect.Value) (node.Node, error) {
	t := v.Type()

	if set, ok := reg.enumFor(t); ok {
		for _, m := range set.members {
			if m.value.Convert(t).Interface() == v.Interface() {
				return node.String(m.name), nil
			}
		}
		return node.Node{}, fmt.Errorf("decode: %v is not a registered member of %s", v.Interface(), t)
	}

	switch t {
	case timeType:
		return node.String(v.Interface().(time.Time).Format(time.RFC3339)), nil
	case periodType:
		return node.String(v.Interface().(Period).String()), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return node.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return node.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return node.Int(int64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return node.Float(v.Float()), nil
	case reflect.String:
		return node.String(v.String()), nil

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return node.Null(), nil
		}
		return encodeValue(v.Elem())

	case reflect.Slice:
		items := make([]node.Node, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := encodeValue(v.Index(i))
			if err != nil {
				return node.Node{}, err
			}
			items[i] = item
		}
		return node.Seq(items...), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return node.Node{}, fmt.Errorf("decode: cannot encode map with %s keys", t.Key())
		}
		keys := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		entries := make([]node.Entry, 0, len(keys))
		for _, k := range keys {
			value, err := encodeValue(v.MapIndex(reflect.ValueOf(k).Convert(t.Key())))
			if err != nil {
				return node.Node{}, err
			}
			entries = append(entries, node.Entry{Key: k, Value: value})
		}
		return node.Map(entries...), nil

	case reflect.Struct:
		d, err := DescriptorOf(t)
		if err != nil {
			return node.Node{}, err
		}
		entries := make([]node.Entry, 0, len(d.fields))
		for _, f := range d.fields {
			fv := v.FieldByIndex(f.index)
			if f.desc.kind == kindOptional && fv.IsNil() {
				continue
			}
			if f.desc.kind == kindDynamic && fv.IsNil() {
				continue
			}
			value, err := encodeValue(fv)
			if err != nil {
				return node.Node{}, err
			}
			entries = append(entries, node.Entry{Key: f.name, Value: value})
		}
		return node.Map(entries...), nil

	default:
		return node.Node{}, fmt.Errorf("decode: cannot encode %s value", t)
	}
}
