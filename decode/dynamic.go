package decode

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/goliatone/go-dataconf/node"
)

// DynamicValue converts a node tree into a self-describing Go value with
// no further interpretation: mappings become map[string]any, sequences
// []any, scalars their natural kind, and null becomes nil. Numeric kinds
// are preserved exactly (integers stay int64, floats stay float64).
func DynamicValue(n node.Node) any {
	switch n.Kind() {
	case node.KindNull:
		return nil
	case node.KindBool:
		return n.Bool()
	case node.KindInt:
		return n.Int()
	case node.KindFloat:
		return n.Float()
	case node.KindString:
		return n.Str()
	case node.KindSequence:
		items := n.Seq()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = DynamicValue(item)
		}
		return out
	default: // node.KindMapping
		out := make(map[string]any, n.Len())
		for _, e := range n.Entries() {
			out[e.Key] = DynamicValue(e.Value)
		}
		return out
	}
}

// As projects a dynamic value (typically a map[string]any captured by an
// `any` field) into T using weakly typed mapstructure decoding. It is an
// escape hatch for subtrees the host only sometimes needs in typed form.
func As[T any](v any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("decode: building dynamic decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return out, fmt.Errorf("decode: projecting dynamic value: %w", err)
	}
	return out, nil
}
