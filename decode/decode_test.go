package decode

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-dataconf/node"
)

// open base with two shape-distinct candidates
type inputType interface{ isInput() }

type stringImpl struct {
	Name string
	Age  string
}

func (stringImpl) isInput() {}

type intImpl struct {
	AreaCode int
	PhoneNum string
}

func (intImpl) isInput() {}

// open base whose candidates share a shape, forcing ambiguity
type ambigBase interface{ isAmbig() }

type ambigOne struct {
	Bar string
}

func (ambigOne) isAmbig() {}

type ambigTwo struct {
	Bar string
}

func (ambigTwo) isAmbig() {}

// closed union over a record and a bare string
type textOrRecord interface{}

type unionRecord struct {
	A string
}

type color int

const (
	colorRed color = iota + 1
	colorGreen
	colorBlue
)

func init() {
	Register[inputType, intImpl]()
	Register[inputType, stringImpl]()
	Register[ambigBase, ambigOne]()
	Register[ambigBase, ambigTwo]()
	RegisterUnion[textOrRecord](unionRecord{}, "")
	RegisterEnum[color](
		EnumMember[color]{Name: "RED", Value: colorRed},
		EnumMember[color]{Name: "GREEN", Value: colorGreen},
		EnumMember[color]{Name: "BLUE", Value: colorBlue},
	)
}

func entry(key string, n node.Node) node.Entry {
	return node.Entry{Key: key, Value: n}
}

func TestDecodeSimpleRecord(t *testing.T) {
	type A struct {
		A string
	}
	got, err := Decode[A](node.Map(entry("a", node.String("test"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.A != "test" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodePrimitives(t *testing.T) {
	type A struct {
		B bool
		I int
		F float64
		S string
	}
	root := node.Map(
		entry("b", node.Bool(false)),
		entry("i", node.Int(42)),
		entry("f", node.Float(2.5)),
		entry("s", node.String("x")),
	)
	got, err := Decode[A](root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.B || got.I != 42 || got.F != 2.5 || got.S != "x" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodeBooleanLiterals(t *testing.T) {
	type A struct {
		A bool
	}
	tests := []struct {
		name    string
		value   node.Node
		want    bool
		wantErr bool
	}{
		{"native false", node.Bool(false), false, false},
		{"string true", node.String("true"), true, false},
		{"case insensitive", node.String("FALSE"), false, false},
		{"unrecognized literal", node.String("yes"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[A](node.Map(entry("a", tt.value)))
			if tt.wantErr {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.A != tt.want {
				t.Fatalf("got %v, want %v", got.A, tt.want)
			}
		})
	}
}

func TestNumericWideningOneWay(t *testing.T) {
	type F struct {
		A float64
	}
	got, err := Decode[F](node.Map(entry("a", node.Int(3))))
	if err != nil {
		t.Fatalf("int into float should widen: %v", err)
	}
	if got.A != 3.0 {
		t.Fatalf("got %v", got.A)
	}

	type I struct {
		A int
	}
	_, err = Decode[I](node.Map(entry("a", node.Float(3.5))))
	var mce *MalformedConfigError
	if !errors.As(err, &mce) {
		t.Fatalf("float into int must fail, got %v", err)
	}
	if mce.DecodePath() != ".a" {
		t.Fatalf("unexpected path %q", mce.DecodePath())
	}
}

func TestDecodeSequence(t *testing.T) {
	type A struct {
		A []string
	}
	got, err := Decode[A](node.Map(entry("a", node.Seq(node.String("test")))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.A) != 1 || got.A[0] != "test" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodeSequenceElementPath(t *testing.T) {
	type A struct {
		A []int
	}
	_, err := Decode[A](node.Map(entry("a", node.Seq(node.Int(1), node.String("x")))))
	var mce *MalformedConfigError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MalformedConfigError, got %v", err)
	}
	if mce.DecodePath() != ".a[1]" {
		t.Fatalf("unexpected path %q", mce.DecodePath())
	}
}

func TestDecodeMapping(t *testing.T) {
	type A struct {
		A map[string]string
	}
	got, err := Decode[A](node.Map(entry("a", node.Map(entry("b", node.String("test"))))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.A["b"] != "test" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodeNestedRecord(t *testing.T) {
	type B struct {
		A string
	}
	type A struct {
		B B
	}
	got, err := Decode[A](node.Map(entry("b", node.Map(entry("a", node.String("test"))))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.B.A != "test" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodeRootMapping(t *testing.T) {
	got, err := Decode[map[string]string](node.Map(entry("b", node.String("c"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["b"] != "c" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestDecodeOptional(t *testing.T) {
	type A struct {
		B *string
	}

	got, err := Decode[A](node.Map())
	if err != nil {
		t.Fatalf("absent optional must succeed: %v", err)
	}
	if got.B != nil {
		t.Fatalf("expected no value, got %v", *got.B)
	}

	got, err = Decode[A](node.Map(entry("b", node.Null())))
	if err != nil {
		t.Fatalf("explicit null must succeed: %v", err)
	}
	if got.B != nil {
		t.Fatalf("expected no value, got %v", *got.B)
	}

	got, err = Decode[A](node.Map(entry("b", node.String("test"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.B == nil || *got.B != "test" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestMissingRequiredField(t *testing.T) {
	type A struct {
		B string
	}
	_, err := Decode[A](node.Map(entry("typo", node.String("c"))), WithLenientKeys())
	var mce *MalformedConfigError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MalformedConfigError, got %v", err)
	}
	if mce.DecodePath() != ".b" {
		t.Fatalf("unexpected path %q", mce.DecodePath())
	}
	if !strings.Contains(err.Error(), "no b found") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnexpectedKeys(t *testing.T) {
	type A struct {
		A string
	}
	root := node.Map(
		entry("a", node.String("hello")),
		entry("b", node.String("world")),
	)

	_, err := Decode[A](root)
	var uke *UnexpectedKeysError
	if !errors.As(err, &uke) {
		t.Fatalf("expected UnexpectedKeysError, got %v", err)
	}
	if len(uke.Keys) != 1 || uke.Keys[0] != "b" {
		t.Fatalf("unexpected keys %v", uke.Keys)
	}

	got, err := Decode[A](root, WithLenientKeys())
	if err != nil {
		t.Fatalf("lenient decode must succeed: %v", err)
	}
	if got.A != "hello" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestUnexpectedKeysSorted(t *testing.T) {
	type A struct {
		A string
	}
	_, err := Decode[A](node.Map(
		entry("z", node.Int(1)),
		entry("a", node.String("hello")),
		entry("m", node.Int(2)),
	))
	var uke *UnexpectedKeysError
	if !errors.As(err, &uke) {
		t.Fatalf("expected UnexpectedKeysError, got %v", err)
	}
	if len(uke.Keys) != 2 || uke.Keys[0] != "m" || uke.Keys[1] != "z" {
		t.Fatalf("keys not sorted: %v", uke.Keys)
	}
}

func TestTagDefaults(t *testing.T) {
	type A struct {
		B string `default:"c"`
	}
	got, err := Decode[A](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.B != "c" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

type defaultedList struct {
	B []string
}

type defaultedArgs struct {
	BeamArgs []string
}

func init() {
	RegisterDefaultFunc[defaultedList]("b", func() any { return []string{} })
	RegisterDefault[defaultedArgs]("beam_args", []string{
		"--direct_running_mode=multi_processing",
		"--direct_num_workers=0",
	})
}

func TestDeferredDefaultProducer(t *testing.T) {
	got, err := Decode[defaultedList](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.B == nil || len(got.B) != 0 {
		t.Fatalf("expected empty slice, got %#v", got.B)
	}
}

func TestLiteralDefaultIsCloned(t *testing.T) {
	first, err := Decode[defaultedArgs](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Decode[defaultedArgs](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.BeamArgs[0] = "mutated"
	if second.BeamArgs[0] != "--direct_running_mode=multi_processing" {
		t.Fatal("default slice shared between decodes")
	}
}

func TestPointerDefaultNotShared(t *testing.T) {
	type cfg struct {
		SSL *bool `default:"true"`
	}
	first, err := Decode[cfg](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Decode[cfg](node.Map())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.SSL == second.SSL {
		t.Fatal("default pointer shared between decodes")
	}
	*first.SSL = false
	if !*second.SSL {
		t.Fatal("mutating one result changed another")
	}
}

func TestEnumResolution(t *testing.T) {
	type A struct {
		B color
	}
	tests := []struct {
		name  string
		value node.Node
		want  color
	}{
		{"by name", node.String("RED"), colorRed},
		{"by raw int", node.Int(2), colorGreen},
		{"by raw string", node.String("2"), colorGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[A](node.Map(entry("b", tt.value)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.B != tt.want {
				t.Fatalf("got %v, want %v", got.B, tt.want)
			}
		})
	}

	_, err := Decode[A](node.Map(entry("b", node.String("PURPLE"))))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(pe.Error(), "RED, GREEN, BLUE") {
		t.Fatalf("message should list valid names: %q", pe.Error())
	}
}

func TestTemporal(t *testing.T) {
	type A struct {
		B time.Time
	}
	got, err := Decode[A](node.Map(entry("b", node.String("1997-07-16T19:20:07+01:00"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(1997, 7, 16, 18, 20, 7, 0, time.UTC)
	if !got.B.Equal(want) {
		t.Fatalf("got %v, want instant %v", got.B, want)
	}

	_, err = Decode[A](node.Map(entry("b", node.String("1997-07-16 19:20:0701:00"))))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestPeriodField(t *testing.T) {
	type A struct {
		A Period
	}
	got, err := Decode[A](node.Map(entry("a", node.String("2d"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.A != (Period{Days: 2}) {
		t.Fatalf("unexpected result: %#v", got.A)
	}
}

func TestUnionShortCircuit(t *testing.T) {
	type A struct {
		B textOrRecord
	}

	got, err := Decode[A](node.Map(entry("b", node.Map(entry("a", node.String("test"))))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := got.B.(unionRecord)
	if !ok {
		t.Fatalf("mapping must match the record variant first, got %T", got.B)
	}
	if rec.A != "test" {
		t.Fatalf("unexpected result: %#v", rec)
	}

	got, err = Decode[A](node.Map(entry("b", node.String("test"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := got.B.(string); !ok || s != "test" {
		t.Fatalf("expected string variant, got %#v", got.B)
	}
}

func TestUnionAllVariantsFail(t *testing.T) {
	type A struct {
		B textOrRecord
	}
	_, err := Decode[A](node.Map(entry("b", node.Int(1))))
	var tce *TypeConfigError
	if !errors.As(err, &tce) {
		t.Fatalf("expected TypeConfigError, got %v", err)
	}
	if len(tce.Causes) != 2 {
		t.Fatalf("expected one cause per variant, got %d", len(tce.Causes))
	}
	if tce.DecodePath() != ".b" {
		t.Fatalf("unexpected path %q", tce.DecodePath())
	}
}

func TestOpenBaseStringImpl(t *testing.T) {
	type base struct {
		Location    string
		InputSource inputType
	}
	root := node.Map(
		entry("location", node.String("Europe")),
		entry("input_source", node.Map(
			entry("name", node.String("Thailand")),
			entry("age", node.String("12")),
		)),
	)
	got, err := Decode[base](root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	impl, ok := got.InputSource.(stringImpl)
	if !ok {
		t.Fatalf("expected stringImpl, got %T", got.InputSource)
	}
	if impl.Name != "Thailand" || impl.Age != "12" {
		t.Fatalf("unexpected result: %#v", impl)
	}
}

func TestOpenBaseIntImpl(t *testing.T) {
	type base struct {
		Location    string
		InputSource inputType
	}
	root := node.Map(
		entry("location", node.String("Europe")),
		entry("input_source", node.Map(
			entry("area_code", node.Int(94)),
			entry("phone_num", node.String("1234567")),
		)),
	)
	got, err := Decode[base](root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	impl, ok := got.InputSource.(intImpl)
	if !ok {
		t.Fatalf("expected intImpl, got %T", got.InputSource)
	}
	if impl.AreaCode != 94 || impl.PhoneNum != "1234567" {
		t.Fatalf("unexpected result: %#v", impl)
	}
}

func TestOpenBaseZeroMatches(t *testing.T) {
	type base struct {
		Location    string
		InputSource inputType
	}
	root := node.Map(
		entry("location", node.String("Europe")),
		entry("input_source", node.Map(
			entry("name", node.String("Thailand")),
			entry("age", node.String("12")),
			entry("city", node.String("Paris")),
		)),
	)
	_, err := Decode[base](root)
	var tce *TypeConfigError
	if !errors.As(err, &tce) {
		t.Fatalf("expected TypeConfigError, got %v", err)
	}
	if tce.DecodePath() != ".input_source" {
		t.Fatalf("unexpected path %q", tce.DecodePath())
	}
	msg := tce.Error()
	if !strings.Contains(msg, "failed subclasses:") {
		t.Fatalf("missing aggregate header: %q", msg)
	}
	// one line per candidate, in registration order: intImpl then stringImpl
	if !strings.Contains(msg, "no area_code found") {
		t.Fatalf("missing intImpl cause: %q", msg)
	}
	if !strings.Contains(msg, `unexpected key(s) "city"`) {
		t.Fatalf("missing stringImpl cause: %q", msg)
	}
	intAt := strings.Index(msg, "no area_code found")
	strAt := strings.Index(msg, `unexpected key(s) "city"`)
	if intAt > strAt {
		t.Fatalf("causes out of registration order: %q", msg)
	}
}

func TestOpenBaseAmbiguity(t *testing.T) {
	type base struct {
		A   string
		Foo ambigBase
	}
	root := node.Map(
		entry("a", node.String("Europe")),
		entry("foo", node.Map(entry("bar", node.String("Baz")))),
	)
	_, err := Decode[base](root)
	var ae *AmbiguousTypeError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AmbiguousTypeError, got %v", err)
	}
	if len(ae.Matches) != 2 || ae.Matches[0] != "ambigOne" || ae.Matches[1] != "ambigTwo" {
		t.Fatalf("matches out of registration order: %v", ae.Matches)
	}
	if !strings.Contains(ae.Error(), "use '_type' to disambiguate") {
		t.Fatalf("unexpected message %q", ae.Error())
	}
}

func TestOpenBaseTypeKeyDisambiguation(t *testing.T) {
	type base struct {
		A   string
		Foo ambigBase
	}
	root := node.Map(
		entry("a", node.String("Europe")),
		entry("foo", node.Map(
			entry("_type", node.String("ambigTwo")),
			entry("bar", node.String("Baz")),
		)),
	)
	got, err := Decode[base](root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.Foo.(ambigTwo); !ok {
		t.Fatalf("expected ambigTwo, got %T", got.Foo)
	}
}

func TestOpenBaseTypeKeyMustBeString(t *testing.T) {
	type base struct {
		Foo ambigBase
	}
	root := node.Map(
		entry("foo", node.Map(
			entry("_type", node.Int(5)),
			entry("bar", node.String("Baz")),
		)),
	)
	_, err := Decode[base](root)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.DecodePath() != ".foo" {
		t.Fatalf("unexpected path %q", pe.DecodePath())
	}
}

func TestOpenBaseTypeKeyUnknownCandidate(t *testing.T) {
	type base struct {
		Foo ambigBase
	}
	root := node.Map(
		entry("foo", node.Map(
			entry("_type", node.String("nope")),
			entry("bar", node.String("Baz")),
		)),
	)
	_, err := Decode[base](root)
	var tce *TypeConfigError
	if !errors.As(err, &tce) {
		t.Fatalf("expected TypeConfigError, got %v", err)
	}
	if !strings.Contains(tce.Error(), `"nope"`) {
		t.Fatalf("unexpected message %q", tce.Error())
	}
}

func TestDynamicScalars(t *testing.T) {
	type base struct {
		Foo any
	}
	tests := []struct {
		name  string
		value node.Node
		want  any
	}{
		{"sequence", node.Seq(node.Int(1), node.Int(2)), []any{int64(1), int64(2)}},
		{"scalar int", node.Int(1), int64(1)},
		{"scalar string", node.String("test"), "test"},
		{"float stays float", node.Float(1.5), 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[base](node.Map(entry("foo", tt.value)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case []any:
				seq, ok := got.Foo.([]any)
				if !ok || len(seq) != len(want) {
					t.Fatalf("unexpected result: %#v", got.Foo)
				}
				for i := range want {
					if seq[i] != want[i] {
						t.Fatalf("item %d: got %#v want %#v", i, seq[i], want[i])
					}
				}
			default:
				if got.Foo != tt.want {
					t.Fatalf("got %#v, want %#v", got.Foo, tt.want)
				}
			}
		})
	}
}

func TestDynamicNestedShapePreserved(t *testing.T) {
	type base struct {
		Foo map[string]any
	}
	root := node.Map(entry("foo", node.Map(
		entry("a", node.Map(
			entry("b", node.Seq(
				node.String("c"),
				node.Map(entry("d", node.Int(1))),
			)),
		)),
	)))
	got, err := Decode[base](root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := got.Foo["a"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected shape: %#v", got.Foo)
	}
	b, ok := a["b"].([]any)
	if !ok || len(b) != 2 {
		t.Fatalf("unexpected shape: %#v", a)
	}
	if b[0] != "c" {
		t.Fatalf("scalar kind changed: %#v", b[0])
	}
	d, ok := b[1].(map[string]any)
	if !ok || d["d"] != int64(1) {
		t.Fatalf("numeric kind changed: %#v", b[1])
	}
}

func TestIdempotentDiagnostics(t *testing.T) {
	type base struct {
		Location    string
		InputSource inputType
	}
	root := node.Map(
		entry("location", node.String("Europe")),
		entry("input_source", node.Map(
			entry("name", node.String("Thailand")),
			entry("age", node.String("12")),
			entry("city", node.String("Paris")),
		)),
	)
	_, err1 := Decode[base](root)
	_, err2 := Decode[base](root)
	if err1 == nil || err2 == nil {
		t.Fatal("expected errors")
	}
	if err1.Error() != err2.Error() {
		t.Fatalf("diagnostics differ between runs:\n%q\n%q", err1.Error(), err2.Error())
	}
}

func TestRecursionDepthGuard(t *testing.T) {
	type nested struct {
		N *nested
	}
	deep := node.Null()
	for i := 0; i < DefaultMaxDepth+8; i++ {
		deep = node.Map(entry("n", deep))
	}
	_, err := Decode[nested](deep)
	var mce *MalformedConfigError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MalformedConfigError, got %v", err)
	}
	if !strings.Contains(mce.Error(), "maximum depth") {
		t.Fatalf("unexpected message %q", mce.Error())
	}
}

func TestRoundTrip(t *testing.T) {
	type conn struct {
		Host string
		Port int
	}
	type cfg struct {
		Name     string
		Ratio    float64
		Prod     bool
		Tags     []string
		Limits   map[string]int
		Conn     *conn
		Wait     Period
		Deployed time.Time
		Level    color
	}
	in := cfg{
		Name:     "pipeline",
		Ratio:    0.25,
		Prod:     true,
		Tags:     []string{"a", "b"},
		Limits:   map[string]int{"cpu": 4},
		Conn:     &conn{Host: "test.server.io", Port: 443},
		Wait:     Period{Days: 2},
		Deployed: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:    colorGreen,
	}

	tree, err := Encode(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out, err := Decode[cfg](tree)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Name != in.Name || out.Ratio != in.Ratio || out.Prod != in.Prod ||
		out.Wait != in.Wait || out.Level != in.Level || !out.Deployed.Equal(in.Deployed) {
		t.Fatalf("round trip mismatch: %#v", out)
	}
	if len(out.Tags) != 2 || out.Tags[1] != "b" {
		t.Fatalf("tags mismatch: %#v", out.Tags)
	}
	if out.Limits["cpu"] != 4 {
		t.Fatalf("limits mismatch: %#v", out.Limits)
	}
	if out.Conn == nil || *out.Conn != *in.Conn {
		t.Fatalf("conn mismatch: %#v", out.Conn)
	}
}

func TestRoundTripOptionalDropped(t *testing.T) {
	type cfg struct {
		A string
		B *string
	}
	tree, err := Encode(cfg{A: "x"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, ok := tree.Get("b"); ok {
		t.Fatalf("nil optional should be absent, got %s", tree)
	}
	out, err := Decode[cfg](tree)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.A != "x" || out.B != nil {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestDecodeValueWithManualDescriptor(t *testing.T) {
	item, err := Of[string]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, err := SequenceOf(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeValue(node.Seq(node.String("a"), node.String("b")), seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := got.([]string)
	if !ok || len(out) != 2 || out[1] != "b" {
		t.Fatalf("unexpected result: %#v", got)
	}
}
