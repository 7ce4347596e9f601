// Package env provides a koanf provider that projects environment
// variables into a nested configuration document. A doubled delimiter
// inside a variable name descends one mapping level, so
//
//	APP_CONN__HOST=test.server.io
//	APP_CONN__PORT=443
//
// becomes {conn: {host: "test.server.io", port: "443"}} under prefix
// "APP_" and delimiter "__". Numeric path segments build arrays:
// APP_FOO__0=a, APP_FOO__1=b yields {foo: ["a", "b"]}.
package env

import (
	"errors"
	"os"
	"strings"

	"github.com/tidwall/sjson"
)

// Env implements koanf.Provider over the process environment.
type Env struct {
	prefix    string
	delim     string
	transform func(key, value string) (string, any)
	environ   func() []string
}

// Provider captures variables carrying the case-sensitive prefix. The
// prefix is stripped and the remainder lowercased; delim sequences become
// nesting boundaries.
func Provider(prefix, delim string) *Env {
	return &Env{
		prefix:  prefix,
		delim:   delim,
		environ: os.Environ,
		transform: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, prefix)), value
		},
	}
}

// ProviderWithTransform lets the caller rewrite each key/value pair before
// it is placed in the document. Returning an empty key drops the variable.
func ProviderWithTransform(prefix, delim string, fn func(key, value string) (string, any)) *Env {
	e := Provider(prefix, delim)
	if fn != nil {
		e.transform = fn
	}
	return e
}

// ReadBytes renders the captured variables as a JSON document, which pairs
// with koanf's JSON parser for loading. sjson assembles the nested paths
// so array indices and deep objects need no bookkeeping here.
func (e *Env) ReadBytes() ([]byte, error) {
	out := "{}"
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if e.prefix != "" && !strings.HasPrefix(name, e.prefix) {
			continue
		}
		key, mapped := e.transform(name, value)
		if key == "" {
			continue
		}
		path := strings.ReplaceAll(key, e.delim, ".")
		next, err := sjson.Set(out, path, mapped)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return []byte(out), nil
}

// Read is not supported; use ReadBytes with a JSON parser.
func (e *Env) Read() (map[string]any, error) {
	return nil, errors.New("env provider does not support Read, load it with a JSON parser")
}
