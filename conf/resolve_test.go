package conf

import (
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func koanfOf(t *testing.T, values map[string]any) *koanf.Koanf {
	t.Helper()
	k := koanf.New(defaultDelimiter)
	require.NoError(t, k.Load(confmap.Provider(values, defaultDelimiter), nil))
	return k
}

func TestResolveExactReferenceKeepsType(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"port":  443,
		"alias": "${port}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, 443, k.Get("alias"))
}

func TestResolveEmbeddedReferenceStringifies(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"host": "svc.local",
		"port": 443,
		"addr": "${host}:${port}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "svc.local:443", k.Get("addr"))
}

func TestResolveManyReferencesInOnePass(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"a":    "1",
		"b":    "2",
		"c":    "3",
		"d":    "4",
		"e":    "5",
		"f":    "6",
		"line": "${a}-${b}-${c}-${d}-${e}-${f}",
	})
	// one pass must settle every reference embedded in a single value; the
	// pass cap only budgets chains across keys
	resolveSubstitutions(k, 1)
	assert.Equal(t, "1-2-3-4-5-6", k.Get("line"))
}

func TestResolveSkipsUnresolvableAmongResolvable(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"host": "svc.local",
		"addr": "${no.such.key}:${host}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "${no.such.key}:svc.local", k.Get("addr"))
}

func TestResolveNestedPathReference(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"conn": map[string]any{"host": "svc.local"},
		"url":  "${conn.host}/api",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "svc.local/api", k.Get("url"))
}

func TestResolveChainedReferences(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"a": "base",
		"b": "${a}",
		"c": "${b}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "base", k.Get("c"))
}

func TestResolveEnvReference(t *testing.T) {
	t.Setenv("DATACONF_RESOLVE_TEST", "from-env")
	k := koanfOf(t, map[string]any{
		"value": "${env:DATACONF_RESOLVE_TEST}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "from-env", k.Get("value"))
}

func TestResolveUnknownReferenceLeftVerbatim(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"value": "${no.such.key}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "${no.such.key}", k.Get("value"))
}

func TestResolveSelfReferenceLeftVerbatim(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"value": "${value}",
	})
	resolveSubstitutions(k, 4)
	assert.Equal(t, "${value}", k.Get("value"))
}

func TestResolveCycleTerminates(t *testing.T) {
	k := koanfOf(t, map[string]any{
		"a": "${b}",
		"b": "${a}",
	})
	resolveSubstitutions(k, 4)
	// the pass cap stops the oscillation; both keys still hold strings
	_, aIsString := k.Get("a").(string)
	_, bIsString := k.Get("b").(string)
	assert.True(t, aIsString)
	assert.True(t, bIsString)
}

func TestLoadResolvesSubstitutions(t *testing.T) {
	type cfg struct {
		Host  string
		Port  int
		Alias int
		Addr  string
	}
	got, err := LoadString[cfg](`
host = svc.local
port = 443
alias = ${port}
addr = "${host}:${port}"
`, FormatHOCON)
	require.NoError(t, err)
	assert.Equal(t, 443, got.Alias)
	assert.Equal(t, "svc.local:443", got.Addr)
}

func TestLoadWithoutResolverLeavesLiterals(t *testing.T) {
	type cfg struct {
		Port  int
		Alias string
	}
	got, err := LoadString[cfg]("port = 443\nalias = ${port}", FormatHOCON, WithoutResolver())
	require.NoError(t, err)
	assert.Equal(t, "${port}", got.Alias)
}
