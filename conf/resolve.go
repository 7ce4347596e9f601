package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/v2"
)

const (
	substStart = "${"
	substEnd   = "}"
	envScheme  = "env:"
)

// resolveSubstitutions rewrites string values containing ${path} or
// ${env:NAME} references. Config references resolve against the merged
// document; unresolvable references are left verbatim so the decoder can
// report them in context. Passes repeat until a fixpoint or the cap, which
// lets chained references settle without looping on cycles.
func resolveSubstitutions(k *koanf.Koanf, maxPasses int) {
	if maxPasses < 1 {
		maxPasses = 1
	}
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for key, val := range k.All() {
			s, ok := val.(string)
			if !ok {
				continue
			}
			next, replaced := resolveString(k, key, s)
			if replaced {
				k.Set(key, next)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// resolveString rewrites one value, replacing every resolvable reference it
// holds, so the pass cap only governs chains across keys. A value that is
// exactly one reference keeps the referent's type; embedded references
// stringify. Unresolvable references are skipped and left verbatim.
func resolveString(k *koanf.Koanf, key, val string) (any, bool) {
	replaced := false
	searchFrom := 0
	for {
		start := strings.Index(val[searchFrom:], substStart)
		if start < 0 {
			break
		}
		start += searchFrom
		rest := val[start+len(substStart):]
		end := strings.Index(rest, substEnd)
		if end < 0 {
			break
		}
		ref := rest[:end]

		target, ok := lookup(k, key, ref)
		if !ok {
			searchFrom = start + len(substStart)
			continue
		}

		if !replaced && start == 0 && end == len(rest)-len(substEnd) {
			return target, true
		}
		// scanning resumes after the substituted text: references a referent
		// drags in settle on the next pass, so cycles cannot spin here
		rendered := fmt.Sprintf("%v", target)
		val = val[:start] + rendered + val[start+len(substStart)+end+len(substEnd):]
		searchFrom = start + len(rendered)
		replaced = true
	}
	return val, replaced
}

func lookup(k *koanf.Koanf, key, ref string) (any, bool) {
	if name, ok := strings.CutPrefix(ref, envScheme); ok {
		value, found := os.LookupEnv(name)
		return value, found
	}
	// a key referencing itself can never settle
	if ref == key || !k.Exists(ref) {
		return nil, false
	}
	return k.Get(ref), true
}
