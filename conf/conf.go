// Package conf loads configuration documents from text, files, URLs,
// environment variables, flags, and in-memory maps, merges them by
// priority, resolves ${} substitutions, and decodes the result into a
// typed value through the decode package.
package conf

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-dataconf/decode"
	"github.com/goliatone/go-dataconf/logger"
	"github.com/goliatone/go-dataconf/node"
)

const defaultDelimiter = "."

// DefaultLoadTimeout bounds source retrieval; decoding itself is
// synchronous and needs no deadline.
var DefaultLoadTimeout = 30 * time.Second

// Options configure one load call.
type Options struct {
	decodeOpts []decode.Option
	logger     logger.Logger
	resolve    bool
	passes     int
	timeout    time.Duration
}

type Option func(*Options)

// WithLenientKeys drops unexpected mapping keys instead of failing.
func WithLenientKeys() Option {
	return func(o *Options) {
		o.decodeOpts = append(o.decodeOpts, decode.WithLenientKeys())
	}
}

// WithDecodeOptions forwards options to the decoder.
func WithDecodeOptions(opts ...decode.Option) Option {
	return func(o *Options) {
		o.decodeOpts = append(o.decodeOpts, opts...)
	}
}

// WithLogger replaces the default logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutResolver disables ${} substitution resolution.
func WithoutResolver() Option {
	return func(o *Options) { o.resolve = false }
}

// WithResolvePasses caps substitution passes for chains of references
// (minimum 1).
func WithResolvePasses(passes int) Option {
	return func(o *Options) {
		if passes > 0 {
			o.passes = passes
		}
	}
}

// WithTimeout bounds source retrieval time.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{
		logger:  logger.Default("conf"),
		resolve: true,
		passes:  4,
		timeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Load merges the sources in priority order, resolves substitutions, and
// decodes the merged tree into T. Decode failures surface the decode
// package's path-annotated diagnostics wrapped with load context.
func Load[T any](ctx context.Context, sources []Source, opts ...Option) (T, error) {
	var zero T
	o := buildOptions(opts)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return zero, err
		}
	}
	ordered := make([]Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(defaultDelimiter)
	for _, src := range ordered {
		o.logger.Debug("loading source", "source_type", src.Type(), "priority", src.Priority())
		if err := src.Load(ctx, k); err != nil {
			return zero, err
		}
	}

	if o.resolve {
		resolveSubstitutions(k, o.passes)
	}

	root, err := node.FromAny(anyMap(k.Raw()))
	if err != nil {
		return zero, errors.Wrap(err, errors.CategoryOperation, "failed to build configuration tree").
			WithTextCode("TREE_BUILD_FAILED")
	}

	out, err := decode.Decode[T](root, o.decodeOpts...)
	if err != nil {
		return zero, errors.Wrap(err, errors.CategoryValidation, "failed to decode configuration").
			WithTextCode("CONFIG_DECODE_FAILED").
			WithMetadata(map[string]any{
				"sources": len(sources),
				"path":    decodePath(err),
			})
	}
	return out, nil
}

// LoadString decodes configuration text in the given format (FormatHOCON
// when empty).
func LoadString[T any](text string, format Format, opts ...Option) (T, error) {
	return Load[T](context.Background(), []Source{String(text, format)}, opts...)
}

// LoadFile decodes a configuration file, inferring its format from the
// extension.
func LoadFile[T any](path string, opts ...Option) (T, error) {
	return Load[T](context.Background(), []Source{File(path)}, opts...)
}

// LoadURL fetches and decodes a configuration document over HTTP(S).
func LoadURL[T any](rawURL string, opts ...Option) (T, error) {
	return Load[T](context.Background(), []Source{URL(rawURL)}, opts...)
}

// LoadEnv decodes prefixed environment variables.
func LoadEnv[T any](prefix string, opts ...Option) (T, error) {
	return Load[T](context.Background(), []Source{Env(prefix)}, opts...)
}

// LoadMap decodes an in-memory nested map.
func LoadMap[T any](values map[string]any, opts ...Option) (T, error) {
	return Load[T](context.Background(), []Source{Map(values)}, opts...)
}

func anyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func decodePath(err error) string {
	if pe, ok := err.(decode.PathError); ok {
		return pe.DecodePath()
	}
	return ""
}
