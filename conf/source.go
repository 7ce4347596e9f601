package conf

import (
	"context"
	goerrors "errors"
	"io"
	"os"
	"syscall"

	"github.com/goliatone/go-errors"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-dataconf/koanf/providers/env"
)

type SourceType string

const (
	SourceTypeString SourceType = "string"
	SourceTypeFile   SourceType = "file"
	SourceTypeURL    SourceType = "url"
	SourceTypeMap    SourceType = "map"
	SourceTypeEnv    SourceType = "env"
	SourceTypeFlags  SourceType = "pflag"
)

func (s SourceType) String() string {
	return string(s)
}

func (s SourceType) validate() error {
	switch s {
	case SourceTypeString, SourceTypeFile, SourceTypeURL, SourceTypeMap, SourceTypeEnv, SourceTypeFlags:
		return nil
	default:
		return errors.New("invalid source type", errors.CategoryValidation).
			WithTextCode("INVALID_SOURCE_TYPE").
			WithMetadata(map[string]any{"source_type": string(s)})
	}
}

// Source contributes one layer of configuration to a load. Sources merge
// in ascending Priority order, so later layers override earlier ones.
type Source interface {
	Type() SourceType
	Priority() int
	Validate() error
	Load(context.Context, *koanf.Koanf) error
}

// Priority anchors for the built-in sources. Offsets slot custom sources
// between them, e.g. PriorityFile.WithOffset(10) for a local override file.
type Priority int

func (p Priority) WithOffset(offset int) Priority {
	return Priority(int(p) + offset)
}

var (
	PriorityMap   Priority = 0
	PriorityFile  Priority = 20
	PriorityURL   Priority = 25
	PriorityEnv   Priority = 30
	PriorityFlags Priority = 40
)

// DefaultEnvDelimiter separates nesting levels inside environment variable
// names, so COMPOSED_WORDS stay addressable.
const DefaultEnvDelimiter = "__"

type source struct {
	sourceType SourceType
	priority   int
	load       func(context.Context, *koanf.Koanf) error
}

func (s *source) Type() SourceType { return s.sourceType }
func (s *source) Priority() int    { return s.priority }
func (s *source) Validate() error  { return s.sourceType.validate() }

func (s *source) Load(ctx context.Context, k *koanf.Koanf) error {
	return s.load(ctx, k)
}

// String makes text in the given format a source. Pass FormatHOCON ("") to
// get the default format.
func String(text string, format Format, priority ...Priority) Source {
	if format == "" {
		format = FormatHOCON
	}
	return &source{
		sourceType: SourceTypeString,
		priority:   pick(PriorityMap, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			if err := format.Valid(); err != nil {
				return err
			}
			parsed, err := format.Parser().Unmarshal([]byte(text))
			if err != nil {
				return errors.Wrap(err, errors.CategoryBadInput, "failed to parse configuration text").
					WithTextCode("TEXT_PARSE_FAILED").
					WithMetadata(map[string]any{"format": string(format)})
			}
			return loadMap(k, parsed)
		},
	}
}

// File makes a configuration file a source, inferring the format from the
// extension (.conf/.hocon, .json, .yaml/.yml, .toml).
func File(path string, priority ...Priority) Source {
	format := inferFormat(path)
	return &source{
		sourceType: SourceTypeFile,
		priority:   pick(PriorityFile, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			if err := k.Load(file.Provider(path), format.Parser()); err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration file").
					WithTextCode("FILE_LOAD_FAILED").
					WithMetadata(map[string]any{
						"filepath": path,
						"format":   string(format),
					})
			}
			return nil
		},
	}
}

// URL fetches configuration over HTTP(S) with retries, inferring the
// format from the URL path.
func URL(rawURL string, priority ...Priority) Source {
	format := inferFormat(rawURL)
	return &source{
		sourceType: SourceTypeURL,
		priority:   pick(PriorityURL, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			body, err := fetch(ctx, rawURL)
			if err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to fetch configuration URL").
					WithTextCode("URL_FETCH_FAILED").
					WithMetadata(map[string]any{"url": rawURL})
			}
			parsed, err := format.Parser().Unmarshal(body)
			if err != nil {
				return errors.Wrap(err, errors.CategoryBadInput, "failed to parse fetched configuration").
					WithTextCode("URL_PARSE_FAILED").
					WithMetadata(map[string]any{
						"url":    rawURL,
						"format": string(format),
					})
			}
			return loadMap(k, parsed)
		},
	}
}

// Map makes an in-memory nested map a source, typically for defaults.
func Map(values map[string]any, priority ...Priority) Source {
	return &source{
		sourceType: SourceTypeMap,
		priority:   pick(PriorityMap, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			return loadMap(k, values)
		},
	}
}

// Env makes prefixed environment variables a source. The prefix is
// stripped, names are lowercased, and "__" descends one mapping level.
func Env(prefix string, priority ...Priority) Source {
	return &source{
		sourceType: SourceTypeEnv,
		priority:   pick(PriorityEnv, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			provider := env.Provider(prefix, DefaultEnvDelimiter)
			if err := k.Load(provider, json.Parser()); err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to load environment variables").
					WithTextCode("ENV_LOAD_FAILED").
					WithMetadata(map[string]any{
						"prefix":    prefix,
						"delimiter": DefaultEnvDelimiter,
					})
			}
			return nil
		},
	}
}

// Flags makes a parsed pflag set a source, usually the highest-priority
// override layer.
func Flags(flagset *pflag.FlagSet, priority ...Priority) Source {
	return &source{
		sourceType: SourceTypeFlags,
		priority:   pick(PriorityFlags, priority...),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			if flagset == nil {
				return errors.New("flagset cannot be nil", errors.CategoryBadInput).
					WithTextCode("NIL_FLAGSET")
			}
			if err := k.Load(posflag.Provider(flagset, defaultDelimiter, k), nil); err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to load command line flags").
					WithTextCode("FLAGS_LOAD_FAILED")
			}
			return nil
		},
	}
}

// Optional wraps a source so absent-file errors (or errors matched by the
// supplied filters) are ignored instead of failing the load.
func Optional(src Source, ignore ...func(error) bool) Source {
	matches := func(err error) bool {
		if err == nil {
			return false
		}
		if len(ignore) == 0 {
			return goerrors.Is(err, os.ErrNotExist) || goerrors.Is(err, syscall.ENOENT)
		}
		for _, fn := range ignore {
			if fn(err) {
				return true
			}
		}
		return false
	}
	return &source{
		sourceType: src.Type(),
		priority:   src.Priority(),
		load: func(ctx context.Context, k *koanf.Koanf) error {
			if err := src.Load(ctx, k); err != nil && !matches(err) {
				return err
			}
			return nil
		},
	}
}

func loadMap(k *koanf.Koanf, values map[string]any) error {
	if err := k.Load(confmap.Provider(values, defaultDelimiter), nil); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to merge configuration values").
			WithTextCode("MAP_LOAD_FAILED").
			WithMetadata(map[string]any{"values_count": len(values)})
	}
	return nil
}

func fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerrors.New("unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func pick(fallback Priority, priority ...Priority) int {
	if len(priority) > 0 {
		return int(priority[0])
	}
	return int(fallback)
}
