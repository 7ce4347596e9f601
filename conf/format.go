package conf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-dataconf/hocon"
)

// Format identifies a supported configuration text format.
type Format string

const (
	FormatHOCON Format = "hocon"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

func (f Format) String() string {
	return string(f)
}

func (f Format) Valid() error {
	switch f {
	case FormatHOCON, FormatJSON, FormatYAML, FormatTOML:
		return nil
	default:
		return errors.New("invalid config format", errors.CategoryValidation).
			WithTextCode("INVALID_FORMAT").
			WithMetadata(map[string]any{
				"format": string(f),
				"valid_formats": []string{
					string(FormatHOCON),
					string(FormatJSON),
					string(FormatYAML),
					string(FormatTOML),
				},
			})
	}
}

// Parser returns the koanf parser for the format.
func (f Format) Parser() koanf.Parser {
	switch f {
	case FormatJSON:
		return json.Parser()
	case FormatYAML:
		return yaml.Parser()
	case FormatTOML:
		return toml.Parser()
	case FormatHOCON:
		return hocon.Parser()
	default:
		panic(fmt.Errorf("invalid config format: %s", f))
	}
}

// inferFormat maps a file or URL path to its format by extension. HOCON is
// the fallback, matching the library's primary format.
func inferFormat(path string, fallback ...Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".conf", ".hocon":
		return FormatHOCON
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return FormatHOCON
}
