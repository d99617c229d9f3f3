// Package catalog loads the list of rule sources, the v2fly service names,
// the ignore-list and the built-in rule lists from a YAML, JSON or TOML file.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/ai-rules/internal/rules/common/utils"
	"github.com/haukened/ai-rules/internal/rules/repos/parsers"
)

// ErrUnsupportedExtension is returned for catalog files that are not YAML, JSON or TOML.
var ErrUnsupportedExtension = errors.New("unsupported catalog file extension")

// Source is one named group of remote rule lists sharing a syntax.
type Source struct {
	Name   string   `koanf:"name" validate:"required"`
	Format string   `koanf:"format" validate:"omitempty,oneof=classical structured clash surge v2fly"`
	URLs   []string `koanf:"urls" validate:"required,min=1,dive,http_url"`
}

// ParsedFormat returns the parser format for the source. Validation has
// already rejected unknown names, so the error is only reachable for
// hand-built values.
func (s Source) ParsedFormat() (parsers.Format, error) {
	return parsers.ParseFormat(s.Format)
}

// V2fly names the domain-list-community data files to pull.
type V2fly struct {
	BaseURL  string   `koanf:"base_url" validate:"omitempty,http_url"`
	Services []string `koanf:"services" validate:"dive,required"`
}

// URL returns the raw data URL for one service.
func (v V2fly) URL(service string) string {
	base := v.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + service
}

// Builtin holds rules that are always part of the output regardless of
// what the remote sources return.
type Builtin struct {
	Domains  []string `koanf:"domains"`
	Suffixes []string `koanf:"suffixes"`
	Keywords []string `koanf:"keywords"`
	IPCIDRs  []string `koanf:"ip_cidrs" validate:"dive,cidr"`
	IPASNs   []string `koanf:"ip_asns"`
}

// Catalog is the full description of where rules come from.
type Catalog struct {
	Sources         []Source `koanf:"sources" validate:"dive"`
	V2fly           V2fly    `koanf:"v2fly"`
	IgnoredSuffixes []string `koanf:"ignored_suffixes"`
	Builtin         Builtin  `koanf:"builtin"`
}

// SourceNames lists the configured source names, v2fly included when it has
// services, in catalog order.
func (c *Catalog) SourceNames() []string {
	names := make([]string, 0, len(c.Sources)+1)
	for _, s := range c.Sources {
		names = append(names, s.Name)
	}
	if len(c.V2fly.Services) > 0 {
		names = append(names, "v2fly")
	}
	return names
}

// Ignored returns the ignore-list in canonical form.
func (c *Catalog) Ignored() []string {
	out := make([]string, 0, len(c.IgnoredSuffixes))
	for _, s := range c.IgnoredSuffixes {
		if s = utils.CanonicalDomain(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parserFor picks the koanf parser by file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
	}
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	var c Catalog
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("error unmarshalling catalog %s: %w", path, err)
	}
	if err := Validate(&c); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// ErrMissingV2flyBase is returned when v2fly services are listed without a base URL.
var ErrMissingV2flyBase = errors.New("v2fly services configured without base_url")

// Validate checks a catalog against its struct tags.
func Validate(c *Catalog) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if len(c.V2fly.Services) > 0 && c.V2fly.BaseURL == "" {
		return ErrMissingV2flyBase
	}
	return nil
}
