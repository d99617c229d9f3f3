package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DocumentName is the canonical rule document inside DataDir.
const DocumentName = "ai_projects.json"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Catalog is an optional YAML/JSON/TOML source catalog. Empty selects
	// the built-in catalog.
	Catalog string `koanf:"catalog"`

	DataDir   string `koanf:"data_dir" validate:"required"`
	OutputDir string `koanf:"output_dir" validate:"required"`

	// CustomRules and Collected are optional local inputs; a missing file
	// is empty input.
	CustomRules string `koanf:"custom_rules"`
	Collected   string `koanf:"collected"`

	// SnapshotDB enables the bbolt snapshot store when set.
	SnapshotDB string `koanf:"snapshot_db"`

	FetchTimeout  time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	FetchMaxBytes int64         `koanf:"fetch_max_bytes" validate:"gte=1"`
	UserAgent     string        `koanf:"user_agent" validate:"required"`

	// TagOverride replaces the default policy tag of every tagged format.
	TagOverride string `koanf:"tag_override"`

	// MetricsFile is a node-exporter textfile (*.prom) written after each run.
	MetricsFile string `koanf:"metrics_file" validate:"omitempty,prom_textfile"`

	CheckCacheSize int     `koanf:"check_cache_size" validate:"gte=0"`
	BloomFPRate    float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`
}

// DocumentPath returns the location of the canonical rule document.
func (c *AppConfig) DocumentPath() string {
	return filepath.Join(c.DataDir, DocumentName)
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:            "prod",
	LogLevel:       "info",
	DataDir:        "data",
	OutputDir:      "rules",
	CustomRules:    "data/custom_rules.txt",
	Collected:      "data/collected_projects.json",
	FetchTimeout:   10 * time.Second,
	FetchMaxBytes:  5 * 1024 * 1024,
	UserAgent:      "ai-rules/1.0",
	CheckCacheSize: 1024,
	BloomFPRate:    0.01,
}

// validPromTextfile accepts paths the node-exporter textfile collector reads.
func validPromTextfile(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return strings.HasSuffix(p, ".prom") && filepath.Base(p) != ".prom"
}

// envLoader loads environment variables with the prefix "AIRULES_",
// lower-casing keys and trimming values. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "AIRULES_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "AIRULES_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "prom_textfile" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("prom_textfile", validPromTextfile)
}

// Load reads defaults and environment variables and returns a validated AppConfig.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
