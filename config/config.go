package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/layout"
	"github.com/c360/flowbuilder/pkg/retry"
)

// ID generator names
const (
	IDsSequential = "sequential"
	IDsUUID       = "uuid"
)

// Config represents the complete application configuration
type Config struct {
	Version string         `json:"version" yaml:"version"`
	Layout  layout.Options `json:"layout" yaml:"layout"`
	Editor  EditorConfig   `json:"editor" yaml:"editor"`
	Catalog CatalogConfig  `json:"catalog" yaml:"catalog"`
	Log     LogConfig      `json:"log" yaml:"log"`
}

// EditorConfig controls the editing session
type EditorConfig struct {
	AutoArrange bool        `json:"auto_arrange" yaml:"auto_arrange"`
	IDs         string      `json:"ids" yaml:"ids" validate:"oneof=sequential uuid"`
	TestTimeout Duration    `json:"test_timeout" yaml:"test_timeout" validate:"gt=0"`
	SaveTimeout Duration    `json:"save_timeout" yaml:"save_timeout" validate:"gt=0"`
	Retry       RetryConfig `json:"retry" yaml:"retry"`
}

// RetryConfig is the retry budget for collaborator calls
type RetryConfig struct {
	MaxAttempts  int      `json:"max_attempts" yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelay Duration `json:"initial_delay" yaml:"initial_delay" validate:"gte=0"`
	MaxDelay     Duration `json:"max_delay" yaml:"max_delay" validate:"gtefield=InitialDelay"`
	Multiplier   float64  `json:"multiplier" yaml:"multiplier" validate:"gte=1"`
	Jitter       bool     `json:"jitter" yaml:"jitter"`
}

// CatalogConfig points at additional node type definitions
type CatalogConfig struct {
	Path           string `json:"path,omitempty" yaml:"path,omitempty"`
	ReplaceBuiltin bool   `json:"replace_builtin" yaml:"replace_builtin"`
}

// LogConfig selects the log handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=json text"`
}

// Duration is a time.Duration that reads "30s" style strings, an optional
// "d" day suffix, or plain nanosecond integers.
type Duration time.Duration

// Std returns the time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats the duration the way time.Duration does
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts a duration string or an integer
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDurationWithDays(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON writes the duration as a quoted string
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts a quoted duration string or an integer
func (d *Duration) UnmarshalJSON(data []byte) error {
	if s, err := strconv.Unquote(string(data)); err == nil {
		parsed, err := parseDurationWithDays(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// parseDurationWithDays parses durations that may include days (e.g., "2d")
func parseDurationWithDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Layout:  layout.DefaultOptions(),
		Editor: EditorConfig{
			AutoArrange: true,
			IDs:         IDsSequential,
			TestTimeout: Duration(5 * time.Second),
			SaveTimeout: Duration(10 * time.Second),
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: Duration(100 * time.Millisecond),
				MaxDelay:     Duration(2 * time.Second),
				Multiplier:   2,
				Jitter:       true,
			},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Clone creates a copy of the configuration. Config holds only values, so a
// struct copy is deep.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	copied := *c
	return &copied
}

// Validate checks field constraints declared in struct tags
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
				"Config", "Validate", "constraint check")
		}
		return errors.WrapInvalid(err, "Config", "Validate", "constraint check")
	}
	return nil
}

// RetryPolicy converts the retry budget for an operation with the given
// per-attempt timeout.
func (c *Config) RetryPolicy(attemptTimeout time.Duration) retry.Policy {
	r := c.Editor.Retry
	return retry.Policy{
		MaxAttempts:    r.MaxAttempts,
		InitialDelay:   r.InitialDelay.Std(),
		MaxDelay:       r.MaxDelay.Std(),
		Multiplier:     r.Multiplier,
		AttemptTimeout: attemptTimeout,
		AddJitter:      r.Jitter,
		Retryable:      errors.IsTransient,
	}
}

// String returns a YAML representation of the config
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "FLOWBUILDER",
		getenv:     os.Getenv,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load applies defaults, then each layer, then environment overrides
func (l *Loader) Load() (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode defaults")
	}

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.Wrap(err, "Loader", "Load", "load "+path)
		}
		merged, err = deepMergeMaps(merged, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "merge "+path)
		}
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode merged layers")
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "Load", "decode merged layers")
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRaw reads a JSON or YAML file into a generic map
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := readLayer(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "read file")
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "loadRaw", "parse file")
	}
	return raw, nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence.
// Null values in override leave the base value in place.
func deepMergeMaps(base, override map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	if err := mergo.Merge(&result, withoutNulls(override), mergo.WithOverride); err != nil {
		return nil, err
	}
	return result, nil
}

func withoutNulls(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			continue
		case map[string]any:
			out[k] = withoutNulls(t)
		default:
			out[k] = v
		}
	}
	return out
}

// applyEnvOverrides applies PREFIX_* environment variables last
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	lookup := func(key string) (string, error) {
		name := l.envPrefix + "_" + key
		val := l.getenv(name)
		return val, checkEnvValue(name, val)
	}
	invalid := func(key, val string, err error) error {
		return errors.WrapInvalid(fmt.Errorf("%w: %s_%s=%q: %v", errors.ErrInvalidConfig, l.envPrefix, key, val, err),
			"Loader", "applyEnvOverrides", "parse environment")
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"CATALOG_PATH", &cfg.Catalog.Path},
		{"EDITOR_IDS", &cfg.Editor.IDs},
	}
	for _, s := range strs {
		val, err := lookup(s.key)
		if err != nil {
			return invalid(s.key, "", err)
		}
		if val != "" {
			*s.dst = val
		}
	}

	if val, err := lookup("LAYOUT_STRATEGY"); err != nil {
		return invalid("LAYOUT_STRATEGY", "", err)
	} else if val != "" {
		cfg.Layout.Strategy = layout.Strategy(val)
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"EDITOR_TEST_TIMEOUT", &cfg.Editor.TestTimeout},
		{"EDITOR_SAVE_TIMEOUT", &cfg.Editor.SaveTimeout},
	}
	for _, d := range durations {
		val, err := lookup(d.key)
		if err != nil {
			return invalid(d.key, "", err)
		}
		if val == "" {
			continue
		}
		parsed, err := parseDurationWithDays(val)
		if err != nil {
			return invalid(d.key, val, err)
		}
		*d.dst = Duration(parsed)
	}

	if val, err := lookup("EDITOR_RETRY_ATTEMPTS"); err != nil {
		return invalid("EDITOR_RETRY_ATTEMPTS", "", err)
	} else if val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return invalid("EDITOR_RETRY_ATTEMPTS", val, err)
		}
		cfg.Editor.Retry.MaxAttempts = n
	}

	if val, err := lookup("EDITOR_AUTO_ARRANGE"); err != nil {
		return invalid("EDITOR_AUTO_ARRANGE", "", err)
	} else if val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return invalid("EDITOR_AUTO_ARRANGE", val, err)
		}
		cfg.Editor.AutoArrange = b
	}
	return nil
}
