package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/gcbaptista/go-rank-compare/internal/errors"
)

// EnvPrefix prefixes every environment variable read by Load.
// RANKCMP_COMPARE_NUMBER_SHUFFLES maps to compare.number_shuffles.
const EnvPrefix = "RANKCMP_"

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig    `koanf:"server"`
	Log     LogConfig       `koanf:"log"`
	Compare CompareSettings `koanf:"compare"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	DataDir         string        `koanf:"data_dir" validate:"required"`
	MaxConcurrent   int           `koanf:"max_concurrent_jobs" validate:"gte=1,lte=64"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"` // Requests per second per client, 0 disables
	RateBurst       int           `koanf:"rate_burst" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the configuration used before any file or environment is applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			DataDir:         "./data",
			MaxConcurrent:   2,
			RateLimit:       20,
			RateBurst:       40,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Compare: DefaultCompareSettings(),
	}
}

// Load builds a Config from struct defaults, then the optional YAML file at
// path, then RANKCMP_ environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processCutoffs(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps RANKCMP_SECTION_FIELD_NAME to section.field_name.
func envTransformFunc(key string) string {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + field
}

// processCutoffs converts a comma separated cutoff list coming from the
// environment into integers.
func processCutoffs(k *koanf.Koanf) error {
	const path = "compare.cutoffs"
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	cutoffs, err := ParseCutoffs(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return k.Set(path, cutoffs)
}

// ParseCutoffs parses a comma separated list such as "5,10,20".
func ParseCutoffs(raw string) ([]int, error) {
	cutoffs := []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff %q: %w", part, err)
		}
		cutoffs = append(cutoffs, k)
	}
	return cutoffs, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the comparison settings conflicts.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		for _, fieldErr := range validationErrs {
			errs = append(errs, fmt.Errorf("%s: failed '%s' check (value %v)", fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value()))
		}
	}
	for _, conflict := range c.Compare.Validate() {
		errs = append(errs, errors.New(conflict))
	}
	return errors.Join(errs...)
}

// ValidateStruct checks the validate tags of any request or settings value.
// A failed check is returned as a *errors.ValidationError naming the first
// offending field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fieldErr := validationErrs[0]
	return apperrors.NewValidationError(fieldErr.Namespace(),
		fmt.Sprintf("failed '%s' check (value %v)", fieldErr.Tag(), fieldErr.Value()))
}
