package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/vireo/internal/domain/model"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VIREO_CONFIG is set
//  3. env (prefix VIREO_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("VIREO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: VIREO_ADDR, VIREO_EBIRD_API_KEY, ...
	// Map env keys like VIREO_DAY_WINDOW -> day_window (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VIREO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vireo_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.HistoricalYears < 1 {
		return fmt.Errorf("%w: historical_years must be positive", ErrInvalidConfig)
	}
	if cfg.DayWindow < 0 {
		return fmt.Errorf("%w: day_window must not be negative", ErrInvalidConfig)
	}
	switch model.AreaKind(cfg.EvalAreaKind) {
	case model.AreaCountry, model.AreaState, model.AreaCounty, model.AreaLocality:
	default:
		return fmt.Errorf("%w: eval_area_kind %q is not a region kind", ErrInvalidConfig, cfg.EvalAreaKind)
	}
	return nil
}
