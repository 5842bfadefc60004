package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

const (
	AppName = "zpages"

	// DefaultFilename is looked up when no explicit config file is
	// given. It is fine for it to be absent; defaults and environment
	// variables are enough to serve the probe endpoints.
	DefaultFilename = AppName + ".json"

	DefaultCheckTimeout     = "5s"
	DefaultAggregateTimeout = "10s"
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Addr   string `json:"addr" validate:"required"`
	LogDir string `json:"log_dir" validate:"required"`
	Debug  bool   `json:"debug"`

	Probes ProbesConfig `json:"probes"`
	Info   InfoConfig   `json:"info"`
}

// ProbesConfig drives the health aggregation engine.
type ProbesConfig struct {
	Prefix           string `json:"prefix" validate:"required,startswith=/"`
	Scheme           string `json:"scheme" validate:"oneof=http https"`
	CheckTimeout     string `json:"check_timeout"`
	AggregateTimeout string `json:"aggregate_timeout"`
	Concurrency      int    `json:"concurrency" validate:"gt=0"`

	// Dependencies maps a service key to either a full base URL or a
	// bare hostname[:port]. Resolution happens at startup.
	Dependencies map[string]string `json:"dependencies"`
}

// InfoConfig shapes the /info and /version payloads.
type InfoConfig struct {
	AppName                 string `json:"app_name" validate:"required"`
	EnableServiceInstanceID bool   `json:"enable_service_instance_id"`
}

// CheckTimeoutDuration returns the parsed per-check timeout. Load
// validates the string, so parsing cannot fail afterwards.
func (p ProbesConfig) CheckTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.CheckTimeout)
	return d
}

// AggregateTimeoutDuration returns the parsed whole-pass timeout.
func (p ProbesConfig) AggregateTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.AggregateTimeout)
	return d
}

func Load() (*Config, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile layers defaults, the JSON config file and ZPAGES_*
// environment variables (highest priority), then validates the result.
// A missing file is only an error when its name was given explicitly.
func LoadWithFile(filename string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(confmap.Provider(map[string]interface{}{
		"addr":                     "127.0.0.1:8080",
		"log_dir":                  "logs",
		"probes.prefix":            "/z",
		"probes.scheme":            "https",
		"probes.check_timeout":     DefaultCheckTimeout,
		"probes.aggregate_timeout": DefaultAggregateTimeout,
		"probes.concurrency":       8,
		"info.app_name":            AppName,
	}, "."), nil)
	if err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if filename != "" {
		if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
			if !(errors.Is(err, os.ErrNotExist) && filename == DefaultFilename) {
				return nil, fmt.Errorf("config: load %s: %w", filename, err)
			}
		}
	}

	// ZPAGES_PROBES__CHECK_TIMEOUT -> probes.check_timeout
	if err := k.Load(env.Provider("ZPAGES_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ZPAGES_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate collects every problem before failing so a bad config file
// is reported in one pass.
func (c *Config) validate() error {
	var errs error

	if err := validator.New().Struct(c); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := time.ParseDuration(c.Probes.CheckTimeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("config: bad check_timeout %q (want e.g. 5s, 500ms)", c.Probes.CheckTimeout))
	}
	if _, err := time.ParseDuration(c.Probes.AggregateTimeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("config: bad aggregate_timeout %q (want e.g. 10s)", c.Probes.AggregateTimeout))
	}
	for key, base := range c.Probes.Dependencies {
		if strings.TrimSpace(base) == "" {
			errs = multierr.Append(errs, fmt.Errorf("config: dependency %q has an empty host", key))
		}
	}

	return errs
}
