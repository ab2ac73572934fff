package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/shapegen"
)

const (
	// EnvPrefix marks environment variables overriding the configuration, e.g. PROXYGEN_OUTPUT.
	EnvPrefix = "PROXYGEN_"
	// DefaultConfigFile is read when it exists and no other file is named.
	DefaultConfigFile = "proxygen.toml"

	defaultDebounce = 200 * time.Millisecond
)

var (
	ErrNegativeDebounce = errors.New("debounce must not be negative")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// Config is the merged configuration of one proxygen run.
type Config struct {
	Dir        string        `koanf:"dir"`
	Pattern    string        `koanf:"pattern"`
	Interfaces []string      `koanf:"interfaces"`
	Output     string        `koanf:"output"`
	Tags       []string      `koanf:"tags"`
	Watch      bool          `koanf:"watch"`
	Debounce   time.Duration `koanf:"debounce"`
	LogLevel   string        `koanf:"log_level"`
}

// listKeys hold comma separated lists when set from the environment or flags.
var listKeys = map[string]bool{"interfaces": true, "tags": true}

func defaults() map[string]any {
	return map[string]any{
		"dir":       ".",
		"pattern":   ".",
		"output":    shapegen.DefaultOutput,
		"watch":     false,
		"debounce":  defaultDebounce.String(),
		"log_level": "info",
	}
}

// LoadConfig merges defaults, the TOML file, PROXYGEN_ environment variables and flag
// overrides, later sources winning. An empty configPath reads DefaultConfigFile if present.
func LoadConfig(configPath string, overrides map[string]string) (Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return Config{}, err
		}
	}

	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return key, listValue(key, value)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, listValue(key, value)); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func listValue(key, value string) any {
	if !listKeys[key] {
		return value
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func (c Config) validate() error {
	if c.Debounce < 0 {
		return ErrNegativeDebounce
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	return level, nil
}

// Generator translates the configuration for shapegen.
func (c Config) Generator() shapegen.Config {
	return shapegen.Config{
		LoadConfig: shapegen.LoadConfig{
			Dir:       c.Dir,
			Pattern:   c.Pattern,
			BuildTags: c.Tags,
		},
		Interfaces: c.Interfaces,
		Output:     c.Output,
	}
}
