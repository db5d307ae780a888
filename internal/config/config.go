package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/collsync/internal/engine"
)

// EnvPrefix prefixes every environment variable, e.g. COLLSYNC_LOG_LEVEL.
const EnvPrefix = "COLLSYNC"

// Config holds the defaults the CLI applies to every engine it builds.
type Config struct {
	// Collection is the representation used when a scenario does not pick one.
	Collection string `mapstructure:"collection" default:"sequence"`
	// Keys selects the key generator: "counter" or "uuid".
	Keys string `mapstructure:"keys" default:"counter"`
	// Buffer is the size of the engine's round channel.
	Buffer int `mapstructure:"buffer" default:"16"`
	// CloneOn is the clone policy used when a scenario does not set one.
	CloneOn CloneOn `mapstructure:"clone_on"`
	// Journal holds the round journal location.
	Journal Journal `mapstructure:"journal"`
	// Log holds logger settings.
	Log Log `mapstructure:"log"`
}

// CloneOn mirrors engine.ClonePolicy.
type CloneOn struct {
	Transform   bool `mapstructure:"transform" default:"true"`
	StateChange bool `mapstructure:"state_change" default:"true"`
}

// Journal configures the SQLite round journal.
type Journal struct {
	// Path is the database file. Empty disables journaling unless a
	// command is given --db.
	Path string `mapstructure:"path"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

// Load reads configuration from, in increasing precedence: struct defaults,
// the config file (if file is non-empty), a .env file in dir, and the
// environment.
func Load(dir, file string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()

	bindValues(v, Config{}, "")

	// COLLSYNC_CLONE_ON_TRANSFORM -> clone_on.transform
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindValues walks the struct and registers every 'mapstructure' key with
// its 'default' tag. Registering empty defaults too lets AutomaticEnv see
// the key.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}

var (
	validCollections = []string{"sequence", "keyed"}
	validKeys        = []string{"counter", "uuid"}
	validLevels      = []string{"debug", "info", "warn", "error"}
	validFormats     = []string{"text", "json"}
)

// Validate checks enumerated fields and bounds.
func (c *Config) Validate() error {
	if !slices.Contains(validCollections, c.Collection) {
		return fmt.Errorf("invalid collection %q: must be one of %v", c.Collection, validCollections)
	}
	if !slices.Contains(validKeys, c.Keys) {
		return fmt.Errorf("invalid keys %q: must be one of %v", c.Keys, validKeys)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("invalid buffer %d: must not be negative", c.Buffer)
	}
	if !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("invalid log.level %q: must be one of %v", c.Log.Level, validLevels)
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("invalid log.format %q: must be one of %v", c.Log.Format, validFormats)
	}
	return nil
}

// ClonePolicy returns the configured clone policy.
func (c *Config) ClonePolicy() engine.ClonePolicy {
	return engine.ClonePolicy{
		Transform:   c.CloneOn.Transform,
		StateChange: c.CloneOn.StateChange,
	}
}

// KeyGenerator returns a fresh generator of the configured kind.
func (c *Config) KeyGenerator() engine.KeyGenerator {
	if c.Keys == "uuid" {
		return engine.UUIDv7Keys{}
	}
	return engine.NewCounterKeys()
}

// NewLogger builds a slog logger writing to w. verbose forces debug level.
func (l Log) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
