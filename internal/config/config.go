// Package config loads the admin server configuration from defaults, an
// optional YAML file, and MESSMASS_ environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MESSMASS_"

// Config is the full server configuration.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	List      ListConfig      `koanf:"list"`
	Variables VariablesConfig `koanf:"variables"`
	Preview   PreviewConfig   `koanf:"preview"`
	Activity  ActivityConfig  `koanf:"activity"`
}

type HTTPConfig struct {
	Addr     string `koanf:"addr"`
	Engine   string `koanf:"engine"`
	BasePath string `koanf:"base_path"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ListConfig struct {
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
}

type VariablesConfig struct {
	// Manifest is a YAML variable manifest seeded on start. Empty uses the
	// built-in system variables.
	Manifest string `koanf:"manifest"`
}

type PreviewConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type ActivityConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Engines accepted by http.engine.
const (
	EngineChi   = "chi"
	EngineFiber = "fiber"
)

// Drivers accepted by database.driver.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults returns the built-in values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":          ":8080",
		"http.engine":        EngineChi,
		"http.base_path":     "/api",
		"database.driver":    DriverMemory,
		"database.dsn":       "messmass.db",
		"log.level":          "info",
		"log.format":         "json",
		"list.page_size":     20,
		"list.max_page_size": 100,
		"variables.manifest": "",
		"preview.cache_ttl":  "5m",
		"activity.enabled":   true,
	}
}

// Load reads configuration. path may be empty; a missing explicit file is an
// error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvKey maps an environment variable to its koanf key:
// MESSMASS_HTTP_BASE_PATH becomes http.base_path.
func EnvKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate checks the decoded configuration.
func (c *Config) Validate() error {
	err := validation.Errors{
		"http": validation.ValidateStruct(&c.HTTP,
			validation.Field(&c.HTTP.Addr, validation.Required),
			validation.Field(&c.HTTP.Engine, validation.Required, validation.In(EngineChi, EngineFiber)),
			validation.Field(&c.HTTP.BasePath, validation.Required, validation.By(leadingSlash)),
		),
		"database": validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverMemory, DriverSQLite)),
			validation.Field(&c.Database.DSN, validation.When(c.Database.Driver == DriverSQLite, validation.Required)),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("json", "console")),
		),
		"list": validation.ValidateStruct(&c.List,
			validation.Field(&c.List.PageSize, validation.Min(1)),
			validation.Field(&c.List.MaxPageSize, validation.Min(c.List.PageSize)),
		),
		"preview": validation.ValidateStruct(&c.Preview,
			validation.Field(&c.Preview.CacheTTL, validation.Min(time.Duration(0))),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

func leadingSlash(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}
