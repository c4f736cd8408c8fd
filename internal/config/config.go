// Package config loads the service configuration once at process start.
//
// Precedence, highest first:
//  1. GEONOSIS_-prefixed environment variables (GEONOSIS_DB_HOST)
//  2. plain environment variables (DB_HOST)
//  3. the YAML file passed with --config
//  4. defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	envPrefix = "GEONOSIS_"
)

const (
	defaultHTTPPort    = "8080"
	defaultStorageType = StoragePostgres
	defaultDBHost      = "postgres"
	defaultDBPort      = "5432"
	defaultDBUser      = "geonosis"
	defaultDBPassword  = "geonosis"
	defaultDBName      = "geonosis"
	defaultDBSSLMode   = "disable"
	defaultDBMaxConns  = 4
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
)

type Config struct {
	HTTP         HTTPConfig         `koanf:"http"`
	Storage      StorageConfig      `koanf:"storage"`
	Log          LogConfig          `koanf:"log"`
	Dependencies DependenciesConfig `koanf:"dependencies"`
}

type HTTPConfig struct {
	Port        string   `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

func (h HTTPConfig) Addr() string {
	return ":" + h.Port
}

type StorageConfig struct {
	Type     string         `koanf:"type"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type PostgresConfig struct {
	// URL, when set, is used verbatim instead of the discrete fields.
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int32  `koanf:"max_conns"`
}

func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DependenciesConfig controls the PBI blocked-by graph. With CycleCheck off any
// existing PBI may be named as a blocker, including the PBI itself.
type DependenciesConfig struct {
	CycleCheck bool `koanf:"cycle_check"`
}

// envKeys maps the flat environment names onto config paths.
var envKeys = map[string]string{
	"HTTP_PORT":                "http.port",
	"CORS_ORIGINS":             "http.cors_origins",
	"STORAGE_TYPE":             "storage.type",
	"DATABASE_URL":             "storage.postgres.url",
	"DB_HOST":                  "storage.postgres.host",
	"DB_PORT":                  "storage.postgres.port",
	"DB_USER":                  "storage.postgres.user",
	"DB_PASSWORD":              "storage.postgres.password",
	"DB_NAME":                  "storage.postgres.dbname",
	"DB_SSL_MODE":              "storage.postgres.sslmode",
	"DB_MAX_CONNS":             "storage.postgres.max_conns",
	"LOG_LEVEL":                "log.level",
	"LOG_FORMAT":               "log.format",
	"DEPENDENCIES_CYCLE_CHECK": "dependencies.cycle_check",
}

// Load reads the YAML file at path (skipped when path is empty), overlays the
// environment, fills defaults and validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Plain names first so the prefixed ones override them.
	for _, prefix := range []string{"", envPrefix} {
		if err := k.Load(env.ProviderWithValue(prefix, ".", envTransform(prefix)), nil); err != nil {
			return Config{}, fmt.Errorf("load environment: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func envTransform(prefix string) func(string, string) (string, any) {
	return func(name, value string) (string, any) {
		if prefix == "" && strings.HasPrefix(name, envPrefix) {
			return "", nil
		}
		key, ok := envKeys[strings.TrimPrefix(name, prefix)]
		if !ok || value == "" {
			return "", nil
		}
		if key == "http.cors_origins" {
			return key, splitList(value)
		}
		return key, value
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = defaultHTTPPort
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = defaultStorageType
	}

	pg := &cfg.Storage.Postgres
	if pg.Host == "" {
		pg.Host = defaultDBHost
	}
	if pg.Port == "" {
		pg.Port = defaultDBPort
	}
	if pg.User == "" {
		pg.User = defaultDBUser
	}
	if pg.Password == "" {
		pg.Password = defaultDBPassword
	}
	if pg.DBName == "" {
		pg.DBName = defaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = defaultDBSSLMode
	}
	if pg.MaxConns == 0 {
		pg.MaxConns = defaultDBMaxConns
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultLogFormat
	}
}

func (c Config) Validate() error {
	switch c.Storage.Type {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Storage.Postgres.MaxConns < 0 {
		return errors.New("storage.postgres.max_conns must not be negative")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}
