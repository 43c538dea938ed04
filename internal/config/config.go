// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TASKBOARD"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RateLimit       int           `mapstructure:"rate_limit"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig points at the remote task store the client works against.
type StoreConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

type CacheConfig struct {
	Type string `mapstructure:"type"` // "inmemory", "sqlite" или "postgres"
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
}

type WorkerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

const (
	CacheInMemory = "inmemory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.url", "http://localhost:3000")
	v.SetDefault("store.timeout", 10*time.Second)
	v.SetDefault("store.max_retries", 3)

	v.SetDefault("cache.type", CacheSQLite)
	v.SetDefault("cache.path", defaultCachePath())
	v.SetDefault("cache.url", "")

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", 5*time.Minute)

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file", filepath.Join(defaultDir(), "taskboard.log"))
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskboard"
	}
	return filepath.Join(home, ".taskboard")
}

func defaultCachePath() string {
	return filepath.Join(defaultDir(), "cache.db")
}

// Load reads the config and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads config.yml (or the explicit path), then TASKBOARD_* env vars, over defaults.
// A missing config file is not an error. The result is not validated, callers that
// apply their own overrides call Validate afterwards.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Cache.Type {
	case CacheInMemory, CacheSQLite, CachePostgres:
	default:
		return fmt.Errorf("cache.type: неизвестный тип %q", c.Cache.Type)
	}
	if c.Cache.Type == CachePostgres && c.Cache.URL == "" {
		return errors.New("cache.url: обязателен для postgres")
	}
	if c.Store.URL == "" {
		return errors.New("store.url: не задан")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
