package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends selectable for the draft store
const (
	StoreBackendBolt   = "bolt"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory" // volatile, for development only
)

// StoreConfig selects and configures the draft store backend
type StoreConfig struct {
	Backend  string        `yaml:"backend"`
	BoltPath string        `yaml:"bolt_path"`
	Redis    RedisConfig   `yaml:"redis"`
	DraftTTL time.Duration `yaml:"draft_ttl"`
}

// RedisConfig configures the Redis draft store backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig configures the transfer record database
type PostgresConfig struct {
	ConnStr  string `yaml:"conn_str"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Config is the full service configuration
type Config struct {
	ListenAddr string            `yaml:"listen_addr"`
	LogLevel   string            `yaml:"log_level"`
	Store      StoreConfig       `yaml:"store"`
	Postgres   PostgresConfig    `yaml:"postgres"`
	Rates      map[string]string `yaml:"rates"` // "USD-XAF" -> "610.25", merged over the baked-in table
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Store: StoreConfig{
			Backend:  StoreBackendBolt,
			BoltPath: "sendcore.db",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "sendcore",
		},
	}
}

// Load reads and parses a YAML config file, then applies environment
// overrides. A missing path yields the defaults (env overrides still apply).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.applyEnv()

	switch cfg.Store.Backend {
	case StoreBackendBolt, StoreBackendRedis, StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return cfg, nil
}

// applyEnv overlays environment variables on the loaded values.
// Docker friendly: individual DB_* vars are honored when no explicit
// connection string is set.
func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("BOLT_PATH"); v != "" {
		c.Store.BoltPath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		c.Postgres.ConnStr = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		c.Postgres.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Postgres.DBName = v
	}
}

// PostgresConnStr returns the connection string, building it from the
// individual parts when no explicit one was configured.
func (c *Config) PostgresConnStr() string {
	if c.Postgres.ConnStr != "" {
		return c.Postgres.ConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.DBName)
}
