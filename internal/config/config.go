// Package config loads DormSwap settings from YAML and the environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
	Catalog CatalogConfig `yaml:"catalog"`
	Session SessionConfig `yaml:"session"`
}

// APIConfig points at the marketplace backend.
type APIConfig struct {
	URL     string        `yaml:"url"     env:"API_URL"     env-default:"http://localhost:3000/api"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s"`
}

// StorageConfig holds the local SQLite file.
type StorageConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"dormswap.db"`
}

// ServerConfig holds the local front-end server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"LISTEN_ADDR" env-default:"127.0.0.1:8080"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	File  string `yaml:"file"  env:"LOG_FILE"`
}

// CacheConfig holds the optional Redis detail cache. An empty address
// disables it.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"     env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"REDIS_DB"       env-default:"0"`
	TTL           time.Duration `yaml:"ttl"            env:"CACHE_TTL"      env-default:"5m"`
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// CatalogConfig holds browsing settings.
type CatalogConfig struct {
	PageSize int `yaml:"page_size" env:"PAGE_SIZE" env-default:"20"`
}

// SessionConfig holds session watching settings.
type SessionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"SESSION_POLL_INTERVAL" env-default:"2s"`
}
