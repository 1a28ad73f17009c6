package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url must be an absolute http(s) URL (got %q)", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0 (got %v)", c.API.Timeout)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Catalog.PageSize <= 0 || c.Catalog.PageSize > 100 {
		return fmt.Errorf("catalog.page_size must be in 1..100 (got %d)", c.Catalog.PageSize)
	}
	if c.Session.PollInterval <= 0 {
		return fmt.Errorf("session.poll_interval must be > 0 (got %v)", c.Session.PollInterval)
	}
	if c.Cache.Enabled() && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when redis is enabled (got %v)", c.Cache.TTL)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}

	return nil
}
