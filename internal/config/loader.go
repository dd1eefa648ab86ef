package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given path, or from the default
// locations when path is empty, merged over the built-in defaults.
// Environment variables prefixed VT_ (e.g. VT_SERVER_ADDR) override both
// file values and defaults, whether or not a config file exists.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else {
		for _, candidate := range defaultPaths() {
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("load config %s: %w", candidate, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper builds the viper instance all sources merge into. Every key is
// registered as a default up front: viper only resolves environment
// variables for keys it knows about, so defaults double as the env binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("cache.redis.addr", def.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", def.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", def.Cache.Redis.DB)
	v.SetDefault("calendar.timezone", def.Calendar.Timezone)
	v.SetDefault("calendar.rollover_hour", def.Calendar.RolloverHour)
	return v
}

// Validate checks settings that would otherwise only fail at first use.
// Timezone and rollover problems are configuration errors and must be
// fatal at startup, not per-request surprises.
func (c *Config) Validate() error {
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache backend %q: want memory or redis", c.Cache.Backend)
	}
	if c.Calendar.RolloverHour < 0 || c.Calendar.RolloverHour > 23 {
		return fmt.Errorf("calendar rollover_hour %d out of range [0,23]", c.Calendar.RolloverHour)
	}
	if c.Calendar.Timezone == "" {
		return fmt.Errorf("calendar timezone must be set")
	}
	return nil
}

func defaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".vector-tasks", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "config.yaml"))
	}
	return paths
}
