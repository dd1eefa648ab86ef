package config

// Config represents the full server configuration
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Cache settings
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Calendar settings for the operational-day rule
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DatabaseConfig configures the SQLite store
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig selects and configures the cache backend
type CacheConfig struct {
	// Backend is "memory" or "redis"
	Backend string `yaml:"backend" mapstructure:"backend"`

	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the Redis cache backend
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// CalendarConfig fixes the timezone and rollover hour for operational dates
type CalendarConfig struct {
	Timezone     string `yaml:"timezone" mapstructure:"timezone"`
	RolloverHour int    `yaml:"rollover_hour" mapstructure:"rollover_hour"`
}
