package config

// DefaultConfig returns the built-in defaults: in-memory cache, a local
// SQLite file, and the Chicago 8am operational-day rule.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "~/.vector-tasks/tasks.db",
		},
		Cache: CacheConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Calendar: CalendarConfig{
			Timezone:     "America/Chicago",
			RolloverHour: 8,
		},
	}
}
