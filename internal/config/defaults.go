package config

import "time"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    FallbackAPIURL,
			UserAgent:  "quix-dashboard",
			Timeout:    0,
			EventLimit: 10,
		},
		Refresh: RefreshConfig{
			Interval:     Duration(300000 * time.Millisecond),
			ClockTick:    Duration(1000 * time.Millisecond),
			CollectDelay: Duration(3000 * time.Millisecond),
		},
		Display: DisplayConfig{
			DefaultTab:    "news",
			SameDayPolicy: "last",
			TimeZones:     DefaultTimeZones(),
		},
		Archive: ArchiveConfig{
			Enabled:    false,
			Path:       "~/.config/quix",
			SQLiteFile: "quix.db",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8093",
			PageAutoReload: Duration(60 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
