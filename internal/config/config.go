package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/quix/config.yaml"

// EnvAPIURL names the environment variable that overrides api.base_url.
const EnvAPIURL = "QUIX_API_URL"

// DotEnvFile is read from the working directory by ApplyEnv.
const DotEnvFile = ".env"

// ErrConfigLocation marks a default config path that could not be resolved
// or created. A config file that exists but fails to parse or validate is
// reported without it.
var ErrConfigLocation = errors.New("config location unavailable")

// FallbackAPIURL is used when neither the config file nor the environment
// provides a base URL.
const FallbackAPIURL = "https://29abe117e0df.ngrok-free.app"

// Config holds all quix configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Refresh RefreshConfig `yaml:"refresh"`
	Display DisplayConfig `yaml:"display"`
	Archive ArchiveConfig `yaml:"archive"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type APIConfig struct {
	BaseURL    string   `yaml:"base_url"`
	UserAgent  string   `yaml:"user_agent"`
	Timeout    Duration `yaml:"timeout"` // zero means no client-side timeout
	EventLimit int      `yaml:"event_limit"`
}

type RefreshConfig struct {
	Interval     Duration `yaml:"interval"`
	ClockTick    Duration `yaml:"clock_tick"`
	CollectDelay Duration `yaml:"collect_delay"`
}

type DisplayConfig struct {
	DefaultTab    string     `yaml:"default_tab"`
	SameDayPolicy string     `yaml:"same_day_policy"` // last | aggregate
	TimeZones     []TimeZone `yaml:"time_zones"`
}

// TimeZone is one entry of the regional clock banner.
type TimeZone struct {
	City     string `yaml:"city"`
	Location string `yaml:"location"` // IANA name, "Local" for the host zone
	Flag     string `yaml:"flag"`
}

type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	PageAutoReload Duration `yaml:"page_auto_reload"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Duration is a time.Duration that reads and writes as "5m", "1s", ...
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Refresh.Interval.Std() <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if c.Refresh.ClockTick.Std() <= 0 {
		return fmt.Errorf("refresh.clock_tick must be positive")
	}
	if c.Refresh.CollectDelay.Std() < 0 {
		return fmt.Errorf("refresh.collect_delay cannot be negative")
	}
	if c.API.EventLimit <= 0 {
		return fmt.Errorf("api.event_limit must be positive")
	}
	switch c.Display.DefaultTab {
	case "news", "chatter":
	default:
		return fmt.Errorf("display.default_tab must be news or chatter, got %q", c.Display.DefaultTab)
	}
	switch c.Display.SameDayPolicy {
	case "last", "aggregate":
	default:
		return fmt.Errorf("display.same_day_policy must be last or aggregate, got %q", c.Display.SameDayPolicy)
	}
	return nil
}

// ApplyEnv lets QUIX_API_URL override the configured base URL. The variable
// is looked up with getenv first, then in the .env file of the working
// directory. An empty base URL after both falls back to FallbackAPIURL.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	return c.ApplyEnvFrom(getenv, DotEnvFile)
}

// ApplyEnvFrom is ApplyEnv with an explicit .env path. A missing file is
// not an error; a malformed one is.
func (c *Config) ApplyEnvFrom(getenv func(string) string, dotenv string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	fileEnv, err := godotenv.Read(dotenv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", dotenv, err)
	}

	v := strings.TrimSpace(getenv(EnvAPIURL))
	if v == "" {
		v = strings.TrimSpace(fileEnv[EnvAPIURL])
	}
	if v != "" {
		c.API.BaseURL = v
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		c.API.BaseURL = FallbackAPIURL
	}
	return nil
}

// ArchivePath resolves the SQLite archive location.
func (c *Config) ArchivePath() (string, error) {
	dir, err := expandPath(c.Archive.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Archive.SQLiteFile), nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLocation, err)
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
// Failing to create them is wrapped in ErrConfigLocation.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating config directory: %w", ErrConfigLocation, err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("%w: writing default config: %w", ErrConfigLocation, err)
		}

		return cfg, nil
	}

	return Load(path)
}
