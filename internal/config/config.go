package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. CONTENTFLOW_SERVER_URL
const EnvPrefix = "CONTENTFLOW"

// Storage backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds the client configuration
type Config struct {
	Server struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`

	Storage struct {
		Directory string `mapstructure:"directory"`
		Backend   string `mapstructure:"backend"`
		RedisURL  string `mapstructure:"redis_url"`
	} `mapstructure:"storage"`

	LinkedIn struct {
		CallbackAddr    string        `mapstructure:"callback_addr"`
		RefreshInterval time.Duration `mapstructure:"refresh_interval"`
		RefreshWindow   time.Duration `mapstructure:"refresh_window"`
		RedirectDelay   time.Duration `mapstructure:"redirect_delay"`
	} `mapstructure:"linkedin"`

	Schedule struct {
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"schedule"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	Tracing struct {
		Enabled  bool   `mapstructure:"enabled"`
		Exporter string `mapstructure:"exporter"`
	} `mapstructure:"tracing"`
}

// GetConfigDir returns the directory holding config.yaml
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".contentflow")
}

// GetConfigPath returns the full path of config.yaml
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	cfg := &Config{}
	cfg.Server.URL = "http://localhost:8080/api"
	cfg.Server.Timeout = 15 * time.Second
	cfg.Storage.Directory = filepath.Join(GetConfigDir(), "state")
	cfg.Storage.Backend = BackendFile
	cfg.LinkedIn.CallbackAddr = "127.0.0.1:3000"
	cfg.LinkedIn.RefreshInterval = 5 * time.Minute
	cfg.LinkedIn.RefreshWindow = 5 * time.Minute
	cfg.LinkedIn.RedirectDelay = 2 * time.Second
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Tracing.Exporter = "stdout"
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("storage.directory", d.Storage.Directory)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("linkedin.callback_addr", d.LinkedIn.CallbackAddr)
	v.SetDefault("linkedin.refresh_interval", d.LinkedIn.RefreshInterval)
	v.SetDefault("linkedin.refresh_window", d.LinkedIn.RefreshWindow)
	v.SetDefault("linkedin.redirect_delay", d.LinkedIn.RedirectDelay)
	v.SetDefault("schedule.timezone", "")
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
}

// Load reads configuration from defaults, the config file, a .env file and
// CONTENTFLOW_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// a missing .env is the normal case
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(GetConfigPath())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("server URL must include a host")
	}

	switch c.Storage.Backend {
	case "", BackendFile:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required when storage.backend is redis")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level: %s", c.Logging.Level)
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("invalid schedule timezone: %w", err)
		}
	}

	return nil
}

// IsInsecure reports whether the server is reached over plain http on a non-loopback host
func (c *Config) IsInsecure() bool {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme != "http" {
		return false
	}

	host := u.Hostname()
	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}

// Location returns the configured scheduling timezone, falling back to the local zone
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone != "" {
		if loc, err := time.LoadLocation(c.Schedule.Timezone); err == nil {
			return loc
		}
	}
	return time.Local
}

// TimezoneName returns the IANA name sent to the backend with scheduled posts
func (c *Config) TimezoneName() string {
	if c.Schedule.Timezone != "" {
		return c.Schedule.Timezone
	}
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// fileConfig is the on-disk shape; durations are written as strings like "5m0s"
type fileConfig struct {
	Server struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"server"`
	Storage struct {
		Directory string `yaml:"directory"`
		Backend   string `yaml:"backend"`
		RedisURL  string `yaml:"redis_url,omitempty"`
	} `yaml:"storage"`
	LinkedIn struct {
		CallbackAddr    string `yaml:"callback_addr"`
		RefreshInterval string `yaml:"refresh_interval"`
		RefreshWindow   string `yaml:"refresh_window"`
		RedirectDelay   string `yaml:"redirect_delay"`
	} `yaml:"linkedin"`
	Schedule struct {
		Timezone string `yaml:"timezone,omitempty"`
	} `yaml:"schedule"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"tracing"`
}

func (c *Config) toFile() fileConfig {
	var f fileConfig
	f.Server.URL = c.Server.URL
	f.Server.Timeout = c.Server.Timeout.String()
	f.Storage.Directory = c.Storage.Directory
	f.Storage.Backend = c.Storage.Backend
	f.Storage.RedisURL = c.Storage.RedisURL
	f.LinkedIn.CallbackAddr = c.LinkedIn.CallbackAddr
	f.LinkedIn.RefreshInterval = c.LinkedIn.RefreshInterval.String()
	f.LinkedIn.RefreshWindow = c.LinkedIn.RefreshWindow.String()
	f.LinkedIn.RedirectDelay = c.LinkedIn.RedirectDelay.String()
	f.Schedule.Timezone = c.Schedule.Timezone
	f.Logging.Level = c.Logging.Level
	f.Logging.Format = c.Logging.Format
	f.Tracing.Enabled = c.Tracing.Enabled
	f.Tracing.Exporter = c.Tracing.Exporter
	return f
}

// Save writes the configuration to GetConfigPath
func (c *Config) Save() error {
	if err := os.MkdirAll(GetConfigDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c.toFile())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
