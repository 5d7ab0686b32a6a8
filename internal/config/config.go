package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Transport   TransportConfig   `yaml:"transport"`
	DB          DBConfig          `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	GitHub      GitHubConfig      `yaml:"github"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type GitHubConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIURL       string        `yaml:"api_url"`
	ClientID     string        `yaml:"client_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

type CredentialsConfig struct {
	Service string `yaml:"service"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "gitlink.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		GitHub: GitHubConfig{
			BaseURL:      "https://github.com",
			APIURL:       "https://api.github.com/",
			ClientID:     "cd51880daa675d9e6452",
			PollInterval: 5 * time.Second,
			MaxAttempts:  180,
			HTTPTimeout:  30 * time.Second,
		},
		Credentials: CredentialsConfig{
			Service: "gitlink",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv("GITLINK_CONFIG_PATH"))
}

// LoadFile is Load with an explicit config file path; an empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q: want stdio or http", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.GitHub.PollInterval <= 0 {
		return fmt.Errorf("github poll interval must be positive")
	}
	if c.GitHub.MaxAttempts <= 0 {
		return fmt.Errorf("github max attempts must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("GITLINK_SERVER_HOST", &cfg.Server.Host)
	if err := setInt("GITLINK_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	setString("GITLINK_TRANSPORT_MODE", &cfg.Transport.Mode)
	setString("GITLINK_DB_PATH", &cfg.DB.Path)
	setString("GITLINK_LOG_LEVEL", &cfg.Log.Level)
	setString("GITLINK_LOG_PATH", &cfg.Log.Path)
	setString("GITLINK_GITHUB_BASE_URL", &cfg.GitHub.BaseURL)
	setString("GITLINK_GITHUB_API_URL", &cfg.GitHub.APIURL)
	setString("GITLINK_GITHUB_CLIENT_ID", &cfg.GitHub.ClientID)
	if err := setDuration("GITLINK_GITHUB_POLL_INTERVAL", &cfg.GitHub.PollInterval); err != nil {
		return err
	}
	if err := setInt("GITLINK_GITHUB_MAX_ATTEMPTS", &cfg.GitHub.MaxAttempts); err != nil {
		return err
	}
	if err := setDuration("GITLINK_GITHUB_HTTP_TIMEOUT", &cfg.GitHub.HTTPTimeout); err != nil {
		return err
	}
	setString("GITLINK_KEYRING_SERVICE", &cfg.Credentials.Service)
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
