package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Cache   CacheConfig   `yaml:"cache" envconfig:"CACHE"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
	Resolve ResolveConfig `yaml:"resolve" envconfig:"RESOLVE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// CacheConfig controls both cache tiers.
type CacheConfig struct {
	Dir             string        `yaml:"dir" envconfig:"DIR" default:"data/cache"`
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL" default:"1h"`
	VolatileEntries int           `yaml:"volatile_entries" envconfig:"VOLATILE_ENTRIES" default:"256"`
	PersistentBytes int64         `yaml:"persistent_bytes" envconfig:"PERSISTENT_BYTES" default:"104857600"`
	SweepInterval   time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// FetchConfig controls the paced network client.
type FetchConfig struct {
	HostInterval   time.Duration `yaml:"host_interval" envconfig:"HOST_INTERVAL" default:"2s"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY" default:"1s"`
}

// ResolveConfig controls the resolver itself.
type ResolveConfig struct {
	RegistryFile string        `yaml:"registry_file" envconfig:"REGISTRY_FILE"`
	Deadline     time.Duration `yaml:"deadline" envconfig:"DEADLINE" default:"2m"`
	Workers      int           `yaml:"workers" envconfig:"WORKERS" default:"4"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/econcli.log"`
}

// Load loads configuration from environment variables and, if present,
// a YAML config file. Environment values take precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("ECON", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return cfg, nil
}

// validate checks the loaded values for internal consistency.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Cache.VolatileEntries <= 0 {
		return fmt.Errorf("volatile cache bound must be positive")
	}
	if c.Fetch.HostInterval < 0 {
		return fmt.Errorf("per-host interval must not be negative")
	}
	if c.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("retry count must not be negative")
	}
	if c.Resolve.Workers <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	return nil
}

// findConfigFile returns the first config file found in the usual
// locations, or "" to run on env vars and defaults alone.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		filepath.Join("..", "configs", "config.yaml"),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Dir:             filepath.Join("data", "cache"),
			TTL:             time.Hour,
			VolatileEntries: 256,
			PersistentBytes: 100 << 20,
			SweepInterval:   5 * time.Minute,
		},
		Fetch: FetchConfig{
			HostInterval:   2 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
		},
		Resolve: ResolveConfig{
			Deadline: 2 * time.Minute,
			Workers:  4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: filepath.Join("logs", "econcli.log"),
		},
	}
}
