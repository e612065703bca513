package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/radi8/getajob/internal/policy"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Host     HostConfig     `mapstructure:"host"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Kick     KickConfig     `mapstructure:"kick"`
}

// ServerConfig defines the service's own listeners
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	APIPort     int    `mapstructure:"api_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// HostConfig defines how to reach the game server bridge
type HostConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
	Retries int    `mapstructure:"retries"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the Redis backend connection
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackingConfig defines the evaluation cycle
type TrackingConfig struct {
	TickPeriod        string  `mapstructure:"tick_period"`
	InitialDelay      string  `mapstructure:"initial_delay"`
	MovementTolerance float64 `mapstructure:"movement_tolerance"`
}

// KickConfig defines the daily playtime limit. This section is
// reloadable at runtime; read it through Manager.Kick, never from a
// cached Config copy.
type KickConfig struct {
	ThresholdMinutes int64    `mapstructure:"threshold_minutes"`
	Message          string   `mapstructure:"message"`
	Broadcast        string   `mapstructure:"broadcast"`
	IgnoredUsers     []string `mapstructure:"ignored_users"`
}

// Manager loads configuration and keeps it current across file
// reloads.
type Manager struct {
	v       *viper.Viper
	mu      sync.RWMutex
	current *Config
}

// Load loads configuration from file and environment variables and
// starts watching the file for changes.
func Load(configPath string) (*Manager, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("GETAJOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	m := &Manager{v: v, current: cfg}

	v.OnConfigChange(func(_ fsnotify.Event) {
		m.reload()
	})
	v.WatchConfig()

	return m, nil
}

func (m *Manager) reload() {
	cfg, err := unmarshalAndValidate(m.v)
	if err != nil {
		// Keep serving the last good config.
		return
	}
	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()
}

// Current returns the latest loaded configuration.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Kick returns the live kick policy configuration.
func (m *Manager) Kick() policy.KickConfig {
	cfg := m.Current()
	return policy.KickConfig{
		ThresholdMinutes: cfg.Kick.ThresholdMinutes,
		KickMessage:      cfg.Kick.Message,
		KickBroadcast:    cfg.Kick.Broadcast,
		IgnoredUsers:     cfg.Kick.IgnoredUsers,
	}
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "0.0.0.0")
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.metrics_port", 9090)

	// Host bridge defaults
	v.SetDefault("host.base_url", "http://127.0.0.1:25580")
	v.SetDefault("host.timeout", "5s")
	v.SetDefault("host.retries", 2)

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/getajob/getajob.bolt")
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Tracking defaults
	v.SetDefault("tracking.tick_period", "1m")
	v.SetDefault("tracking.initial_delay", "0s")
	v.SetDefault("tracking.movement_tolerance", 5.0)

	// Kick defaults, carried from the original plugin
	v.SetDefault("kick.threshold_minutes", 1)
	v.SetDefault("kick.message",
		"Seriously? 1 minute already? Don't you have anything better to do, like... getting a job? (unless you already have one? sorry.)")
	v.SetDefault("kick.broadcast",
		"{player} has spent 1 minute(s) on the server today. If they don't have a job, have them get one. Shame!")
	v.SetDefault("kick.ignored_users", []string{})
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	if cfg.Host.BaseURL == "" {
		return fmt.Errorf("host base_url is required")
	}

	if cfg.Kick.ThresholdMinutes <= 0 {
		return fmt.Errorf("kick threshold must be positive: %d", cfg.Kick.ThresholdMinutes)
	}
	if !strings.Contains(cfg.Kick.Broadcast, "{player}") {
		return fmt.Errorf("kick broadcast must contain the {player} placeholder")
	}

	switch cfg.Storage.Type {
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return nil
}
