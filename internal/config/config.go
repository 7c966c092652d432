package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Lock     LockConfig     `yaml:"lock"`
	Presence PresenceConfig `yaml:"presence"`
	Cache    CacheConfig    `yaml:"cache"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type LockConfig struct {
	// Lease is how long an edit lock lives without the client renewing it.
	Lease time.Duration `yaml:"lease"`
	// HeartbeatInterval is the renewal cadence advertised to lock holders;
	// must be well inside Lease.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// AdminSecret enables force-release; empty disables it.
	AdminSecret string `yaml:"admin_secret"`
}

type PresenceConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	StaleThreshold    time.Duration `yaml:"stale_threshold"`
}

type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "scenariosync.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Lock: LockConfig{
			Lease:             5 * time.Minute,
			HeartbeatInterval: 30 * time.Second,
		},
		Presence: PresenceConfig{
			HeartbeatInterval: 5 * time.Second,
			StaleThreshold:    15 * time.Second,
		},
		Cache: CacheConfig{
			Dir: "cache",
		},
	}

	if path := os.Getenv("CASTORSYNC_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CASTORSYNC_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CASTORSYNC_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CASTORSYNC_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("CASTORSYNC_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("CASTORSYNC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("CASTORSYNC_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if secret := os.Getenv("CASTORSYNC_ADMIN_SECRET"); secret != "" {
		cfg.Lock.AdminSecret = secret
	}
	if lease := os.Getenv("CASTORSYNC_LOCK_LEASE"); lease != "" {
		d, err := time.ParseDuration(lease)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CASTORSYNC_LOCK_LEASE: %w", err)
		}
		cfg.Lock.Lease = d
	}
	if cacheDir := os.Getenv("CASTORSYNC_CACHE_DIR"); cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}

	return cfg, nil
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
