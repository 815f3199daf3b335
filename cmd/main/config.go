package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CTAG07/Pitcher/pkg/templating"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the configuration for the HTTP servers and the site on disk.
type ServerConfig struct {
	SiteAddr          string `json:"site_addr" yaml:"site_addr"`
	ApiAddr           string `json:"api_addr" yaml:"api_addr"`
	LogLevel          string `json:"log_level" yaml:"log_level"`
	SiteRoot          string `json:"site_root" yaml:"site_root"`
	StatsDatabasePath string `json:"stats_database_path" yaml:"stats_database_path"`
	MetricsEnabled    bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// CacheConfig holds settings for the periodic cache warmer.
type CacheConfig struct {
	// WarmIntervalSec is the period between warm runs. Zero disables the schedule.
	WarmIntervalSec int  `json:"warm_interval_sec" yaml:"warm_interval_sec"`
	WarmOnStart     bool `json:"warm_on_start" yaml:"warm_on_start"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config" yaml:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config" yaml:"template_config"`
	Cache     *CacheConfig               `json:"cache_config" yaml:"cache_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		SiteAddr:          ":7277",
		ApiAddr:           "127.0.0.1:7278",
		LogLevel:          "info",
		SiteRoot:          ".",
		StatsDatabasePath: "./pitcher_stats.db?_journal_mode=WAL&_busy_timeout=5000",
		MetricsEnabled:    true,
	}
}

// DefaultCacheConfig creates a cache configuration with default values.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		WarmIntervalSec: 0,
		WarmOnStart:     false,
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	tmpl := templating.DefaultConfig()
	return &Config{
		Server:    DefaultServerConfig(),
		Templates: &tmpl,
		Cache:     DefaultCacheConfig(),
	}
}

// fillDefaults replaces sections a config file explicitly nulled out.
func (c *Config) fillDefaults() {
	if c.Server == nil {
		c.Server = DefaultServerConfig()
	}
	if c.Templates == nil {
		tmpl := templating.DefaultConfig()
		c.Templates = &tmpl
	}
	if c.Cache == nil {
		c.Cache = DefaultCacheConfig()
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// marshalConfig encodes cfg as YAML or JSON depending on the file extension.
func marshalConfig(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	return json.MarshalIndent(cfg, "", "  ")
}

func unmarshalConfig(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// LoadConfig reads the configuration from a JSON or YAML file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = unmarshalConfig(path, file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.fillDefaults()

	return config, nil
}

// parseLogLevel maps a config level name onto a slog level. Unknown names are info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigManager handles thread-safe access to configuration and pushes
// changes into the template engine and the log level.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	level      *slog.LevelVar
	engine     *templating.Engine
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parseLogLevel(cfg.Server.LogLevel))

	return &ConfigManager{
		config:     cfg,
		configPath: path,
		level:      level,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// Path returns the file the configuration is persisted to.
func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// LevelVar is the log level shared by every logger built from this config.
func (cm *ConfigManager) LevelVar() *slog.LevelVar {
	return cm.level
}

// SetLogger sets the logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// SetEngine registers the template engine to receive config updates.
func (cm *ConfigManager) SetEngine(engine *templating.Engine) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.engine = engine
	if engine != nil {
		engine.SetConfig(*cm.config.Templates)
	}
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Update validates and applies newConfig, then saves it to disk.
func (cm *ConfigManager) Update(newConfig Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.apply(&newConfig); err != nil {
		return err
	}

	data, err := marshalConfig(cm.configPath, cm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reload re-reads the config file and applies it without writing it back.
func (cm *ConfigManager) Reload() error {
	newConfig, err := LoadConfig(cm.configPath)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.apply(newConfig)
}

// apply swaps in newConfig. The engine gets the new template config first;
// if it cannot refresh, the old one is restored and nothing changes.
// Callers hold cm.mu.
func (cm *ConfigManager) apply(newConfig *Config) error {
	newConfig.fillDefaults()

	if cm.engine != nil {
		oldTmplConfig := *cm.config.Templates

		cm.engine.SetConfig(*newConfig.Templates)
		if err := cm.engine.Refresh(); err != nil {
			cm.engine.SetConfig(oldTmplConfig)
			_ = cm.engine.Refresh()
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}

	old := cm.config.Server
	if old.SiteAddr != newConfig.Server.SiteAddr ||
		old.ApiAddr != newConfig.Server.ApiAddr ||
		old.SiteRoot != newConfig.Server.SiteRoot ||
		old.StatsDatabasePath != newConfig.Server.StatsDatabasePath {
		cm.logger.Warn("Server address, site root or database changes take effect after a restart")
	}

	cm.level.Set(parseLogLevel(newConfig.Server.LogLevel))
	*cm.config = *newConfig
	return nil
}
