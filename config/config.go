package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the node process configuration. The messaging core takes
// no configuration of its own; everything here belongs to the surrounding
// process: diagnostics, metrics, storage and workload tuning.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Counter   CounterConfig   `mapstructure:"counter"`
}

// LoggingConfig contains diagnostic output configuration. Logs always go to
// stderr; stdout carries protocol output only.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig contains the optional metrics listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// StorageConfig selects the kv workload backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// BroadcastConfig tunes the broadcast workload.
type BroadcastConfig struct {
	// RetryIntervalMs is how long a relay waits for an ack before resending.
	RetryIntervalMs int `mapstructure:"retry_interval_ms"`
}

// CounterConfig tunes the counter workload.
type CounterConfig struct {
	// GossipIntervalMs is how often the per-node counts are replicated.
	GossipIntervalMs int `mapstructure:"gossip_interval_ms"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/maelnode")
	}

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("MAELNODE")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", "localhost:9090")
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.data_dir", "./data")

	viper.SetDefault("broadcast.retry_interval_ms", 1000)
	viper.SetDefault("counter.gossip_interval_ms", 1000)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	config.Storage.DataDir = filepath.Clean(config.Storage.DataDir)

	switch config.Storage.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("storage.backend must be memory or badger, got %q", config.Storage.Backend)
	}

	if config.Broadcast.RetryIntervalMs <= 0 {
		return fmt.Errorf("broadcast.retry_interval_ms must be positive")
	}
	if config.Counter.GossipIntervalMs <= 0 {
		return fmt.Errorf("counter.gossip_interval_ms must be positive")
	}

	return nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	setDefaults()

	var config Config
	viper.Unmarshal(&config)
	validateConfig(&config)

	return &config
}
