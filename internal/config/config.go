package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Server  string `mapstructure:"server"`
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for various commands
type DefaultsConfig struct {
	// Project context for the producer commands
	ProjectID string `mapstructure:"project_id"`

	// Watch command defaults
	ReconnectAttempts int    `mapstructure:"reconnect_attempts"`
	HeartbeatInterval string `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  string `mapstructure:"heartbeat_timeout"`

	// Relay command defaults
	RelayAddr string `mapstructure:"relay_addr"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Server:  "http://localhost:4983",
		Format:  "ndjson",
		Quiet:   false,
		Verbose: false,
		Defaults: DefaultsConfig{
			ReconnectAttempts: 5,
			HeartbeatInterval: "10s",
			HeartbeatTimeout:  "30s",
			RelayAddr:         ":4983",
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("pulse")
	v.SetConfigType("yaml")

	// Add config paths (in order of precedence, lowest first)
	// 1. System-wide config
	v.AddConfigPath("/etc/pulse/")
	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "pulse"))
	}
	// 3. Home directory (as .pulserc.yaml or .pulse.yaml)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".pulse")
	}
	// 4. Current directory
	v.AddConfigPath(".")

	// Also check for .pulserc file
	v.SetConfigName(".pulserc")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	// Environment variables
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("server", "PULSE_SERVER")
	v.BindEnv("format", "PULSE_FORMAT")
	v.BindEnv("quiet", "PULSE_QUIET")
	v.BindEnv("verbose", "PULSE_VERBOSE")
	v.BindEnv("defaults.project_id", "PULSE_PROJECT_ID")

	// Set defaults
	cfg := Default()
	v.SetDefault("server", cfg.Server)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.reconnect_attempts", cfg.Defaults.ReconnectAttempts)
	v.SetDefault("defaults.heartbeat_interval", cfg.Defaults.HeartbeatInterval)
	v.SetDefault("defaults.heartbeat_timeout", cfg.Defaults.HeartbeatTimeout)
	v.SetDefault("defaults.relay_addr", cfg.Defaults.RelayAddr)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found; use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("pulse")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	// Try .pulserc
	v.SetConfigName(".pulserc")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}
