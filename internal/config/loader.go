package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetConfigName("config")

	if configPath != "" {
		// Use explicit path if provided
		v.SetConfigFile(configPath)
	} else {
		// Search in multiple locations
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lenskeep")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".lenskeep"))
		}
	}

	// Defaults are overridden by config file and env vars
	setDefaults(v)

	v.SetEnvPrefix("LENSKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file doesn't exist, we have defaults and env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// NewDefault returns a configuration populated with default values only
func NewDefault() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		// Defaults are static; this cannot fail in practice
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.path", "data/gallery.db")
	v.SetDefault("store.log_level", "error")

	// Photo storage defaults
	v.SetDefault("photos.dir", "data/images")

	// Backup defaults
	v.SetDefault("backup.dir", "data/backups")
	v.SetDefault("backup.retention_bytes", int64(2<<30)) // 2 GiB
	v.SetDefault("backup.legacy_ledger_file", "data/migrations.txt")

	// Server defaults
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.debug", false)

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
}

// bindEnvVars binds specific environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	// Log level can be set via LOG_LEVEL or LENSKEEP_SERVER_LOG_LEVEL
	v.BindEnv("server.log_level", "LOG_LEVEL", "LENSKEEP_SERVER_LOG_LEVEL")

	// Admin session secret
	v.BindEnv("auth.jwt_secret", "JWT_SECRET", "LENSKEEP_AUTH_JWT_SECRET")

	// Debug mode
	v.BindEnv("server.debug", "DEBUG", "LENSKEEP_SERVER_DEBUG")
}
