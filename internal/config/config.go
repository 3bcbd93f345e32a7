package config

import (
	"fmt"
	"time"
)

// Config represents the main application configuration
type Config struct {
	Store  Store  `json:"store" mapstructure:"store"`
	Photos Photos `json:"photos" mapstructure:"photos"`
	Backup Backup `json:"backup" mapstructure:"backup"`
	Server Server `json:"server" mapstructure:"server"`
	Auth   Auth   `json:"auth" mapstructure:"auth"`
	HTTP   HTTP   `json:"http" mapstructure:"http"`
}

// Store represents the relational store configuration
type Store struct {
	// Path is the sqlite database file. The backup subsystem copies this
	// file into archives and replaces it during restore, so it must be a
	// plain file path, not a DSN.
	Path     string `json:"path" mapstructure:"path"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

// Photos represents the photo storage configuration
type Photos struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// Backup represents backup and retention configuration
type Backup struct {
	Dir            string `json:"dir" mapstructure:"dir"`
	RetentionBytes int64  `json:"retention_bytes" mapstructure:"retention_bytes"`
	// LegacyLedgerFile is the old flat-file list of applied migrations,
	// imported once on startup and then deleted.
	LegacyLedgerFile string `json:"legacy_ledger_file" mapstructure:"legacy_ledger_file"`
}

// Server represents server configuration
type Server struct {
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	Debug    bool   `json:"debug" mapstructure:"debug"`
}

// Auth represents admin session configuration
type Auth struct {
	JWTSecret string        `json:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl" mapstructure:"token_ttl"`
}

// HTTP represents HTTP server configuration
type HTTP struct {
	Port         int      `json:"port" mapstructure:"port"`
	AllowOrigins []string `json:"allow_origins" mapstructure:"allow_origins"`
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Photos.Dir == "" {
		return fmt.Errorf("photos.dir is required")
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required")
	}
	if c.Backup.RetentionBytes <= 0 {
		return fmt.Errorf("backup.retention_bytes must be positive")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	// An empty secret would let anyone forge admin session tokens
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret cannot be empty")
	}
	return nil
}
