package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger — logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server — HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Assessment — schema and session parameters
	Assessment AssessmentConfig `mapstructure:"assessment"`
	// Journal — report journal configuration
	Journal JournalConfig `mapstructure:"journal"`
	// Store — report persistence configuration
	Store StoreConfig `mapstructure:"store"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level — log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address — address and port where the server will listen (e.g., ":8080").
	Address string `mapstructure:"address"`
	// Static — path to directory with static files served by the server.
	// Can be empty if static serving is not required.
	Static string `mapstructure:"static"`
}

// AssessmentConfig defines schema and session parameters.
type AssessmentConfig struct {
	// Schema — path to the assessment schema document (YAML or JSON).
	Schema string `mapstructure:"schema"`
	// SessionTtl — idle time after which an in-memory session is swept.
	// Example: "30m", "2h".
	SessionTtl time.Duration `mapstructure:"session_ttl"`
	// HistoryLength — maximum number of report snapshots kept per session.
	HistoryLength int `mapstructure:"history_length"`
}

// JournalConfig defines the report journal parameters.
type JournalConfig struct {
	// File — journal file path; empty disables journaling.
	File string `mapstructure:"file"`
	// Size — maximal journal file size in MB before rotation (default 100).
	Size int `mapstructure:"size"`
	// Amount — number of rotated journal files to keep (default 20).
	Amount int `mapstructure:"amount"`
}

// StoreConfig defines report persistence parameters.
type StoreConfig struct {
	// Path — SQLite database file path; empty disables persistence.
	Path string `mapstructure:"path"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first
// detected error. Returns nil if the configuration is valid.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Assessment.Validate(); err != nil {
		return err
	}
	return c.Journal.Validate()
}

// Validate checks the correctness of the logger configuration.
// Supported levels: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

// Validate checks the correctness of the server configuration.
func (n *ServerConfig) Validate() error {
	if n.Address == "" {
		return errors.New("server.address: must be specified")
	}
	return nil
}

// Validate checks the assessment configuration and applies defaults for
// unset session parameters.
func (a *AssessmentConfig) Validate() error {
	if a.Schema == "" {
		return errors.New("assessment.schema: must be specified")
	}
	if a.SessionTtl == 0 {
		a.SessionTtl = time.Hour
	}
	if a.HistoryLength == 0 {
		a.HistoryLength = 10
	}
	return nil
}

// Validate applies journal defaults.
func (j *JournalConfig) Validate() error {
	if j.Size == 0 {
		j.Size = 100
	}
	if j.Amount == 0 {
		j.Amount = 20
	}
	return nil
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Also includes environment variable loading
// (AutomaticEnv), which can override values from the file.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
