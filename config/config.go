/*
Package config loads server configuration from a YAML file and the
environment.

PRECEDENCE:
  built-in defaults < YAML file (TRAINING_CONFIG_FILE) < TRAINING_* env vars

  Command-line flags in cmd/server override the loaded values last.

ENVIRONMENT:
  TRAINING_SERVER_PORT              HTTP port (8080)
  TRAINING_SERVER_ALLOWED_ORIGINS   comma-separated CORS origins
  TRAINING_SERVER_MAX_UPLOAD_BYTES  feed upload limit (32 MiB)
  TRAINING_DATABASE_DRIVER          sqlite | memory
  TRAINING_DATABASE_PATH            sqlite file, ":memory:" for ephemeral
  TRAINING_LOGGING_LEVEL            debug | info | warn | error
  TRAINING_LOGGING_FORMAT           json | text
  TRAINING_REPORT_GROUP_TABLE_PATH  institution group table (JSON/YAML)
  TRAINING_REPORT_ELIGIBILITY_DAYS  settling period of the 3-week rule
  TRAINING_REPORT_TODAY             fixed evaluation date (YYYY-MM-DD)
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "TRAINING"

// FileEnv names the variable holding the YAML config path.
const FileEnv = "TRAINING_CONFIG_FILE"

// Config is the server configuration. Leaf fields use split_words, not
// envconfig names, so lookups never fall back to unprefixed variables
// such as PATH.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true" validate:"dive,required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"min=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" split_words:"true" validate:"min=1024"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" split_words:"true" validate:"oneof=sqlite memory"`
	Path   string `yaml:"path" split_words:"true" validate:"required_if=Driver sqlite"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=json text"`
}

type ReportConfig struct {
	GroupTablePath  string `yaml:"group_table" split_words:"true" validate:"omitempty,file"`
	EligibilityDays int    `yaml:"eligibility_days" split_words:"true" validate:"min=1,max=365"`
	Today           string `yaml:"today" split_words:"true" validate:"omitempty,datetime=2006-01-02"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Database: DatabaseConfig{Driver: "sqlite", Path: "training.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Report:   ReportConfig{EligibilityDays: 21},
	}
}

// Load reads the file named by TRAINING_CONFIG_FILE, if any, then the
// environment, and validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// FixedToday returns the configured evaluation date. ok is false when the
// server should use the wall clock.
func (c *Config) FixedToday() (today time.Time, ok bool) {
	if c.Report.Today == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, c.Report.Today)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
