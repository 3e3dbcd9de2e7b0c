package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the configuration file read by Load.
const DefaultPath = "config.yaml"

// dockerEnvPath exists inside every Docker container.
var dockerEnvPath = "/.dockerenv"

// Config holds all configuration for ekaya-dictionary.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Log LogConfig `yaml:"log"`

	// Database configuration (PostgreSQL). Runs are only persisted when enabled.
	Database DatabaseConfig `yaml:"database"`

	Dictionary DictionaryConfig `yaml:"dictionary"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	// Format is "json" (production encoder) or "console" (development encoder).
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" env:"PGENABLED" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_dictionary"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// DictionaryConfig holds the settings of the normalization pipeline and its uploads.
type DictionaryConfig struct {
	// PresentationSheet is the sheet read from the presentation (PowerApp) workbook.
	PresentationSheet string `yaml:"presentation_sheet" env:"DICTIONARY_PRESENTATION_SHEET" env-default:"Table DATA"`
	// SourceSheet is the sheet read from the source workbook. Empty means the first sheet.
	SourceSheet string `yaml:"source_sheet" env:"DICTIONARY_SOURCE_SHEET" env-default:""`
	// MaxUploadMB caps the size of a multipart upload.
	MaxUploadMB int64 `yaml:"max_upload_mb" env:"DICTIONARY_MAX_UPLOAD_MB" env-default:"32"`
	// GroupEmptyDescriptions makes data points with an empty-string description similar to each other.
	GroupEmptyDescriptions bool `yaml:"group_empty_descriptions" env:"DICTIONARY_GROUP_EMPTY_DESCRIPTIONS" env-default:"false"`
	// MCPBaseDir confines the workbook paths accepted by MCP tools. Empty allows any path.
	MCPBaseDir string `yaml:"mcp_base_dir" env:"DICTIONARY_MCP_BASE_DIR" env-default:""`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultPath, version)
}

// LoadFrom reads configuration from the given YAML file with environment variable overrides.
// When the file does not exist, configuration comes from environment variables and defaults.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.validateDictionary(); err != nil {
		return nil, fmt.Errorf("invalid dictionary configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

func (c *Config) validateDictionary() error {
	if c.Dictionary.PresentationSheet == "" {
		return fmt.Errorf("presentation_sheet must not be empty")
	}
	if c.Dictionary.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.Dictionary.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *DictionaryConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// ConnectionString returns a PostgreSQL connection URL.
// Inside Docker, localhost is rewritten to host.docker.internal so the engine reaches a
// database running on the host machine.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", resolveHostForDocker(c.Host), c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func resolveHostForDocker(host string) string {
	if host != "localhost" && host != "127.0.0.1" {
		return host
	}
	if _, err := os.Stat(dockerEnvPath); err != nil {
		return host
	}
	return "host.docker.internal"
}
