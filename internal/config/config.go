package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Catalog CatalogConfig `toml:"catalog"`
	Library LibraryConfig `toml:"library"`
	Cache   CacheConfig   `toml:"cache"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
	Tunnel  TunnelConfig  `toml:"tunnel"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// StorageConfig selects and configures the object store backend. Backend is
// either "local" (a directory on disk) or "minio" (any S3-compatible blob
// service). Credentials may be left empty in the file and supplied through
// the MINIO_ACCESS_KEY / MINIO_SECRET_KEY environment variables instead.
type StorageConfig struct {
	Backend   string `toml:"backend"`
	Root      string `toml:"root"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// CatalogConfig contains catalog database configuration
type CatalogConfig struct {
	Path string `toml:"path"`
}

// LibraryConfig contains media library configuration
type LibraryConfig struct {
	SupportedFormats []string `toml:"supported_formats"`
	SyncOnStartup    bool     `toml:"sync_on_startup"`
	WatchForChanges  bool     `toml:"watch_for_changes"`
	AllowUploads     bool     `toml:"allow_uploads"`
	MaxUploadSizeMB  int64    `toml:"max_upload_size_mb"`
}

// CacheConfig bounds the in-process cover art cache. CoverCapacity is the
// maximum number of extracted covers kept resident; least recently used
// entries are evicted beyond it.
type CacheConfig struct {
	CoverCapacity int `toml:"cover_capacity"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled           bool   `toml:"enabled"`
	UsersFilePath     string `toml:"users_file"`
	SessionDuration   string `toml:"session_duration"`
	SecureCookies     bool   `toml:"secure_cookies"`
	AllowRegistration bool   `toml:"allow_registration"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// TunnelConfig contains ngrok tunnel configuration
type TunnelConfig struct {
	Enabled   bool   `toml:"enabled"`
	AuthToken string `toml:"auth_token"`
	Domain    string `toml:"domain"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Storage: StorageConfig{
			Backend: "local",
			Root:    "./library",
			Region:  "us-east-1",
		},
		Catalog: CatalogConfig{
			Path: "./cadenza.db",
		},
		Library: LibraryConfig{
			SupportedFormats: []string{".mp3", ".flac", ".wav", ".ogg", ".m4a"},
			SyncOnStartup:    true,
			WatchForChanges:  true,
			AllowUploads:     true,
			MaxUploadSizeMB:  200,
		},
		Cache: CacheConfig{
			CoverCapacity: 512,
		},
		Auth: AuthConfig{
			Enabled:           false,
			UsersFilePath:     "./users.toml",
			SessionDuration:   "24h",
			SecureCookies:     false,
			AllowRegistration: true,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Tunnel: TunnelConfig{
			Enabled: false,
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating a default file
// if none exists yet. Environment variables override stored credentials.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides pulls secrets from the environment so they never have to
// live in the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("NGROK_AUTHTOKEN"); v != "" && c.Tunnel.AuthToken == "" {
		c.Tunnel.AuthToken = v
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Cadenza Media Library Configuration
# Edit the values below to customize your server settings.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Root == "" {
			return fmt.Errorf("storage root cannot be empty for the local backend")
		}
	case "minio":
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for the minio backend")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (must be local or minio)", c.Storage.Backend)
	}

	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path cannot be empty")
	}
	if len(c.Library.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	if c.Cache.CoverCapacity <= 0 {
		return fmt.Errorf("cover cache capacity must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}
