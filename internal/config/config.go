package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/vitalsync/internal/models"
)

type Config struct {
	Timezone     string          `yaml:"timezone"`
	OutputOffset string          `yaml:"output_offset"`
	Provider     ProviderConfig  `yaml:"provider"`
	Normalize    NormalizeConfig `yaml:"normalize"`
	Sheets       SheetsConfig    `yaml:"sheets"`
	Database     DatabaseConfig  `yaml:"database"`
	Documents    DocumentsConfig `yaml:"documents"`
	Server       ServerConfig    `yaml:"server"`
	Auth         AuthConfig      `yaml:"auth"`
	Tailscale    TailscaleConfig `yaml:"tailscale"`

	// Warnings lists ignored settings found while loading, for the caller
	// to log.
	Warnings []string `yaml:"-"`
}

type ProviderConfig struct {
	BaseURL         string        `yaml:"base_url"`
	TokenURL        string        `yaml:"token_url"`
	ClientID        string        `yaml:"client_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	TokenDir        string        `yaml:"token_dir"`
	RequestDelay    time.Duration `yaml:"request_delay"`
	Timeout         time.Duration `yaml:"timeout"`
}

type NormalizeConfig struct {
	TimeKeys []string `yaml:"time_keys"`
}

type SheetsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	KeyFile     string `yaml:"key_file"`
	Spreadsheet string `yaml:"spreadsheet"`
	Range       string `yaml:"range"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type DocumentsConfig struct {
	Dir       string `yaml:"dir"`
	GCSBucket string `yaml:"gcs_bucket"`
	GCSPrefix string `yaml:"gcs_prefix"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		OutputOffset: "+09:00",
		Provider: ProviderConfig{
			BaseURL:         "https://connectapi.garmin.com",
			TokenURL:        "https://connectapi.garmin.com/di-oauth2-service/oauth/token",
			ClientID:        "vitalsync",
			CredentialsFile: "credentials.json",
			TokenDir:        ".",
			RequestDelay:    300 * time.Millisecond,
			Timeout:         30 * time.Second,
		},
		Sheets: SheetsConfig{
			KeyFile: "gsheet_key.json",
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Documents: DocumentsConfig{
			Dir: "data",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Tailscale: TailscaleConfig{
			Hostname: "vitalsync",
			StateDir: "tsnet-state",
		},
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// StatePath is the SQLite file holding provider tokens and append state. It
// lives in the token directory so GARMINTOKENS moves both together.
func (p ProviderConfig) StatePath() string {
	return filepath.Join(p.TokenDir, "vitalsync-state.db")
}

// Location returns the zone used to decide what "today" is. An empty
// timezone means the process-local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// OutputZone returns the fixed-offset zone summary rows are rendered in.
func (c *Config) OutputZone() (*time.Location, error) {
	return ParseOffset(c.OutputOffset)
}

// ParseOffset parses "+09:00", "-0330" or "Z" into a fixed zone.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "Z" || s == "" {
		return models.FixedOffset(0), nil
	}
	for _, layout := range []string{"-07:00", "-0700", "-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			_, off := t.Zone()
			return models.FixedOffset(time.Duration(off) * time.Second), nil
		}
	}
	return nil, fmt.Errorf("invalid offset %q", s)
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. Env vars use the prefix VITALSYNC_ and
// underscore-separated paths:
//
//	VITALSYNC_TIMEZONE, VITALSYNC_OUTPUT_OFFSET,
//	VITALSYNC_PROVIDER_BASE_URL, VITALSYNC_PROVIDER_CREDENTIALS_FILE,
//	VITALSYNC_SHEETS_KEY_FILE, VITALSYNC_SHEETS_SPREADSHEET,
//	VITALSYNC_DB_HOST, VITALSYNC_DB_PORT, VITALSYNC_DB_NAME,
//	VITALSYNC_DB_USER, VITALSYNC_DB_PASSWORD, VITALSYNC_DB_SSLMODE,
//	VITALSYNC_DOCUMENTS_DIR, VITALSYNC_GCS_BUCKET,
//	VITALSYNC_SERVER_HOST, VITALSYNC_SERVER_PORT, VITALSYNC_AUTH_API_KEY
//
// TZ and GARMINTOKENS are also honored for the timezone and token directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOptional behaves like Load but falls back to Default when the file
// does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TZ"); v != "" {
		if _, err := time.LoadLocation(v); err == nil {
			cfg.Timezone = v
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring unknown TZ %q: %v", v, err))
		}
	}
	if v := os.Getenv("GARMINTOKENS"); v != "" {
		cfg.Provider.TokenDir = v
	}

	if v := os.Getenv("VITALSYNC_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("VITALSYNC_OUTPUT_OFFSET"); v != "" {
		cfg.OutputOffset = v
	}
	if v := os.Getenv("VITALSYNC_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("VITALSYNC_PROVIDER_CREDENTIALS_FILE"); v != "" {
		cfg.Provider.CredentialsFile = v
	}
	if v := os.Getenv("VITALSYNC_SHEETS_KEY_FILE"); v != "" {
		cfg.Sheets.KeyFile = v
	}
	if v := os.Getenv("VITALSYNC_SHEETS_SPREADSHEET"); v != "" {
		cfg.Sheets.Spreadsheet = v
	}
	if v := os.Getenv("VITALSYNC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("VITALSYNC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("VITALSYNC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("VITALSYNC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("VITALSYNC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("VITALSYNC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("VITALSYNC_DOCUMENTS_DIR"); v != "" {
		cfg.Documents.Dir = v
	}
	if v := os.Getenv("VITALSYNC_GCS_BUCKET"); v != "" {
		cfg.Documents.GCSBucket = v
	}
	if v := os.Getenv("VITALSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VITALSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VITALSYNC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if _, err := c.OutputZone(); err != nil {
		return fmt.Errorf("output_offset: %w", err)
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.RequestDelay < 0 {
		return fmt.Errorf("provider.request_delay must not be negative")
	}
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Sheets.Enabled {
		if c.Sheets.KeyFile == "" {
			return fmt.Errorf("sheets.key_file is required when sheets are enabled")
		}
		if c.Sheets.Spreadsheet == "" {
			return fmt.Errorf("sheets.spreadsheet is required when sheets are enabled")
		}
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	return nil
}
