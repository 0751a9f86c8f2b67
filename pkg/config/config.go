package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BENCH_REPORT_"

// Config holds the configuration for report generation
type Config struct {
	// Storage settings
	ReportsDir   string `mapstructure:"reports_dir"`
	DatabasePath string `mapstructure:"database_path"`
	HistoryLimit int    `mapstructure:"history_limit"`

	// Rendering settings
	AssetsDir         string   `mapstructure:"assets_dir"`
	IncludeLibs       bool     `mapstructure:"include_libs"`
	ZippedSize        int      `mapstructure:"zipped_size"`
	TimestampLayout   string   `mapstructure:"timestamp_layout"`
	TimestampLocation string   `mapstructure:"timestamp_location"`
	ExportFormats     []string `mapstructure:"export_formats"`

	// Server settings
	ServerHost string `mapstructure:"server_host"`
	ServerPort int    `mapstructure:"server_port"`

	LogLevel string `mapstructure:"log_level"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ReportsDir:        "reports",
		DatabasePath:      filepath.Join("reports", ".bench-history", "tasks.db"),
		HistoryLimit:      20,
		AssetsDir:         filepath.Join("web", "libs"),
		IncludeLibs:       false,
		ZippedSize:        1000,
		TimestampLayout:   "2006-01-02 15:04:05",
		TimestampLocation: "UTC",
		ExportFormats:     []string{"html"},
		ServerHost:        "localhost",
		ServerPort:        8080,
		LogLevel:          "info",
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return NewConfig()
}

// searchPaths lists the config files LoadConfig looks for, in order
var searchPaths = []string{
	"bench-report.yml",
	"bench-report.yaml",
	"bench-report.json",
	filepath.Join(".bench", "report-config.yml"),
}

// LoadConfig loads configuration from the first config file found, then
// applies environment overrides. A .env file in the working directory is
// read first and never overrides variables already set.
func LoadConfig() (*Config, error) {
	cfg := NewConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.LoadFromFile(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
			break
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromFile loads configuration from a file (YAML, JSON, or TOML)
func (c *Config) LoadFromFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(c)
}

// LoadEnvFile reads variables from a dotenv file into the process environment
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// LoadFromEnv applies BENCH_REPORT_* environment overrides
func (c *Config) LoadFromEnv() error {
	strs := map[string]*string{
		"REPORTS_DIR":        &c.ReportsDir,
		"DATABASE_PATH":      &c.DatabasePath,
		"ASSETS_DIR":         &c.AssetsDir,
		"TIMESTAMP_LAYOUT":   &c.TimestampLayout,
		"TIMESTAMP_LOCATION": &c.TimestampLocation,
		"SERVER_HOST":        &c.ServerHost,
		"LOG_LEVEL":          &c.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ZIPPED_SIZE":   &c.ZippedSize,
		"SERVER_PORT":   &c.ServerPort,
		"HISTORY_LIMIT": &c.HistoryLimit,
	}
	for key, dst := range ints {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = n
	}

	if v := os.Getenv(EnvPrefix + "INCLUDE_LIBS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sINCLUDE_LIBS %q: %w", EnvPrefix, v, err)
		}
		c.IncludeLibs = b
	}

	if v := os.Getenv(EnvPrefix + "EXPORT_FORMATS"); v != "" {
		var formats []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				formats = append(formats, f)
			}
		}
		c.ExportFormats = formats
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("reports_dir", c.ReportsDir)
	v.Set("database_path", c.DatabasePath)
	v.Set("history_limit", c.HistoryLimit)
	v.Set("assets_dir", c.AssetsDir)
	v.Set("include_libs", c.IncludeLibs)
	v.Set("zipped_size", c.ZippedSize)
	v.Set("timestamp_layout", c.TimestampLayout)
	v.Set("timestamp_location", c.TimestampLocation)
	v.Set("export_formats", c.ExportFormats)
	v.Set("server_host", c.ServerHost)
	v.Set("server_port", c.ServerPort)
	v.Set("log_level", c.LogLevel)

	return v.WriteConfig()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ReportsDir == "" {
		return fmt.Errorf("reports_dir must not be empty")
	}
	if c.ZippedSize <= 0 {
		return fmt.Errorf("zipped_size must be positive, got %d", c.ZippedSize)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", c.ServerPort)
	}
	for _, f := range c.ExportFormats {
		switch f {
		case "html", "json", "yaml":
		default:
			return fmt.Errorf("unsupported export format %q", f)
		}
	}
	return nil
}
