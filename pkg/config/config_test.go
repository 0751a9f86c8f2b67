package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.Equal(t, 1000, cfg.ZippedSize)
	assert.Equal(t, "UTC", cfg.TimestampLocation)
	assert.Equal(t, []string{"html"}, cfg.ExportFormats)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench-report.yml")
	content := `reports_dir: out
zipped_size: 250
include_libs: true
export_formats: [html, json]
server_port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "out", cfg.ReportsDir)
	assert.Equal(t, 250, cfg.ZippedSize)
	assert.True(t, cfg.IncludeLibs)
	assert.Equal(t, []string{"html", "json"}, cfg.ExportFormats)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.ServerHost)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BENCH_REPORT_REPORTS_DIR", "/tmp/reports")
	t.Setenv("BENCH_REPORT_ZIPPED_SIZE", "10")
	t.Setenv("BENCH_REPORT_INCLUDE_LIBS", "true")
	t.Setenv("BENCH_REPORT_EXPORT_FORMATS", "json, yaml")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/reports", cfg.ReportsDir)
	assert.Equal(t, 10, cfg.ZippedSize)
	assert.True(t, cfg.IncludeLibs)
	assert.Equal(t, []string{"json", "yaml"}, cfg.ExportFormats)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("BENCH_REPORT_SERVER_PORT", "eighty")
	assert.Error(t, NewConfig().LoadFromEnv())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BENCH_REPORT_LOG_LEVEL=debug\n"), 0644))
	t.Setenv("BENCH_REPORT_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("BENCH_REPORT_LOG_LEVEL"))

	require.NoError(t, LoadEnvFile(path))
	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench-report.yaml")
	cfg := NewConfig()
	cfg.ReportsDir = "saved"
	cfg.HistoryLimit = 5
	require.NoError(t, cfg.Save(path))

	loaded := NewConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved", loaded.ReportsDir)
	assert.Equal(t, 5, loaded.HistoryLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty reports dir", func(c *Config) { c.ReportsDir = "" }},
		{"zero zipped size", func(c *Config) { c.ZippedSize = 0 }},
		{"bad port", func(c *Config) { c.ServerPort = 70000 }},
		{"unknown format", func(c *Config) { c.ExportFormats = []string{"pdf"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
