package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEDGER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Server.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Asia/Karachi", cfg.Ledger.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.Ledger.DeleteWindow)
	assert.Equal(t, SourceNone, cfg.Source.Kind)
	assert.Equal(t, "reports", cfg.Report.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "ledger-tui.log", cfg.TUI.LogFile)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Karachi", loc.String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  shutdown_timeout: 5s
ledger:
  timezone: UTC
  delete_window: 10m
source:
  kind: sqlite
  path: ledger.db
report:
  bucket: ledger-reports
`), 0o644))

	t.Setenv("LEDGER_LOGGING_LEVEL", "debug")
	t.Setenv("LEDGER_SERVER_BASE_URL", "http://ledger.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Ledger.DeleteWindow)
	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, "ledger.db", cfg.Source.Path)
	assert.Equal(t, "ledger-reports", cfg.Report.Bucket)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://ledger.internal", cfg.Server.BaseURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Ledger: LedgerConfig{Timezone: "UTC", DeleteWindow: time.Minute}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad zone", mutate: func(c *Config) { c.Ledger.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.Ledger.DeleteWindow = 0 }, wantErr: true},
		{name: "json without path", mutate: func(c *Config) { c.Source.Kind = SourceJSON }, wantErr: true},
		{name: "json with path", mutate: func(c *Config) { c.Source = SourceConfig{Kind: SourceJSON, Path: "rows.json"} }},
		{name: "bigquery incomplete", mutate: func(c *Config) { c.Source.Kind = SourceBigQuery }, wantErr: true},
		{name: "bigquery complete", mutate: func(c *Config) {
			c.Source.Kind = SourceBigQuery
			c.BigQuery = BigQueryConfig{Project: "p", Dataset: "d", Table: "t"}
		}},
		{name: "unknown kind", mutate: func(c *Config) { c.Source.Kind = "postgres" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
