package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source kinds accepted in source.kind.
const (
	SourceNone     = "none"
	SourceJSON     = "json"
	SourceSQLite   = "sqlite"
	SourceBigQuery = "bigquery"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Source   SourceConfig   `mapstructure:"source"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// ServerConfig holds the ledger server settings. BaseURL is where clients reach it.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LedgerConfig holds the deletion window and the canonical timezone.
type LedgerConfig struct {
	Timezone     string        `mapstructure:"timezone"`
	DeleteWindow time.Duration `mapstructure:"delete_window"`
}

// SourceConfig selects the snapshot the server is seeded from.
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

// BigQueryConfig locates the ledger table in BigQuery.
type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
	Table   string `mapstructure:"table"`
}

// ReportConfig controls where printed reports go. A non-empty Bucket sends
// reports to GCS instead of Dir.
type ReportConfig struct {
	Dir    string `mapstructure:"dir"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Brand  string `mapstructure:"brand"`
	Format string `mapstructure:"format"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TUIConfig holds terminal dashboard settings.
type TUIConfig struct {
	LogFile string `mapstructure:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://127.0.0.1:8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("ledger.timezone", "Asia/Karachi")
	v.SetDefault("ledger.delete_window", 30*time.Minute)
	v.SetDefault("source.kind", SourceNone)
	v.SetDefault("source.path", "")
	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "ledger")
	v.SetDefault("bigquery.table", "transactions")
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.bucket", "")
	v.SetDefault("report.prefix", "reports")
	v.SetDefault("report.brand", "")
	v.SetDefault("report.format", "html")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("tui.log_file", "ledger-tui.log")
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGER_,
// e.g. LEDGER_SERVER_ADDR. An explicit path (or LEDGER_CONFIG) must exist; otherwise
// ledger.{yaml,toml,json} is looked up in the working directory and
// $HOME/.config/expense-ledger and skipped when absent.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("LEDGER_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "expense-ledger"))
		}
		v.SetConfigName("ledger")
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the ledger cannot run with.
func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Ledger.DeleteWindow <= 0 {
		return fmt.Errorf("ledger.delete_window must be positive, got %s", c.Ledger.DeleteWindow)
	}

	switch c.Source.Kind {
	case "", SourceNone:
	case SourceJSON, SourceSQLite:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for source.kind=%s", c.Source.Kind)
		}
	case SourceBigQuery:
		if c.BigQuery.Project == "" || c.BigQuery.Dataset == "" || c.BigQuery.Table == "" {
			return fmt.Errorf("bigquery.project, bigquery.dataset and bigquery.table are required for source.kind=bigquery")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	return nil
}

// Location resolves ledger.timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone %q: %w", c.Ledger.Timezone, err)
	}
	return loc, nil
}
