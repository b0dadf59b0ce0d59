// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`

	// DataDir is where the accounts file, diagnostics, and CLI state live.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// RemoteConfig describes the remote web application being driven. The locator
// tables live in code; everything wording- or deployment-specific lives here so
// a remote-side change is a config edit.
type RemoteConfig struct {
	LoginURL     string `mapstructure:"login_url" yaml:"login_url"`
	OfferingsURL string `mapstructure:"offerings_url" yaml:"offerings_url"`

	// Eligibility predicate tokens (case-insensitive substring match).
	CategoryToken string `mapstructure:"category_token" yaml:"category_token"`
	GroupToken    string `mapstructure:"group_token" yaml:"group_token"`

	// Action-control labels that mean "already completed" for this account.
	CompletedLabels []string `mapstructure:"completed_labels" yaml:"completed_labels"`

	// Minimum gap between consecutive per-account submissions.
	PaceInterval time.Duration `mapstructure:"pace_interval" yaml:"pace_interval"`
}

// ReportConfig controls where the structured outcome report is written.
type ReportConfig struct {
	Output string `mapstructure:"output" yaml:"output"`
}

// HistoryConfig configures the optional run-history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// AccountsFile returns the path of the accounts file inside the data directory.
func (c *Config) AccountsFile() string {
	return filepath.Join(c.DataDir, "family_members.json")
}

// DiagnosticsDir returns the directory screenshots are written to.
func (c *Config) DiagnosticsDir() string {
	return filepath.Join(c.DataDir, "diagnostics")
}

// DefaultDataDir resolves the default data directory. The Documents folder is
// preferred when it exists so the accounts file lands somewhere users look.
func DefaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "merosharedata"
	}
	docs := filepath.Join(home, "Documents")
	if dirExists(docs) {
		return filepath.Join(docs, "merosharedata")
	}
	return filepath.Join(home, "merosharedata")
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "meroflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Remote application --
	v.SetDefault("remote.login_url", "https://meroshare.cdsc.com.np/#/login")
	v.SetDefault("remote.offerings_url", "https://meroshare.cdsc.com.np/#/asba")
	v.SetDefault("remote.category_token", "ipo")
	v.SetDefault("remote.group_token", "ordinary")
	v.SetDefault("remote.completed_labels", []string{"edit", "view"})
	v.SetDefault("remote.pace_interval", "2s")

	// -- Report --
	v.SetDefault("report.output", "stdout")

	// -- History --
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dsn", "")

	v.SetDefault("data_dir", DefaultDataDir())
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("history.dsn", "MEROFLOW_HISTORY_DSN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Remote.LoginURL == "" || c.Remote.OfferingsURL == "" {
		return fmt.Errorf("remote.login_url and remote.offerings_url are required")
	}
	if c.Remote.CategoryToken == "" || c.Remote.GroupToken == "" {
		return fmt.Errorf("remote.category_token and remote.group_token are required")
	}
	if len(c.Remote.CompletedLabels) == 0 {
		return fmt.Errorf("remote.completed_labels must list at least one label")
	}
	if c.Remote.PaceInterval < 0 {
		return fmt.Errorf("remote.pace_interval must not be negative")
	}
	if c.History.Enabled && c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required when history.enabled is true")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}
