package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Billing   BillingConfig   `yaml:"billing"`
	Receipt   ReceiptConfig   `yaml:"receipt"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig contains the rental charging rules
type BillingConfig struct {
	Timezone              string `yaml:"timezone"`
	DefaultDepositCents   int64  `yaml:"default_deposit_cents"`
	DefaultDailyRateCents int64  `yaml:"default_daily_rate_cents"`
	OverdueAfterDays      int32  `yaml:"overdue_after_days"`
}

// ReceiptConfig contains receipt numbering settings
type ReceiptConfig struct {
	Prefix      string `yaml:"prefix"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// ReconcileConfig contains inventory reconciliation settings
type ReconcileConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileInventory string `yaml:"reconcile_inventory"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Billing
	if val := os.Getenv("BILLING_TIMEZONE"); val != "" {
		c.Billing.Timezone = val
	}
	if val := os.Getenv("BILLING_DEPOSIT_CENTS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.DefaultDepositCents)
	}
	if val := os.Getenv("BILLING_DAILY_RATE_CENTS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.DefaultDailyRateCents)
	}

	// Receipt
	if val := os.Getenv("RECEIPT_PREFIX"); val != "" {
		c.Receipt.Prefix = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}

	// Billing defaults
	if c.Billing.Timezone == "" {
		c.Billing.Timezone = "Africa/Accra"
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("invalid billing timezone %q: %w", c.Billing.Timezone, err)
	}
	if c.Billing.DefaultDepositCents == 0 {
		c.Billing.DefaultDepositCents = 100000 // GHS 1000.00
	}
	if c.Billing.DefaultDailyRateCents == 0 {
		c.Billing.DefaultDailyRateCents = 10000 // GHS 100.00
	}
	if c.Billing.DefaultDepositCents < 0 || c.Billing.DefaultDailyRateCents < 0 {
		return fmt.Errorf("billing amounts must not be negative")
	}
	if c.Billing.OverdueAfterDays == 0 {
		c.Billing.OverdueAfterDays = 10
	}

	// Receipt defaults
	if c.Receipt.Prefix == "" {
		c.Receipt.Prefix = "MRT-"
	}
	if c.Receipt.MaxAttempts == 0 {
		c.Receipt.MaxAttempts = 10
	}
	if c.Receipt.MaxAttempts < 1 {
		return fmt.Errorf("receipt max attempts must be positive: %d", c.Receipt.MaxAttempts)
	}

	if c.Reconcile.Concurrency <= 0 {
		c.Reconcile.Concurrency = 4
	}

	// Scheduler defaults
	if c.Scheduler.ReconcileInventory == "" {
		c.Scheduler.ReconcileInventory = "0 0 1 * * *" // 1 AM daily
	}

	return nil
}

// Location returns the billing time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Billing.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
