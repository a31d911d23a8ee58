package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  user: mould
  database: mould_rental
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "Africa/Accra", cfg.Billing.Timezone)
	assert.Equal(t, int64(100000), cfg.Billing.DefaultDepositCents)
	assert.Equal(t, int64(10000), cfg.Billing.DefaultDailyRateCents)
	assert.Equal(t, int32(10), cfg.Billing.OverdueAfterDays)
	assert.Equal(t, "MRT-", cfg.Receipt.Prefix)
	assert.Equal(t, 10, cfg.Receipt.MaxAttempts)
	assert.Equal(t, 4, cfg.Reconcile.Concurrency)
	assert.Equal(t, "0 0 1 * * *", cfg.Scheduler.ReconcileInventory)
	assert.Equal(t, "Africa/Accra", cfg.Location().String())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BILLING_DAILY_RATE_CENTS", "12500")
	t.Setenv("RECEIPT_PREFIX", "TST-")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, int64(12500), cfg.Billing.DefaultDailyRateCents)
	assert.Equal(t, "TST-", cfg.Receipt.Prefix)
	assert.Equal(t, ":9090", cfg.GetServerAddress())
}

func TestParse_Invalid(t *testing.T) {
	t.Run("Missing port", func(t *testing.T) {
		_, err := Parse([]byte("database:\n  host: x\n"))
		assert.ErrorContains(t, err, "invalid server port")
	})

	t.Run("Unknown timezone", func(t *testing.T) {
		_, err := Parse([]byte(minimalYAML + "billing:\n  timezone: Mars/Olympus\n"))
		assert.ErrorContains(t, err, "invalid billing timezone")
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := Parse([]byte("server: [\n"))
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://mould:@localhost:0/mould_rental?sslmode=disable", cfg.GetDatabaseConnectionString())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
