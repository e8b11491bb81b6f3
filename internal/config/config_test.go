package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every variable Load reads.
var allConfigKeys = []string{
	"PORT", "APP_ENV", "VERCEL", "DATABASE_URL", "SQLITE_PATH", "DB_CONNECT_TIMEOUT",
	"CONTACTS_RESTRICTED", "EMAIL_HOST", "EMAIL_PORT", "EMAIL_SECURE", "EMAIL_USER",
	"EMAIL_PASS", "EMAIL_FROM", "EMAIL_TO", "BACKUP_PATH", "SIDE_EFFECT_TIMEOUT",
	"CORS_ORIGIN", "RATE_LIMIT_PER_MINUTE", "STATIC_DIR", "LOG_LEVEL", "LOG_FORMAT",
	"OTEL_ENDPOINT", "OTEL_ENABLED",
}

// isolateConfigEnv unsets every config variable so tests don't inherit values from
// the host environment; t.Cleanup restores the originals.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func load(t *testing.T) *Config {
	t.Helper()
	// A path that never exists keeps a developer's .env out of the test.
	cfg, err := Load(t.TempDir() + "/missing.env")
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg := load(t)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Environment())
	assert.False(t, cfg.Hosted())
	assert.False(t, cfg.Restricted())
	assert.False(t, cfg.ReadOnlyHost)
	assert.Equal(t, "data/contacts.db", cfg.SQLitePath)
	assert.Equal(t, 10*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, 587, cfg.EmailPort)
	assert.Equal(t, "info@thorsignia.in", cfg.EmailTo)
	assert.Equal(t, `"Thor Signia Website" <noreply@thorsignia.in>`, cfg.EmailFrom)
	assert.Equal(t, "data/contact_submissions.json", cfg.BackupPath)
	assert.Equal(t, 15*time.Second, cfg.SideEffectTimeout)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.False(t, cfg.EmailConfigured())
	assert.Equal(t, ":5000", cfg.Addr())
}

func TestLoad_ProductionIsRestrictedByDefault(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("APP_ENV", "Production")

	cfg := load(t)

	assert.True(t, cfg.Hosted())
	assert.True(t, cfg.Restricted())
}

func TestLoad_RestrictedOverride(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CONTACTS_RESTRICTED", "false")

	cfg := load(t)
	assert.True(t, cfg.Hosted())
	assert.False(t, cfg.Restricted())

	isolateConfigEnv(t)
	t.Setenv("CONTACTS_RESTRICTED", "true")
	cfg = load(t)
	assert.False(t, cfg.Hosted())
	assert.True(t, cfg.Restricted())
}

func TestLoad_VercelFlag(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("VERCEL", "1")

	cfg := load(t)

	assert.True(t, cfg.ReadOnlyHost)
	assert.True(t, cfg.DatabaseOptions().ReadOnlyFS)
}

func TestLoad_EmailConfigured(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USER", "user")
	t.Setenv("EMAIL_PASS", "secret")
	t.Setenv("EMAIL_PORT", "465")
	t.Setenv("EMAIL_SECURE", "true")

	cfg := load(t)

	assert.True(t, cfg.EmailConfigured())
	assert.Equal(t, 465, cfg.EmailPort)
	assert.True(t, cfg.EmailSecure)
}

func TestLoad_DatabaseOptions(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/contacts")
	t.Setenv("DB_CONNECT_TIMEOUT", "3s")

	opts := load(t).DatabaseOptions()

	assert.Equal(t, "postgres://u:p@db:5432/contacts", opts.DatabaseURL)
	assert.True(t, opts.Hosted)
	assert.Equal(t, 3*time.Second, opts.ConnectTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("SIDE_EFFECT_TIMEOUT", "soon")

	_, err := Load(t.TempDir() + "/missing.env")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_InvalidPort(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PORT", "70000")

	_, err := Load(t.TempDir() + "/missing.env")

	assert.Error(t, err)
}

func TestLoad_DotenvFile(t *testing.T) {
	isolateConfigEnv(t)
	path := t.TempDir() + "/.env"
	require.NoError(t, os.WriteFile(path, []byte("PORT=6123\nEMAIL_TO=sales@example.com\n"), 0o600))
	// godotenv.Load sets process variables; make sure they are removed afterwards.
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("EMAIL_TO")
	})

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 6123, cfg.Port)
	assert.Equal(t, "sales@example.com", cfg.EmailTo)
}
