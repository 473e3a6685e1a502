package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":                    "4000",
		"DB_TYPE":                 "mariadb",
		"DB_APP_DATABASE":         "landlord",
		"DB_APP_USER":             "landlord_app",
		"DB_APP_CONNECTION_LIMIT": "0",
		"AUTHZ_URL":               "http://authorizer:9010",
		"AUTHZ_CLIENT_ID":         "client",
		"AUTHZ_REDIRECT_URL":      "",
		"HEALTH_TIMEOUT":          "3",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 1, cfg.DBAppConnectionLimit)
	assert.Equal(t, "http://localhost:4000", cfg.AuthzRedirectURL)
	assert.False(t, cfg.IsSQLite())
	assert.Equal(t, 3*time.Second, cfg.HealthTimeout)
}

func TestLoadRequired(t *testing.T) {
	base := map[string]string{
		"DB_TYPE":         "mysql",
		"DB_APP_DATABASE": "landlord",
		"DB_APP_USER":     "landlord_app",
		"AUTHZ_URL":       "http://authorizer:9010",
		"AUTHZ_CLIENT_ID": "client",
	}

	for _, missing := range []string{"DB_APP_DATABASE", "DB_APP_USER", "AUTHZ_URL", "AUTHZ_CLIENT_ID"} {
		t.Run(missing, func(t *testing.T) {
			setEnv(t, base)
			t.Setenv(missing, "")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}

	t.Run("SQLiteWithoutUser", func(t *testing.T) {
		setEnv(t, base)
		t.Setenv("DB_TYPE", "sqlite")
		t.Setenv("DB_APP_USER", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsSQLite())
	})
}

func TestLoadClient(t *testing.T) {
	t.Setenv("STORE_URL", "http://store:3000/")
	t.Setenv("STORE_SESSION", "abc")
	t.Setenv("STORE_TIMEOUT", "3")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://store:3000", cfg.StoreURL)
	assert.Equal(t, "abc", cfg.StoreSession)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv("STORE_TIMEOUT", "250ms")
	cfg, err = LoadClient()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)

	t.Setenv("STORE_URL", "store:3000")
	_, err = LoadClient()
	assert.Error(t, err)
}
