package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"NUXT_PUBLIC_API_BASE", "API_URL", "API_BASE_URL", "ENVIRONMENT", "LISTEN_ADDR",
	"ARC_CONFIG_DIR", "ARC_TOKEN_KEY", "LOG_LEVEL", "HTTP_TIMEOUT",
}

// clearEnv blanks every key; Load treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":3002", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "arc", filepath.Base(cfg.ConfigDir))
	assert.False(t, cfg.IsProduction())
}

func TestLoad_APIBasePrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "http://third/api")
	t.Setenv("API_URL", "http://second/api")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://second/api", cfg.APIBase)

	t.Setenv("NUXT_PUBLIC_API_BASE", "http://first/api")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://first/api", cfg.APIBase)
}

func TestLoad_DotenvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even when empty.
	for _, k := range []string{"API_URL", "LOG_LEVEL"} {
		require.NoError(t, os.Unsetenv(k))
	}

	f := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(f, []byte("API_URL=http://from-file:9000/api/v1\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("API_URL")
		_ = os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:9000/api/v1", cfg.APIBase)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"relative api":  {"API_URL", "/api/v1"},
		"bad timeout":   {"HTTP_TIMEOUT", "soon"},
		"negative":      {"HTTP_TIMEOUT", "-1s"},
		"bad log level": {"LOG_LEVEL", "loud"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestValidate_ProductionRequiresHTTPS(t *testing.T) {
	t.Parallel()

	cfg := &Config{APIBase: "http://api.example.com/api/v1", Environment: "production", ListenAddr: ":1", LogLevel: "info", HTTPTimeout: time.Second}
	require.Error(t, cfg.Validate())

	cfg.APIBase = "https://api.example.com/api/v1"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProduction())
}
