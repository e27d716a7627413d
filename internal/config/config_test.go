package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ODPAD_DB", "ODPAD_ADDR", "ODPAD_ADMIN_EMAIL", "ODPAD_LOG", "ODPAD_SEED",
		"ODPAD_REDIS", "ODPAD_REDIS_USER", "ODPAD_REDIS_PASSWORD", "ODPAD_ORIGINS"} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultAdminEmail, cfg.AdminEmail)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestFlagsAndAliases(t *testing.T) {
	clearEnv(t)

	cfg, err := New([]string{"-d", "/tmp/x.db", "-addr", "127.0.0.1:9000", "-e", " Ops@Campus.Example ",
		"-r", "cache", "-o", "http://a.example, http://b.example,"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "ops@campus.example", cfg.AdminEmail)
	assert.Equal(t, "cache", cfg.RedisAddr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("ODPAD_DB", "env.db")
	t.Setenv("ODPAD_SEED", "seed.yaml")
	t.Setenv("ODPAD_REDIS_PASSWORD", "hunter2")

	cfg, err := New(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, "seed.yaml", cfg.SeedPath)
	assert.Equal(t, "hunter2", cfg.RedisPassword)

	// Flags beat the environment.
	cfg, err = New([]string{"-db", "flag.db"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.DBPath)
}

func TestInvalidInput(t *testing.T) {
	clearEnv(t)

	_, err := New([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)

	_, err = New([]string{"serve"}, io.Discard)
	assert.ErrorContains(t, err, "unexpected argument")

	_, err = New([]string{"-email", "admin"}, io.Discard)
	assert.Error(t, err)

	_, err = New([]string{"-db", ""}, io.Discard)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ODPAD_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ODPAD_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ODPAD_TEST_DOTENV"))

	require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=x\n"), 0o600))
	assert.Error(t, LoadDotEnv(path))
}
