package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{DSN: "postgres://localhost/galeria", MaxConns: 10, MinConns: 1},
		Storage:  StorageConfig{Driver: "memory"},
		Auth:     AuthConfig{JWTSecret: "secret"},
		Cache:    CacheConfig{CategoryTTL: time.Hour},
	}
}

// isolateEnv clears every variable the loader reads so host settings cannot leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "SERVER_PORT", "SERVER_ALLOWED_ORIGINS", "DATABASE_URL",
		"STORAGE_DRIVER", "STORAGE_PUBLIC_URL", "STORAGE_PATH", "AUTH_JWT_SECRET",
		"CACHE_PATH", "CATEGORY_CACHE_TTL", "MIGRATE_ON_START", "REALTIME_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad environment", mutate: func(c *Config) { c.App.Environment = "test" }, wantErr: "invalid environment"},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "loud" }, wantErr: "invalid log level"},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "DATABASE_URL"},
		{name: "min above max", mutate: func(c *Config) { c.Database.MinConns = 20 }, wantErr: "DATABASE_MIN_CONNS"},
		{name: "s3 needs public url", mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: "STORAGE_PUBLIC_URL"},
		{name: "fs needs path", mutate: func(c *Config) { c.Storage.Driver = "fs" }, wantErr: "STORAGE_PATH"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "ftp" }, wantErr: "invalid storage driver"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "AUTH_JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.CategoryTTL = 0 }, wantErr: "CATEGORY_CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/galeria")
	t.Setenv("AUTH_JWT_SECRET", "env-secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "9000")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := load(fs, []string{"-port", "7070", "-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "flag beats env")
	assert.Equal(t, "postgres://env/galeria", cfg.Database.DSN)
	assert.Equal(t, 60*time.Minute, cfg.Cache.CategoryTTL)
	assert.True(t, cfg.Realtime.Enabled)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local settings\nDATABASE_URL=\"postgres://file/galeria\"\nAUTH_JWT_SECRET=file-secret\nSTORAGE_DRIVER=fs\nSTORAGE_PATH=" + dir + "\nCATEGORY_CACHE_TTL=5m\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := load(fs, []string{"-env-file", envPath})
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/galeria", cfg.Database.DSN)
	assert.Equal(t, "fs", cfg.Storage.Driver)
	assert.Equal(t, dir, cfg.Storage.BasePath)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CategoryTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/galeria")
	t.Setenv("AUTH_JWT_SECRET", "s")
	t.Setenv("CATEGORY_CACHE_TTL", "soon")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := load(fs, []string{"-env-file", filepath.Join(t.TempDir(), "none")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATEGORY_CACHE_TTL")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/galeria/cache")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "galeria", "cache"), got)

	got, err = expandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, splitList(" https://a.test, ,https://b.test "))
	assert.Nil(t, splitList(""))
}
