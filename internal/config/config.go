// Package config loads server configuration from flags, environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Realtime RealtimeConfig
	Search   SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string // CORS origins for the admin front end
	UploadRPS      float64  // per-user image upload rate
	UploadBurst    int
}

// DatabaseConfig holds the backend Postgres connection settings.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	MigrateOnStart  bool
}

// StorageConfig selects and configures the object storage driver.
type StorageConfig struct {
	Driver    string // s3, fs or memory
	PublicURL string // base for public object URLs, bucket and key are appended
	BasePath  string // fs driver root

	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// AuthConfig holds the secret used to verify backend-issued access tokens.
type AuthConfig struct {
	JWTSecret string
	Audience  string
}

// CacheConfig configures the reference data cache.
type CacheConfig struct {
	Path        string // empty keeps the cache in memory
	CategoryTTL time.Duration
}

// RealtimeConfig configures the change feed.
type RealtimeConfig struct {
	Enabled bool
}

// SearchConfig configures the works full-text index.
type SearchConfig struct {
	Path string // empty keeps the index in memory
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("allowed-origins", "", "Comma-separated CORS origins")

	dsn := fs.String("database-url", "", "Postgres connection string")
	migrate := fs.String("migrate", "", "Apply migrations on start (default: true)")

	storageDriver := fs.String("storage-driver", "", "Object storage driver: s3, fs, memory (default: s3)")
	storageURL := fs.String("storage-public-url", "", "Public base URL for stored objects")
	storagePath := fs.String("storage-path", "", "Root directory for the fs storage driver")

	cachePath := fs.String("cache-path", "", "Directory for the reference data cache (empty: in memory)")
	categoryTTL := fs.String("category-cache-ttl", "", "Category cache TTL (default: 60m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*origins, "SERVER_ALLOWED_ORIGINS", "*")),
			UploadRPS:      getFloatConfigValue("", "SERVER_UPLOAD_RPS", 2),
			UploadBurst:    getIntConfigValue("", "SERVER_UPLOAD_BURST", 10),
		},
		Database: DatabaseConfig{
			DSN:            getConfigValue(*dsn, "DATABASE_URL", ""),
			MaxConns:       int32(getIntConfigValue("", "DATABASE_MAX_CONNS", 10)),
			MinConns:       int32(getIntConfigValue("", "DATABASE_MIN_CONNS", 1)),
			MigrateOnStart: getBoolConfigValue(*migrate, "MIGRATE_ON_START", true),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(getConfigValue(*storageDriver, "STORAGE_DRIVER", "s3")),
			PublicURL:      strings.TrimRight(getConfigValue(*storageURL, "STORAGE_PUBLIC_URL", ""), "/"),
			BasePath:       getConfigValue(*storagePath, "STORAGE_PATH", ""),
			S3Region:       getConfigValue("", "S3_REGION", "us-east-1"),
			S3Endpoint:     getConfigValue("", "S3_ENDPOINT", ""),
			S3AccessKey:    getConfigValue("", "S3_ACCESS_KEY_ID", ""),
			S3SecretKey:    getConfigValue("", "S3_SECRET_ACCESS_KEY", ""),
			S3UsePathStyle: getBoolConfigValue("", "S3_USE_PATH_STYLE", true),
		},
		Auth: AuthConfig{
			JWTSecret: getConfigValue("", "AUTH_JWT_SECRET", ""),
			Audience:  getConfigValue("", "AUTH_AUDIENCE", "authenticated"),
		},
		Cache: CacheConfig{
			Path: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Realtime: RealtimeConfig{
			Enabled: getBoolConfigValue("", "REALTIME_ENABLED", true),
		},
		Search: SearchConfig{
			Path: getConfigValue("", "SEARCH_INDEX_PATH", ""),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "DATABASE_MAX_CONN_LIFETIME", "1h", &cfg.Database.MaxConnLifetime},
		{"", "DATABASE_MAX_CONN_IDLE_TIME", "30m", &cfg.Database.MaxConnIdleTime},
		{*categoryTTL, "CATEGORY_CACHE_TTL", "60m", &cfg.Cache.CategoryTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required values are present and consistent.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.DSN == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS (%d) exceeds DATABASE_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	switch c.Storage.Driver {
	case "s3":
		if c.Storage.PublicURL == "" {
			return errors.New("STORAGE_PUBLIC_URL is required for the s3 driver")
		}
	case "fs":
		if c.Storage.BasePath == "" {
			return errors.New("STORAGE_PATH is required for the fs driver")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage driver: %s (must be s3, fs, or memory)", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	if c.Cache.CategoryTTL <= 0 {
		return errors.New("CATEGORY_CACHE_TTL must be positive")
	}

	return nil
}

// expandPaths resolves ~ and relative paths for every on-disk location.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Storage.BasePath, &c.Cache.Path, &c.Search.Path} {
		expanded, err := expandPath(*p)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// expandPath expands ~ and makes path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (any case) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	raw = strings.ToLower(raw)
	return raw == "true" || raw == "1" || raw == "yes"
}

// getIntConfigValue returns an int, falling back to the default on parse errors.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(raw, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64, falling back to the default on parse errors.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(raw, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads KEY=value lines from a .env file. Variables already set win.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
