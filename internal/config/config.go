package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const minJWTSecretLength = 32

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int
	AppEnv     string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string
	JWTIssuer string

	// Hardening
	RateLimitEnabled       bool
	LoginRateLimit         int
	LoginRateWindow        time.Duration
	MaxRequestBodySize     int64
	SecurityHeadersEnabled bool
	MetricsEnabled         bool

	// Bootstrap superadmin, seeded on startup when email and password are set
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapTenant   string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		AppEnv:     getEnv("APP_ENV", "production"),

		// Database defaults (matches podman setup: make postgres-start)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "simple_tenancy"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "simple-tenancy"),

		RateLimitEnabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
		LoginRateLimit:         getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:        getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		MaxRequestBodySize:     int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),
		SecurityHeadersEnabled: getEnvBool("SECURITY_HEADERS_ENABLED", true),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),

		BootstrapEmail:    getEnv("BOOTSTRAP_SUPERADMIN_EMAIL", ""),
		BootstrapPassword: getEnv("BOOTSTRAP_SUPERADMIN_PASSWORD", ""),
		BootstrapTenant:   getEnv("BOOTSTRAP_SUPERADMIN_TENANT", "Platform"),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if (cfg.BootstrapEmail == "") != (cfg.BootstrapPassword == "") {
		return nil, fmt.Errorf("BOOTSTRAP_SUPERADMIN_EMAIL and BOOTSTRAP_SUPERADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// HasBootstrap returns true if a superadmin should be seeded.
func (c *Config) HasBootstrap() bool {
	return c.BootstrapEmail != "" && c.BootstrapPassword != ""
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
