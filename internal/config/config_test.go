package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"SERVER_ADDR", "SERVER_PORT", "APP_ENV", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"JWT_ISSUER", "RATE_LIMIT_ENABLED", "LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW",
		"MAX_REQUEST_BODY_SIZE", "SECURITY_HEADERS_ENABLED", "METRICS_ENABLED",
		"BOOTSTRAP_SUPERADMIN_EMAIL", "BOOTSTRAP_SUPERADMIN_PASSWORD", "BOOTSTRAP_SUPERADMIN_TENANT",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Check defaults
	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "localhost")
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, want %q", cfg.DBSSLMode, "disable")
	}
	if !cfg.RateLimitEnabled || cfg.LoginRateLimit != 10 || cfg.LoginRateWindow != time.Minute {
		t.Errorf("rate limit defaults = %v/%d/%v", cfg.RateLimitEnabled, cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	if cfg.MaxRequestBodySize != 1<<20 {
		t.Errorf("MaxRequestBodySize = %d, want %d", cfg.MaxRequestBodySize, 1<<20)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.HasBootstrap() {
		t.Error("HasBootstrap() = true, want false")
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}

	t.Setenv("JWT_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is shorter than 32 characters")
	}
}

func TestLoad_BootstrapPair(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BOOTSTRAP_SUPERADMIN_EMAIL", "root@example.com")

	if _, err := Load(); err == nil {
		t.Error("Load should fail when only the bootstrap email is set")
	}

	t.Setenv("BOOTSTRAP_SUPERADMIN_PASSWORD", "changeme")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.HasBootstrap() || cfg.BootstrapTenant != "Platform" {
		t.Errorf("bootstrap = %v/%q", cfg.HasBootstrap(), cfg.BootstrapTenant)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("APP_ENV", "development")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("SERVER_ADDR", "127.0.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 9090)
	}
	if cfg.DBHost != "db.example.com" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "db.example.com")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.RateLimitEnabled {
		t.Error("RateLimitEnabled = true, want false")
	}
	if cfg.ListenAddr() != "127.0.0.1:9090" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("LOGIN_RATE_WINDOW", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.LoginRateWindow != time.Minute {
		t.Errorf("LoginRateWindow = %v, want %v", cfg.LoginRateWindow, time.Minute)
	}
}
