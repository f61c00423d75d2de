package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("err = %v, want JWT_SECRET error", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Lockout.Threshold != 5 || cfg.Lockout.Window != 15*time.Minute || cfg.Lockout.Backend != "memory" {
		t.Errorf("lockout = %+v", cfg.Lockout)
	}
	if cfg.JWT.AccessTokenExpiry != 15 || cfg.JWT.RefreshTokenExpiry != 7 {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("LOCKOUT_WINDOW", "90s")
	t.Setenv("GATEWAY_BOOTSTRAP_ADMIN", " ops@example.com, ,root@example.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8088 || cfg.Lockout.Window != 90*time.Second {
		t.Errorf("port/window = %d/%s", cfg.Server.Port, cfg.Lockout.Window)
	}
	if len(cfg.BootstrapAdmins) != 2 || cfg.BootstrapAdmins[1] != "root@example.com" {
		t.Errorf("bootstrap admins = %q", cfg.BootstrapAdmins)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("origins = %q", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":     "ninety",
		"LOCKOUT_WINDOW":  "15",
		"LOCKOUT_BACKEND": "memcached",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s accepted", key, val)
			}
		})
	}
}

func TestRedisBackendNeedsURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOCKOUT_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Error("redis backend accepted without REDIS_URL")
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("VITALYX_CONCURRENCY", "queue")
	t.Setenv("VITALYX_GATEWAY_URL", "https://gw.example.com")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != "queue" || cfg.GatewayURL != "https://gw.example.com" {
		t.Errorf("client = %+v", cfg)
	}

	t.Setenv("VITALYX_VAULT_KEY", "short")
	if _, err := LoadClient(); err == nil {
		t.Error("short vault key accepted")
	}
}
