package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv sets the variables Load refuses to start without
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("ENV", "development")
}

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	// Invalid duration should fall back to default
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
}

func TestThrottleConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Throttle.Backend != ThrottleBackendMemory {
		t.Errorf("Backend: got %q, want %q", cfg.Throttle.Backend, ThrottleBackendMemory)
	}
	if cfg.Throttle.MaxAttempts != 3 {
		t.Errorf("MaxAttempts: got %d, want 3", cfg.Throttle.MaxAttempts)
	}
	if cfg.Throttle.BanDuration != 30*time.Second {
		t.Errorf("BanDuration: got %v, want 30s", cfg.Throttle.BanDuration)
	}
	if cfg.Throttle.IdleTTL != 0 {
		t.Errorf("IdleTTL: got %v, want 0", cfg.Throttle.IdleTTL)
	}
	if cfg.Auth.SessionTTL != 90*24*time.Hour {
		t.Errorf("SessionTTL: got %v, want 90 days", cfg.Auth.SessionTTL)
	}
	if cfg.Storage.ListingBackend != ListingBackendPostgres {
		t.Errorf("ListingBackend: got %q, want %q", cfg.Storage.ListingBackend, ListingBackendPostgres)
	}
}

func TestThrottleConfig_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGIN_MAX_ATTEMPTS", "5")
	t.Setenv("LOGIN_BAN_DURATION", "2m")
	t.Setenv("LOGIN_IDLE_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Throttle.MaxAttempts != 5 {
		t.Errorf("MaxAttempts: got %d, want 5", cfg.Throttle.MaxAttempts)
	}
	if cfg.Throttle.BanDuration != 2*time.Minute {
		t.Errorf("BanDuration: got %v, want 2m", cfg.Throttle.BanDuration)
	}
	if cfg.Throttle.IdleTTL != time.Hour {
		t.Errorf("IdleTTL: got %v, want 1h", cfg.Throttle.IdleTTL)
	}
}

func TestLoad_AccessLogCanBeDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_LOG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.AccessLogPath != "" {
		t.Errorf("AccessLogPath: got %q, want empty", cfg.Server.AccessLogPath)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "zero attempts",
			env:     map[string]string{"LOGIN_MAX_ATTEMPTS": "0"},
			wantErr: "LOGIN_MAX_ATTEMPTS",
		},
		{
			name:    "zero ban duration",
			env:     map[string]string{"LOGIN_BAN_DURATION": "0s"},
			wantErr: "LOGIN_BAN_DURATION",
		},
		{
			name:    "unknown throttle backend",
			env:     map[string]string{"THROTTLE_BACKEND": "memcached"},
			wantErr: "THROTTLE_BACKEND",
		},
		{
			name:    "redis backend without address",
			env:     map[string]string{"THROTTLE_BACKEND": "redis"},
			wantErr: "REDIS_ADDR",
		},
		{
			name:    "mongo backend without uri",
			env:     map[string]string{"LISTING_BACKEND": "mongo"},
			wantErr: "MONGO_URI",
		},
		{
			name:    "bad samesite",
			env:     map[string]string{"COOKIE_SAMESITE": "sometimes"},
			wantErr: "COOKIE_SAMESITE",
		},
		{
			name:    "short secret in production",
			env:     map[string]string{"ENV": "production", "JWT_SECRET": "only-twenty-chars-xx"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "weak secret",
			env:     map[string]string{"JWT_SECRET": "changeme"},
			wantErr: "JWT_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "test")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestLoad_ListsAreTrimmed(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-production-secret-that-is-long-enough")
	t.Setenv("ALLOWED_ORIGINS", " https://tradepost.example , ,https://www.tradepost.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1/32")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	wantOrigins := []string{"https://tradepost.example", "https://www.tradepost.example"}
	if strings.Join(cfg.Server.AllowedOrigins, "|") != strings.Join(wantOrigins, "|") {
		t.Errorf("AllowedOrigins: got %v, want %v", cfg.Server.AllowedOrigins, wantOrigins)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "127.0.0.1/32" {
		t.Errorf("TrustedProxies: got %v", cfg.Server.TrustedProxies)
	}
	if !cfg.Auth.CookieSecure {
		t.Error("CookieSecure should default to true in production")
	}
}

func TestAuthConfig_FailureDelayAndRevocation(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Auth.FailureDelay != 250*time.Millisecond {
		t.Errorf("FailureDelay: got %v, want 250ms", cfg.Auth.FailureDelay)
	}
	if cfg.Auth.RevocationFailClosed {
		t.Error("RevocationFailClosed should default to false outside production")
	}

	t.Setenv("LOGIN_FAILURE_DELAY", "0s")
	t.Setenv("REVOCATION_FAIL_CLOSED", "true")

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Auth.FailureDelay != 0 {
		t.Errorf("FailureDelay: got %v, want 0", cfg.Auth.FailureDelay)
	}
	if !cfg.Auth.RevocationFailClosed {
		t.Error("RevocationFailClosed: want true")
	}
}
