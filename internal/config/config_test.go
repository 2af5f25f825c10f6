package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_STORE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Auth.TokenTTL() != 7*24*time.Hour {
		t.Errorf("TokenTTL() = %v, want 168h", cfg.Auth.TokenTTL())
	}
	if cfg.RateLimit.Login.Points != 5 || cfg.RateLimit.Login.Window() != time.Minute {
		t.Errorf("login policy = %+v, want 5 per minute", cfg.RateLimit.Login)
	}
	if cfg.RateLimit.API.Points != 60 || cfg.RateLimit.API.Window() != time.Minute {
		t.Errorf("api policy = %+v, want 60 per minute", cfg.RateLimit.API)
	}
	if cfg.Auth.JWTSecret != DefaultJWTSecret {
		t.Errorf("JWTSecret = %q, want default outside production", cfg.Auth.JWTSecret)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	if !errors.Is(err, ErrInsecureSecret) {
		t.Fatalf("Load() error = %v, want ErrInsecureSecret", err)
	}
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "a-real-secret")
	t.Setenv("RATE_LIMIT_STORE", "memory")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
}

func TestValidateRedisStoreNeedsAddr(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{Store: "redis"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error when redis store has no address")
	}
	cfg.Redis.Addr = "127.0.0.1:6379"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateUnknownStore(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{Store: "memcached"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for unknown store")
	}
}
