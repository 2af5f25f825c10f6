package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "dev-secret-change-me"

// ErrInsecureSecret is returned when production runs with the default signing secret.
var ErrInsecureSecret = errors.New("AUTH_JWT_SECRET must be set in production")

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Realtime  RealtimeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	ProxyHeader           string
	FrontendOrigin        string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	BcryptCost    int
}

// RateLimitPolicy is a fixed number of points per window.
type RateLimitPolicy struct {
	Points        int
	WindowSeconds int
}

// RateLimitConfig selects the counter store and the two request policies.
type RateLimitConfig struct {
	Store string
	Login RateLimitPolicy
	API   RateLimitPolicy
}

// RealtimeConfig tunes websocket fan-out.
type RealtimeConfig struct {
	SendBuffer        int
	MessagesPerSecond float64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			ProxyHeader:           os.Getenv("APP_PROXY_HEADER"),
			FrontendOrigin:        getEnv("FRONTEND_ORIGIN", "*"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", DefaultJWTSecret),
			TokenTTLHours: getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 7*24),
			BcryptCost:    getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		RateLimit: RateLimitConfig{
			Store: strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
			Login: RateLimitPolicy{
				Points:        getEnvAsInt("RATE_LIMIT_LOGIN_POINTS", 5),
				WindowSeconds: getEnvAsInt("RATE_LIMIT_LOGIN_WINDOW_SECONDS", 60),
			},
			API: RateLimitPolicy{
				Points:        getEnvAsInt("RATE_LIMIT_API_POINTS", 60),
				WindowSeconds: getEnvAsInt("RATE_LIMIT_API_WINDOW_SECONDS", 60),
			},
		},
		Realtime: RealtimeConfig{
			SendBuffer:        getEnvAsInt("REALTIME_SEND_BUFFER", 32),
			MessagesPerSecond: getEnvAsFloat("REALTIME_MESSAGES_PER_SECOND", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that are unsafe or unusable.
func (c *Config) Validate() error {
	if c.App.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		return ErrInsecureSecret
	}
	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("RATE_LIMIT_STORE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimit.Store)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the bearer token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// Window returns the policy window duration.
func (p RateLimitPolicy) Window() time.Duration {
	if p.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(p.WindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
