package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Metrics  MetricsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// CORSOrigins is a comma-separated list of browser origins allowed to call the API.
	CORSOrigins string
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

// AuthConfig defines credential parameters.
type AuthConfig struct {
	JWTSecret          string
	BcryptCost         int
	LoginMaxAttempts   int
	LoginWindowMinutes int
}

// SessionConfig defines the cookie contract and the revocation bookkeeping.
type SessionConfig struct {
	CookieName            string
	CookieHTTPOnly        bool
	CookieSecure          bool
	CookieSameSite        string
	ExpirationMinutes     int
	AbsoluteMaxMinutes    int
	ActiveTokenTTLMinutes int
	SingleActive          bool
	SweepIntervalSeconds  int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sameSite, err := normalizeSameSite(getEnv("SESSION_COOKIE_SAME_SITE", "Lax"))
	if err != nil {
		return nil, err
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "finance-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("APP_CORS_ORIGINS", "http://localhost:4200"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("AUTH_JWT_SECRET", "dev-secret"),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:   getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindowMinutes: getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
		},
		Session: SessionConfig{
			CookieName:            getEnv("SESSION_COOKIE_NAME", "finance_session"),
			CookieHTTPOnly:        getEnvAsBool("SESSION_COOKIE_HTTP_ONLY", true),
			CookieSecure:          getEnvAsBool("SESSION_COOKIE_SECURE", true),
			CookieSameSite:        sameSite,
			ExpirationMinutes:     getEnvAsInt("SESSION_EXPIRATION_MINUTES", 30),
			AbsoluteMaxMinutes:    getEnvAsInt("SESSION_ABSOLUTE_MAX_MINUTES", 720),
			ActiveTokenTTLMinutes: getEnvAsInt("SESSION_ACTIVE_TOKEN_TTL_MINUTES", 720),
			SingleActive:          getEnvAsBool("SESSION_SINGLE_ACTIVE", true),
			SweepIntervalSeconds:  getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 60),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
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

// LoginWindow returns how long failed logins are remembered.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

// Window returns the sliding session window.
func (s SessionConfig) Window() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

// AbsoluteMax returns the cap on how far sliding renewals may extend a session.
// It is never shorter than the window.
func (s SessionConfig) AbsoluteMax() time.Duration {
	capped := time.Duration(s.AbsoluteMaxMinutes) * time.Minute
	if capped < s.Window() {
		return s.Window()
	}
	return capped
}

// ActiveTokenTTL returns the lifetime of an active-token entry. It is never
// shorter than AbsoluteMax, so an entry outlives every token it names.
func (s SessionConfig) ActiveTokenTTL() time.Duration {
	ttl := time.Duration(s.ActiveTokenTTLMinutes) * time.Minute
	if ttl < s.AbsoluteMax() {
		return s.AbsoluteMax()
	}
	return ttl
}

// SweepInterval returns the period of the expired-entry sweep.
func (s SessionConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

func normalizeSameSite(val string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "", "lax":
		return "Lax", nil
	case "strict":
		return "Strict", nil
	case "none":
		return "None", nil
	default:
		return "", fmt.Errorf("invalid SESSION_COOKIE_SAME_SITE: %q", val)
	}
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
