package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ThrottleBackendMemory = "memory"
	ThrottleBackendRedis  = "redis"

	ListingBackendPostgres = "postgres"
	ListingBackendMongo    = "mongo"
)

type Config struct {
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	RunMigrations     bool
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AccessLogPath  string
	TrustedProxies []string
}

type AuthConfig struct {
	JWTSecret        string
	SessionTTL       time.Duration
	GoogleSessionTTL time.Duration
	GoogleClientID   string
	CookieSecure     bool
	CookieSameSite   string
	CleanupInterval  time.Duration

	// Minimum duration of a rejected credential check, plus random jitter
	FailureDelay       time.Duration
	FailureDelayJitter time.Duration

	// Reject sessions when the revocation store cannot be read
	RevocationFailClosed bool
}

type ThrottleConfig struct {
	Backend     string
	MaxAttempts int
	BanDuration time.Duration
	IdleTTL     time.Duration
}

type StorageConfig struct {
	ListingBackend string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "tradepost"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			RunMigrations:     getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DB", "tradepost"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AccessLogPath:  getEnvOrEmpty("ACCESS_LOG_PATH", "access.log"),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		Auth: AuthConfig{
			JWTSecret:        jwtSecret,
			SessionTTL:       getEnvAsDuration("SESSION_TTL", 90*24*time.Hour),
			GoogleSessionTTL: getEnvAsDuration("GOOGLE_SESSION_TTL", 1*time.Hour),
			GoogleClientID:   getEnv("GOOGLE_CLIENT_ID", ""),
			CookieSecure:     getEnvAsBool("COOKIE_SECURE", env == "production"),
			CookieSameSite:   strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
			CleanupInterval:  getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Minute),

			FailureDelay:         getEnvAsDuration("LOGIN_FAILURE_DELAY", 250*time.Millisecond),
			FailureDelayJitter:   getEnvAsDuration("LOGIN_FAILURE_JITTER", 100*time.Millisecond),
			RevocationFailClosed: getEnvAsBool("REVOCATION_FAIL_CLOSED", env == "production"),
		},
		Throttle: ThrottleConfig{
			Backend:     strings.ToLower(getEnv("THROTTLE_BACKEND", ThrottleBackendMemory)),
			MaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 3),
			BanDuration: getEnvAsDuration("LOGIN_BAN_DURATION", 30*time.Second),
			IdleTTL:     getEnvAsDuration("LOGIN_IDLE_TTL", 0),
		},
		Storage: StorageConfig{
			ListingBackend: strings.ToLower(getEnv("LISTING_BACKEND", ListingBackendPostgres)),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validateBackends(); err != nil {
		return nil, err
	}

	if cfg.Throttle.MaxAttempts < 1 {
		return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1 (got %d)", cfg.Throttle.MaxAttempts)
	}
	if cfg.Throttle.BanDuration <= 0 {
		return nil, fmt.Errorf("LOGIN_BAN_DURATION must be positive")
	}

	switch cfg.Auth.CookieSameSite {
	case "strict", "lax", "none":
	default:
		return nil, fmt.Errorf("COOKIE_SAMESITE must be one of strict, lax, none")
	}

	return cfg, nil
}

// validateBackends checks backend names and the settings each backend needs
func (c *Config) validateBackends() error {
	switch c.Throttle.Backend {
	case ThrottleBackendMemory:
	case ThrottleBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when THROTTLE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown THROTTLE_BACKEND %q", c.Throttle.Backend)
	}

	switch c.Storage.ListingBackend {
	case ListingBackendPostgres:
	case ListingBackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required when LISTING_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown LISTING_BACKEND %q", c.Storage.ListingBackend)
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvOrEmpty is like getEnv but lets an explicitly empty variable disable a feature
func getEnvOrEmpty(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// splitList splits a comma separated value, dropping empty entries
func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
