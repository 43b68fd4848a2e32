package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	Energy    EnergyEnvConfig
	Auth      AuthConfig
	Bootstrap BootstrapConfig
	RateLimit RateLimitConfig
	Simulator SimulatorConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type EnergyEnvConfig struct {
	Timezone     string
	CacheBackend string
	ConfigPath   string
}

type AuthConfig struct {
	Enforce      bool
	CookieSecure bool
	SessionTTL   time.Duration
}

type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

type RateLimitConfig struct {
	Enabled           bool
	ReadingsPerSecond float64
	ReadingsBurst     int
	AssignmentLockTTL time.Duration
	// AssignmentLockPrefix namespaces room lock keys when replicas share Redis.
	AssignmentLockPrefix string
}

type SimulatorConfig struct {
	Enabled  bool
	Interval time.Duration
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"
	if !cookieSecure {
		cookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "roomwatt"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       environment,
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "mysql")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "3306"),
		DBName:            getenv("DATABASE_NAME", "smart_home"),
		DBUser:            getenv("DATABASE_USER", "root"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Energy: EnergyEnvConfig{
			Timezone:     strings.TrimSpace(getenv("ENERGY_TIMEZONE", "UTC")),
			CacheBackend: normalizeCacheBackend(getenv("ENERGY_CACHE_BACKEND", CacheBackendMemory)),
			ConfigPath:   strings.TrimSpace(getenv("ENERGY_CONFIG_PATH", "")),
		},
		Auth: AuthConfig{
			Enforce:      getenvBool("AUTH_ENFORCE", true),
			CookieSecure: cookieSecure,
			SessionTTL:   getenvDuration("AUTH_SESSION_TTL", 24*time.Hour),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_USERNAME", "admin")),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			AdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:              getenvBool("RATE_LIMIT_ENABLED", false),
			ReadingsPerSecond:    getenvFloat("RATE_LIMIT_READINGS_PER_SECOND", 5),
			ReadingsBurst:        getenvInt("RATE_LIMIT_READINGS_BURST", 20),
			AssignmentLockTTL:    getenvDuration("RATE_LIMIT_ASSIGNMENT_LOCK_TTL", 5*time.Second),
			AssignmentLockPrefix: getenv("RATE_LIMIT_ASSIGNMENT_LOCK_PREFIX", "roomwatt:assignment:room:"),
		},
		Simulator: SimulatorConfig{
			Enabled:  getenvBool("SIMULATOR_ENABLED", false),
			Interval: getenvDuration("SIMULATOR_INTERVAL", 10*time.Second),
		},
	}

	return cfg
}

// IsProduction reports whether test-only surfaces must be hidden.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeCacheBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CacheBackendRedis:
		return CacheBackendRedis
	case CacheBackendNone, "off", "disabled":
		return CacheBackendNone
	default:
		return CacheBackendMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
