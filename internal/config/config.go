package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment
type Config struct {
	Env      string // dev | prod, also selects the log format
	HTTPPort string

	MongoURI string
	MongoDB  string
	RedisURI string

	JWTSecret   string `json:"-"`
	TokenTTL    time.Duration
	AdminSecret string `json:"-"`

	RabbitURI      string `json:"-"`
	RabbitExchange string

	CORSAllowedOrigins string
	CORSAllowedMethods string
	CORSAllowedHeaders string

	// Gap cut points: gap > PriorityHighGap is Alta, gap > PriorityMediumGap is Media
	PriorityHighGap   float64
	PriorityMediumGap float64

	CatalogCacheTTL time.Duration
	StatsCacheTTL   time.Duration
}

// Load reads an optional .env file and then the process environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("PORT", "8080"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "maturitydb"),
		RedisURI: getEnv("REDIS_URI", "localhost:6379"),

		JWTSecret:   getEnv("JWT_SECRET", "change-this-secret-in-production"),
		TokenTTL:    time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 480)) * time.Minute,
		AdminSecret: getEnv("ADMIN_SECRET", "admin-secret-change-me"),

		RabbitURI:      os.Getenv("RABBITMQ_URI"),
		RabbitExchange: getEnv("RABBITMQ_EXCHANGE", "assessment-events"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS"),
		CORSAllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization, X-Admin-Key, X-Request-ID"),

		PriorityHighGap:   getEnvFloat("PRIORITY_HIGH_GAP", 2),
		PriorityMediumGap: getEnvFloat("PRIORITY_MEDIUM_GAP", 1),

		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", time.Hour),
		StatsCacheTTL:   getEnvDuration("STATS_CACHE_TTL", time.Minute),
	}
}

// RedisAddr strips an optional redis:// scheme
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
