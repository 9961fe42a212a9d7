package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// StoreDriver selects the user store: "mongo", "postgres" or "memory".
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DBURL         string

	TokenSecret          string
	TokenTTL             time.Duration
	TokenRevokeRetention time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	CORSAllowedOrigins []string
	RateLimitAuth      int
	RateLimitUser      int
	MaxBodyBytes       int64
}

func Load() Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 10000),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoURI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("DBNAME", "users"),
		DBURL:         buildDBURL(),

		TokenSecret:          tokenSecret(env),
		TokenTTL:             getEnvDuration("TOKEN_TTL", 24*time.Hour),
		TokenRevokeRetention: getEnvDuration("TOKEN_REVOKE_RETENTION", 30*24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitAuth:      getEnvInt("RATE_LIMIT_AUTH", 20),
		RateLimitUser:      getEnvInt("RATE_LIMIT_USER", 60),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

// devTokenSecret is only ever used when APP_ENV is dev.
const devTokenSecret = "dev-token-secret"

var ErrMissingTokenSecret = errors.New("TOKEN_SECRET must be set outside dev")

func tokenSecret(env string) string {
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		return v
	}
	if env == "dev" {
		return devTokenSecret
	}
	return ""
}

// Validate reports settings the server must not start without.
func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("%w (APP_ENV=%s)", ErrMissingTokenSecret, c.Env)
	}
	return nil
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "users")
	pass := getEnv("DB_PASSWORD", "users")
	name := getEnv("DB_NAME", "users")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a duration, using %s\n", key, v, fallback)
			return fallback
		}

		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
