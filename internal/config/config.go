// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/greenmap/plant-service/internal/infrastructure"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	PublicBaseURL   string

	DBDriver      string
	DatabaseURL   string
	DBPath        string
	DBAutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	NATSURL   string
	NATSQueue string

	MailProvider string
	MailAPIKey   string
	MailSender   string

	ImageDir      string
	ImageMaxBytes int

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	NearbyCacheTTL       time.Duration

	AIProvider   string
	AIAPIKey     string
	AIModel      string
	AIBaseURL    string
	AITimeout    time.Duration
	AIMaxRetries int
	AIRateLimit  float64

	LogLevel  string
	LogFormat string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		AppEnv:          infrastructure.GetEnvAsString("APP_ENV", EnvProduction),
		HTTPAddr:        infrastructure.GetEnvAsString("HTTP_ADDR", ":8080"),
		ShutdownTimeout: infrastructure.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     splitList(infrastructure.GetEnvAsString("CORS_ALLOWED_ORIGINS", "*")),
		PublicBaseURL:   strings.TrimRight(infrastructure.GetEnvAsString("PUBLIC_BASE_URL", ""), "/"),

		DBDriver:      infrastructure.GetEnvAsString("DB_DRIVER", "postgres"),
		DatabaseURL:   infrastructure.GetEnvAsString("DATABASE_URL", ""),
		DBPath:        infrastructure.GetEnvAsString("DB_PATH", "plant-service.db"),
		DBAutoMigrate: infrastructure.GetEnvAsBool("DB_AUTO_MIGRATE", true),

		JWTSecret: infrastructure.GetEnvAsString("JWT_SECRET", ""),
		JWTTTL:    infrastructure.GetEnvAsDuration("JWT_TTL", 24*time.Hour),

		RedisURL:      infrastructure.GetEnvAsString("REDIS_URL", ""),
		RedisHost:     infrastructure.GetEnvAsString("REDIS_HOST", ""),
		RedisPort:     infrastructure.GetEnvAsString("REDIS_PORT", "6379"),
		RedisPassword: infrastructure.GetEnvAsString("REDIS_PASSWORD", ""),
		RedisDB:       infrastructure.GetEnvAsInt("REDIS_DB", 0),

		NATSURL:   infrastructure.GetEnvAsString("NATS_URL", ""),
		NATSQueue: infrastructure.GetEnvAsString("NATS_QUEUE", "plant-service"),

		MailProvider: strings.ToLower(infrastructure.GetEnvAsString("MAIL_PROVIDER", "none")),
		MailAPIKey:   infrastructure.GetEnvAsString("MAIL_API_KEY", ""),
		MailSender:   infrastructure.GetEnvAsString("MAIL_SENDER", ""),

		ImageDir:      infrastructure.GetEnvAsString("IMAGE_DIR", "./data/images"),
		ImageMaxBytes: infrastructure.GetEnvAsInt("IMAGE_MAX_BYTES", 5<<20),

		RateLimitWindow:      infrastructure.GetEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMaxRequests: infrastructure.GetEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 10),
		NearbyCacheTTL:       infrastructure.GetEnvAsDuration("NEARBY_CACHE_TTL", 30*time.Second),

		AIProvider:   strings.ToLower(infrastructure.GetEnvAsString("AI_PROVIDER", "none")),
		AIAPIKey:     infrastructure.GetEnvAsString("AI_API_KEY", ""),
		AIModel:      infrastructure.GetEnvAsString("AI_MODEL", ""),
		AIBaseURL:    strings.TrimRight(infrastructure.GetEnvAsString("AI_BASE_URL", "https://api.openai.com"), "/"),
		AITimeout:    infrastructure.GetEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxRetries: infrastructure.GetEnvAsInt("AI_MAX_RETRIES", 3),
		AIRateLimit:  infrastructure.GetEnvAsFloat("AI_RATE_LIMIT", 2),

		LogLevel:  infrastructure.GetEnvAsString("LOG_LEVEL", "info"),
		LogFormat: infrastructure.GetEnvAsString("LOG_FORMAT", ""),
	}
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "dev-secret-change-me"
	}
	if cfg.AIModel == "" {
		cfg.AIModel = defaultModel(cfg.AIProvider)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.MailProvider {
	case "none", "sendgrid", "resend":
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider))
	}
	if c.MailProvider != "none" && (c.MailAPIKey == "" || c.MailSender == "") {
		errs = append(errs, errors.New("MAIL_API_KEY and MAIL_SENDER are required when mail is enabled"))
	}
	switch c.AIProvider {
	case "none":
	case "openai", "anthropic":
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("AI_API_KEY is required when an AI provider is set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider))
	}
	if c.ImageMaxBytes <= 0 {
		errs = append(errs, errors.New("IMAGE_MAX_BYTES must be positive"))
	}
	if c.RateLimitMaxRequests <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW and RATE_LIMIT_MAX_REQUESTS must be positive"))
	}
	return errors.Join(errs...)
}

// RedisEnabled reports whether any Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
