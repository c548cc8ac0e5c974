package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Email    EmailConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Tasks    TasksConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string
	// RequestsPerSecond feeds echo's in-memory rate limiter.
	RequestsPerSecond float64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret     string        `json:"-"`
	SessionTTL    time.Duration
	MagicLinkTTL  time.Duration
	CookieName    string
	CookieSecure  bool
	BcryptCost    int
	SignInLimit   int
	SignInWindow  time.Duration
	AdminEmail    string
	AdminPassword string `json:"-"`
	AdminName     string
}

type EmailConfig struct {
	APIKey  string `json:"-"`
	BaseURL string
	From    string
}

type StorageConfig struct {
	Provider string // local, s3, r2
	S3       S3Config
}

type S3Config struct {
	BucketName string `env:"S3_BUCKET_NAME" required:"true"`
	Endpoint   string `env:"S3_ENDPOINT"`
	Region     string `env:"S3_REGION" required:"true"`
	AccessKey  string `env:"S3_ACCESS_KEY" required:"true" json:"-"`
	SecretKey  string `env:"S3_SECRET_KEY" required:"true" json:"-"`
}

type WorkerConfig struct {
	Concurrency int
}

type RedisConfig struct {
	Addr     string
	Password string `json:"-"`
	Username string
	DB       int
}

type StripeConfig struct {
	SecretKey string `json:"-"`
}

type TasksConfig struct {
	StatsCron     string
	StatsCacheTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "localhost"),
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			PublicURL:         getEnv("PUBLIC_URL", "http://localhost:8080"),
			RequestsPerSecond: getEnvAsFloat("SERVER_RATE_LIMIT", 20),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "launchkit"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_SECRET", ""),
			SessionTTL:    getEnvAsDuration("AUTH_SESSION_TTL", 7*24*time.Hour),
			MagicLinkTTL:  getEnvAsDuration("AUTH_MAGIC_LINK_TTL", 15*time.Minute),
			CookieName:    getEnv("AUTH_COOKIE_NAME", "launchkit_session"),
			CookieSecure:  getEnvAsBool("AUTH_COOKIE_SECURE", false),
			BcryptCost:    getEnvAsInt("AUTH_BCRYPT_COST", 10),
			SignInLimit:   getEnvAsInt("AUTH_SIGNIN_LIMIT", 5),
			SignInWindow:  getEnvAsDuration("AUTH_SIGNIN_WINDOW", 15*time.Minute),
			AdminEmail:    getEnv("SUPERADMIN_EMAIL", ""),
			AdminPassword: getEnv("SUPERADMIN_PASSWORD", ""),
			AdminName:     getEnv("SUPERADMIN_NAME", "Admin"),
		},
		Email: EmailConfig{
			APIKey:  getEnv("RESEND_API_KEY", ""),
			BaseURL: getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			From:    getEnv("EMAIL_FROM", "Launchkit <noreply@localhost>"),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "s3"),
			S3: S3Config{
				BucketName: getEnv("S3_BUCKET_NAME", ""),
				Endpoint:   getEnv("S3_ENDPOINT", ""),
				Region:     getEnv("S3_REGION", ""),
				AccessKey:  getEnv("S3_ACCESS_KEY", ""),
				SecretKey:  getEnv("S3_SECRET_KEY", ""),
			},
		},
		Worker: WorkerConfig{
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 10),
		},
		Redis: RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", getEnv("REDIS_HOST", "localhost"), getEnvAsInt("REDIS_PORT", 6379)),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Tasks: TasksConfig{
			StatsCron:     getEnv("TASKS_STATS_CRON", "*/15 * * * *"),
			StatsCacheTTL: getEnvAsDuration("TASKS_STATS_TTL", 20*time.Minute),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config: AUTH_SECRET must be set")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return nil, fmt.Errorf("config: AUTH_BCRYPT_COST must be between 4 and 31")
	}

	return cfg, nil
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// Save writes the configuration, minus secrets, as JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
