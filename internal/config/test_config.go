package config

import "time"

func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8081,
			PublicURL:         "http://localhost:8081",
			RequestsPerSecond: 1000,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "launchkit_test",
			User:     "test_user",
			Password: "test_password",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret:    "test-secret",
			SessionTTL:   time.Hour,
			MagicLinkTTL: 15 * time.Minute,
			CookieName:   "launchkit_session",
			BcryptCost:   4,
			SignInLimit:  5,
			SignInWindow: 15 * time.Minute,
		},
		Email: EmailConfig{
			BaseURL: "http://localhost:0",
			From:    "test@localhost",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Tasks: TasksConfig{
			StatsCron:     "*/15 * * * *",
			StatsCacheTTL: time.Minute,
		},
	}
}
