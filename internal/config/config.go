package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RefreshToken RefreshTokenConfig
	SignedCookie SignedCookieConfig
	RateLimit    RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Production reports whether the service runs with production hardening
// (secure cookies, strict defaults).
func (s ServerConfig) Production() bool {
	return s.Environment == "production"
}

type PostgresConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// DSN builds a pgx-compatible connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", p.User, p.Password, p.Host, p.Port, p.Database)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	// Expiration is the access token lifetime. Token life time must be short.
	Expiration time.Duration
}

type RefreshTokenConfig struct {
	// CookieName is the name of the refresh token cookie.
	CookieName string
	// Expiration is the refresh token lifetime for a standard login.
	Expiration time.Duration
	// RememberExpiration is the refresh token lifetime when the user asked
	// to be remembered.
	RememberExpiration time.Duration
}

type SignedCookieConfig struct {
	// Key1 signs new cookies; Key2 is still accepted during verification so
	// keys can be rotated without invalidating outstanding cookies.
	Key1 string
	Key2 string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("POSTGRES_HOST", "postgres")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("JWT_EXPIRATION", 600)
	viper.SetDefault("REFRESH_TOKEN_NAME", "jobBoardRefreshToken")
	viper.SetDefault("REFRESH_TOKEN_EXPIRATION", 3600)
	viper.SetDefault("REFRESH_TOKEN_REMEMBER_EXPIRATION", 1296000)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetString("POSTGRES_PORT"),
			Database: viper.GetString("POSTGRES_DB"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("JWT_SECRET"),
			Expiration: time.Duration(viper.GetInt("JWT_EXPIRATION")) * time.Second,
		},
		RefreshToken: RefreshTokenConfig{
			CookieName:         viper.GetString("REFRESH_TOKEN_NAME"),
			Expiration:         time.Duration(viper.GetInt("REFRESH_TOKEN_EXPIRATION")) * time.Second,
			RememberExpiration: time.Duration(viper.GetInt("REFRESH_TOKEN_REMEMBER_EXPIRATION")) * time.Second,
		},
		SignedCookie: SignedCookieConfig{
			Key1: viper.GetString("SIGNED_COOKIE_KEY_1"),
			Key2: viper.GetString("SIGNED_COOKIE_KEY_2"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SignedCookie.Key1 == "" {
		return nil, fmt.Errorf("SIGNED_COOKIE_KEY_1 is required")
	}

	return cfg, nil
}
