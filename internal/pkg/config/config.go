package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicBase   string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
}

type OTPConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type Config struct {
	Repositories RepositoriesConfig
	Redis        RedisConfig
	S3           S3Config
	JWT          JWTConfig
	OTP          OTPConfig
	ServerPort   string
	Env          string
}

// IsProduction gates the stricter cookie and transport settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "tractorbazar"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Redis: RedisConfig{
			URL:      getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		S3: S3Config{
			Endpoint:     getEnvOrDefault("S3_ENDPOINT", ""),
			Region:       getEnvOrDefault("S3_REGION", "ap-south-1"),
			Bucket:       getEnvOrDefault("S3_BUCKET", "tractorbazar-uploads"),
			AccessKey:    getEnvOrDefault("S3_ACCESS_KEY", ""),
			SecretKey:    getEnvOrDefault("S3_SECRET_KEY", ""),
			UsePathStyle: getEnvOrDefault("S3_USE_PATH_STYLE", "false") == "true",
			PublicBase:   getEnvOrDefault("S3_PUBLIC_BASE_URL", ""),
		},
		JWT: JWTConfig{
			SecretKey:       getEnvOrDefault("JWT_SECRET_KEY", ""),
			AccessTokenTTL:  getEnvDurationOrDefault("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:          getEnvOrDefault("JWT_ISSUER", "tractorbazar"),
			Audience:        getEnvOrDefault("JWT_AUDIENCE", "tractorbazar-web"),
		},
		OTP: OTPConfig{
			CodeTTL:     getEnvDurationOrDefault("OTP_CODE_TTL", 5*time.Minute),
			MaxAttempts: getEnvIntOrDefault("OTP_MAX_ATTEMPTS", 5),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8090"),
		Env:        getEnvOrDefault("APP_ENV", "development"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
