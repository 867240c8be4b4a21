// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/teamboard/internal/database"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Invite   InviteConfig
	Client   ClientConfig
}

type ServerConfig struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	AutoMigrate      bool
	EnableReflection bool
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
}

type JWTConfig struct {
	Secret          string
	SessionDuration time.Duration
}

type InviteConfig struct {
	Attempts int
}

// ClientConfig is read by the command line client only
type ClientConfig struct {
	Addr           string
	Token          string
	DebounceWindow time.Duration
}

const devSecret = "dev-session-secret-change-in-production"

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),
			EnableReflection: getEnvAsBool("ENABLE_REFLECTION", true),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", dialect.Postgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "teamboard"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			Path:     getEnv("DB_PATH", "teamboard.db"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", devSecret),
			SessionDuration: getEnvAsDuration("JWT_SESSION_DURATION", 24*time.Hour),
		},
		Invite: InviteConfig{
			Attempts: getEnvAsInt("INVITE_CODE_ATTEMPTS", 3),
		},
		Client: LoadClient(),
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient reads only the settings the command line client uses
func LoadClient() ClientConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	return ClientConfig{
		Addr:           getEnv("TASKBOARD_ADDR", "localhost:50051"),
		Token:          getEnv("TASKBOARD_TOKEN", ""),
		DebounceWindow: getEnvAsDuration("DEBOUNCE_WINDOW", 500*time.Millisecond),
	}
}

// ValidateConfig rejects settings the server cannot run with
func (c *Config) ValidateConfig() error {
	var problems []string

	switch c.Database.Driver {
	case dialect.Postgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required for postgres")
		}
	case dialect.SQLite:
		if c.Database.Path == "" {
			problems = append(problems, "DB_PATH is required for sqlite3")
		}
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be %q or %q, got %q", dialect.Postgres, dialect.SQLite, c.Database.Driver))
	}

	if c.JWT.SessionDuration <= 0 {
		problems = append(problems, "JWT_SESSION_DURATION must be positive")
	}
	if !c.IsDevelopment() && (c.JWT.Secret == devSecret || len(c.JWT.Secret) < 32) {
		problems = append(problems, "JWT_SECRET must be set to at least 32 characters outside development")
	}
	if c.Invite.Attempts < 1 {
		problems = append(problems, "INVITE_CODE_ATTEMPTS must be at least 1")
	}
	if c.Client.DebounceWindow <= 0 {
		problems = append(problems, "DEBOUNCE_WINDOW must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ToDatabaseConfig converts to the connection settings used by database.Open
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.DBName,
		SSLMode:  c.Database.SSLMode,
		Path:     c.Database.Path,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "500ms", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
