package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"entgo.io/ent/dialect"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config for database connection
type Config struct {
	Driver   string // dialect.Postgres or dialect.SQLite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file path
}

// DSN renders the driver-specific connection string
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case dialect.Postgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		), nil
	case dialect.SQLite:
		if c.Path == "" {
			return "", fmt.Errorf("sqlite path is required")
		}
		return fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", c.Path), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Open connects to the configured database and verifies the connection
func Open(cfg Config) (*sqlx.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Printf("✅ Connected to %s", cfg.Driver)
	return db, nil
}

func configurePool(db *sqlx.DB) {
	if db.DriverName() == dialect.SQLite {
		// sqlite allows a single writer; serialize through one connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}
