package main

import (
	"context"
	"log"

	"github.com/gurkanbulca/teamboard/internal/config"
	"github.com/gurkanbulca/teamboard/internal/database"
)

func main() {
	// Load configuration (.env is applied inside config.Load)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.ToDatabaseConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}
