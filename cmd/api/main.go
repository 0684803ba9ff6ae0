package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/practicemarket/practicemarket-golang/internal/config"
	"github.com/practicemarket/practicemarket-golang/internal/database"
	"github.com/practicemarket/practicemarket-golang/internal/handlers"
	"github.com/practicemarket/practicemarket-golang/internal/routes"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Application Setup ---
	app := &handlers.Handlers{
		DB:  db,
		Cfg: cfg,
	}

	if err := app.EnsureAdminUser(cfg); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	// 3. --- Background Worker ---
	// Sweeps hourly for connection requests that sat unanswered too long.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: monitoring for stale connection requests...")

		for range ticker.C {
			app.ExpireStaleConnections()
		}
	}()

	// 4. --- Router Setup ---
	router := routes.SetupRouter(app)

	// 5. --- Start Server ---
	log.Printf("Starting PracticeMarket API server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
