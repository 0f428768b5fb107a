package main

import (
	"context"
	"log"

	_ "github.com/lib/pq"

	"helpdesk/config"
	"helpdesk/internal/database"
	"helpdesk/internal/di"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	app, err := di.InitializeApp(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.Hub.Run(ctx)

	log.Printf("Starting helpdesk server on :%s", cfg.Port)
	if err := app.Server.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}
