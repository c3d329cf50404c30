package main

import (
	"log"

	"github.com/joho/godotenv"

	"bioprep/adapters/api"
	"bioprep/adapters/fs"
	"bioprep/adapters/tablefile"
	"bioprep/internal"
	"bioprep/internal/config"
	"bioprep/internal/session"
	"bioprep/ui"
)

func main() {
	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := internal.NewDefaultLogger()
	client := api.NewClient(cfg.Service.BaseURL, cfg.Service.Timeout)
	sess := session.New(cfg, fs.NewFolderSource(), tablefile.NewSampler(), client, client, logger)

	server := ui.NewServer(cfg, sess, logger)
	logger.Info("analysis service at %s", cfg.Service.BaseURL)
	if err := server.Start(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
