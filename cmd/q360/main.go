package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/q360hq/q360/internal/app"
)

func main() {
	// A missing .env is fine, the environment takes precedence anyway.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
