package main

import (
	"log"

	"github.com/joho/godotenv"

	"streamauth/internal/app"
)

func main() {
	// .env is optional; real env vars win either way
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	application := app.NewApp()

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
