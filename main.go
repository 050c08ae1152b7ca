package main

import (
	"log"

	"github.com/joho/godotenv"

	"confusionflow/internal/config"
	"confusionflow/internal/container"
	"confusionflow/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown()

	app, err := ui.NewApp(appContainer)
	if err != nil {
		log.Fatalf("Failed to create UI: %v", err)
	}
	if err := app.Start(appConfig.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
