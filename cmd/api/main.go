package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"confusionflow/internal/api"
	"confusionflow/internal/config"
)

// Serves a log directory over the REST API so remote views can read it with
// DATA_SOURCE=api.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewLogServer(cfg.Data.LogDir).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[API] Serving %s on %s", cfg.Data.LogDir, srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
