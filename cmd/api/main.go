package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"auth-service/internal/app"
	"auth-service/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	srv, err := app.NewServer(config.Load())
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	// cancelled on SIGINT/SIGTERM; Run then drains and returns
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
