// migrate applies the embedded SQL migrations; go run ./cmd/migrate -direction up
package main

import (
	"flag"
	"fmt"
	"os"

	"auth-service/internal/config"
	"auth-service/internal/db/migrate"

	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
