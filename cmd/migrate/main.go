// migrate applies or rolls back the embedded schema; use with ./scripts/migrate.sh or go run ./cmd/migrate.
package main

import (
	"flag"
	"log"

	"crm-campaigns/backend/internal/config"
	"crm-campaigns/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	versionOnly := flag.Bool("version", false, "Print the applied schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	if !*versionOnly {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Direction(*direction)); err != nil {
			log.Fatalf("migrate %s: %v", *direction, err)
		}
	}
	version, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migrate: version: %v", err)
	}
	log.Printf("migrate: schema at version %d (dirty=%v)", version, dirty)
}
