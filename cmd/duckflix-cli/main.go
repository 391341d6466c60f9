// A one-shot maintenance pass: sweep stale leases, evict expired
// cached links and check every credential against the provider. Meant
// for cron or a shell next to the running server.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/assets"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/db"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/lease"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/playback"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

func main() {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	st := store.New(database)
	rdClient := rd.New(cfg.RealDebrid.APIURL, time.Duration(cfg.RealDebrid.TimeoutSeconds)*time.Second)

	leases := lease.NewManager(st, cfg)
	swept, err := leases.SweepStale()
	if err != nil {
		log.Fatalf("Error sweeping leases: %v", err)
	}
	log.Printf("Lease sweep done, %d removed.", swept)

	svc := playback.NewService(st, rdClient, credential.NewResolver(st), cfg)
	evicted, err := svc.EvictExpired()
	if err != nil {
		log.Fatalf("Error evicting cached links: %v", err)
	}
	log.Printf("Link cache eviction done, %d removed.", evicted)

	validator := credential.NewValidator(st, rdClient, cfg)
	validator.CheckAll()

	fmt.Println("Maintenance pass finished successfully.")
}
