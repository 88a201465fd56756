package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/taskio/taskio-web/internal/config"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/internal/utils"
)

// purge_sessions removes lapsed records from the "database" session store
// without starting the server.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	dryRun := flag.Bool("dry-run", false, "only report what would be removed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	fmt.Printf("Connected to %s database.\n\n", cfg.Database.Driver)

	now := time.Now()
	var total, lapsed int64
	db.Model(&models.SessionRecord{}).Count(&total)
	db.Model(&models.SessionRecord{}).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, now).
		Count(&lapsed)

	var sample []models.SessionRecord
	if err := db.Order("expires_at").Limit(10).Find(&sample).Error; err != nil {
		log.Fatalf("Failed to query sessions: %v", err)
	}

	fmt.Println("Oldest sessions (showing first 10):")
	fmt.Printf("%-38s %-20s %-8s\n", "ID", "Expires", "Idle(s)")
	fmt.Println("--------------------------------------------------------------------")
	for _, r := range sample {
		expires := "never"
		if !r.ExpiresAt.IsZero() {
			expires = r.ExpiresAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-38s %-20s %-8d\n", r.ID, expires, r.ElapsedSeconds)
	}
	fmt.Printf("\nStored sessions: %d, lapsed: %d\n", total, lapsed)

	if *dryRun || lapsed == 0 {
		return
	}

	sealer, err := utils.NewSealer(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Failed to derive session key: %v", err)
	}
	store := services.NewDBSessionStore(db, sealer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	removed, err := store.PurgeExpired(ctx, now)
	if err != nil {
		log.Fatalf("Failed to purge sessions: %v", err)
	}
	fmt.Printf("Removed %d lapsed sessions.\n", removed)
}
