package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dualikorea/reception/internal/advisor"
	"github.com/dualikorea/reception/internal/bot"
	"github.com/dualikorea/reception/internal/config"
	"github.com/dualikorea/reception/internal/db"
	"github.com/dualikorea/reception/internal/ledger"
	"github.com/dualikorea/reception/internal/models"
)

func main() {
	log.Println("Starting service request desk...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	log.Println("Initializing database...")
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	database, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	var seed []models.RequestItem
	if cfg.Storage.SeedSample {
		seed = ledger.SampleSeed()
	}
	store, err := ledger.Open(ledger.NewSlotPersister(database), seed)
	if err != nil {
		log.Fatalf("Failed to load ledger: %v", err)
	}
	log.Printf("Ledger loaded with %d requests", len(store.List()))

	client := advisor.New(advisor.Config{
		APIKey:   cfg.Advisor.APIKey,
		Model:    cfg.Advisor.Model,
		Endpoint: cfg.Advisor.Endpoint,
		Timeout:  cfg.Advisor.Timeout,
	})
	if cfg.Advisor.APIKey == "" {
		log.Println("No Gemini API key configured; AI diagnosis will return the fallback message")
	}

	// Initialize bot
	log.Println("Starting Telegram bot...")
	desk, err := bot.New(bot.Config{
		Token:    cfg.Telegram.Token,
		StaffIDs: cfg.Telegram.StaffIDs,
	}, store, client)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	// Start background cleanup of old corrupt-data backups
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			purged, err := database.PurgeOldSlots(ledger.SlotKey+".corrupt-", cfg.Storage.BackupRetention)
			if err != nil {
				log.Printf("Error purging old backups: %v", err)
			} else if purged > 0 {
				log.Printf("Purged %d old ledger backups", purged)
			}
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		desk.Stop()
	}()

	log.Println("Desk is running. Press Ctrl+C to stop.")

	// Run the bot (blocks until shutdown)
	if err := desk.Run(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}
