package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dualikorea/reception/internal/config"
	"github.com/dualikorea/reception/internal/db"
	"github.com/dualikorea/reception/internal/ledger"
	"github.com/dualikorea/reception/internal/models"
)

var (
	cfg      *config.Config
	database *db.DB
	store    *ledger.Store

	dbPathFlag string
)

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Manage the service request ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dbPathFlag != "" {
			cfg.Storage.DBPath = dbPathFlag
		}
		return openStore()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "ledger database path (default from DB_PATH)")
}

func openStore() error {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	var err error
	database, err = db.New(cfg.Storage.DBPath)
	if err != nil {
		return err
	}

	var seed []models.RequestItem
	if cfg.Storage.SeedSample {
		seed = ledger.SampleSeed()
	}
	store, err = ledger.Open(ledger.NewSlotPersister(database), seed)
	if err != nil {
		database.Close()
		database = nil
		return err
	}
	return nil
}

func closeStore() {
	if database != nil {
		database.Close()
		database, store = nil, nil
	}
}

func main() {
	err := rootCmd.Execute()
	closeStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
