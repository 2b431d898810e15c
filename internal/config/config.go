package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/dualikorea/reception/internal/advisor"
)

// errEncryptionUnsupported rejects the encryption setting of earlier
// releases rather than leave the operator believing the ledger is encrypted.
var errEncryptionUnsupported = errors.New("database encryption is not supported: unset DB_ENCRYPTION_KEY and storage.db_key")

// Config holds all application configuration
type Config struct {
	Telegram TelegramConfig
	Storage  StorageConfig
	Advisor  AdvisorConfig
}

// TelegramConfig holds the front-desk bot settings
type TelegramConfig struct {
	Token    string
	StaffIDs []int64
}

// StorageConfig holds durable ledger settings
type StorageConfig struct {
	DBPath     string
	SeedSample bool
	// BackupRetention is how long corrupt-data backups are kept.
	BackupRetention time.Duration
}

// AdvisorConfig holds AI diagnosis settings
type AdvisorConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// Load reads the INI file named by LEDGER_CONFIG, when set, and then applies
// environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			DBPath:          "./data/ledger.db",
			SeedSample:      true,
			BackupRetention: 90 * 24 * time.Hour,
		},
		Advisor: AdvisorConfig{
			Model:    advisor.DefaultModel,
			Endpoint: advisor.DefaultEndpoint,
			Timeout:  advisor.DefaultTimeout,
		},
	}

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	telegram := file.Section("telegram")
	cfg.Telegram.Token = telegram.Key("token").MustString(cfg.Telegram.Token)
	if raw := telegram.Key("staff_ids").String(); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			return fmt.Errorf("invalid telegram.staff_ids: %w", err)
		}
		cfg.Telegram.StaffIDs = ids
	}

	storage := file.Section("storage")
	cfg.Storage.DBPath = storage.Key("db_path").MustString(cfg.Storage.DBPath)
	if storage.HasKey("db_key") {
		return errEncryptionUnsupported
	}
	cfg.Storage.SeedSample = storage.Key("seed_sample").MustBool(cfg.Storage.SeedSample)
	cfg.Storage.BackupRetention = storage.Key("backup_retention").MustDuration(cfg.Storage.BackupRetention)

	ai := file.Section("advisor")
	cfg.Advisor.APIKey = ai.Key("api_key").MustString(cfg.Advisor.APIKey)
	cfg.Advisor.Model = ai.Key("model").MustString(cfg.Advisor.Model)
	cfg.Advisor.Endpoint = ai.Key("endpoint").MustString(cfg.Advisor.Endpoint)
	cfg.Advisor.Timeout = ai.Key("timeout").MustDuration(cfg.Advisor.Timeout)

	return nil
}

func (cfg *Config) loadEnv() error {
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if raw := os.Getenv("STAFF_IDS"); raw != "" {
		ids, err := parseIDs(raw)
		if err != nil {
			return fmt.Errorf("invalid STAFF_IDS: %w", err)
		}
		cfg.Telegram.StaffIDs = ids
	}

	setString(&cfg.Storage.DBPath, "DB_PATH")
	if os.Getenv("DB_ENCRYPTION_KEY") != "" {
		return errEncryptionUnsupported
	}
	if raw := os.Getenv("SEED_SAMPLE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid SEED_SAMPLE: %w", err)
		}
		cfg.Storage.SeedSample = v
	}

	// API_KEY is accepted for compatibility with older deployments.
	setString(&cfg.Advisor.APIKey, "API_KEY")
	setString(&cfg.Advisor.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Advisor.Model, "GEMINI_MODEL")
	setString(&cfg.Advisor.Endpoint, "GEMINI_ENDPOINT")
	if raw := os.Getenv("ADVISOR_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid ADVISOR_TIMEOUT: %w", err)
		}
		cfg.Advisor.Timeout = d
	}
	return nil
}

// ValidateBot checks the settings the Telegram desk cannot start without.
func (cfg *Config) ValidateBot() error {
	var errs []error
	if cfg.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is not set"))
	}
	if len(cfg.Telegram.StaffIDs) == 0 {
		errs = append(errs, errors.New("at least one staff ID is required (STAFF_IDS)"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// parseIDs parses a comma-separated list of Telegram user IDs.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID '%s': %w", idStr, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
