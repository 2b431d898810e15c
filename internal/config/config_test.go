package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dualikorea/reception/internal/advisor"
)

var envKeys = []string{
	"LEDGER_CONFIG", "TELEGRAM_BOT_TOKEN", "STAFF_IDS", "DB_PATH", "DB_ENCRYPTION_KEY",
	"SEED_SAMPLE", "API_KEY", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_ENDPOINT", "ADVISOR_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DBPath != "./data/ledger.db" || !cfg.Storage.SeedSample {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Advisor.Model != advisor.DefaultModel || cfg.Advisor.Timeout != advisor.DefaultTimeout {
		t.Errorf("advisor = %+v", cfg.Advisor)
	}
	if err := cfg.ValidateBot(); err == nil {
		t.Error("ValidateBot should fail without token and staff")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ledger.ini")
	content := `[telegram]
token = file-token
staff_ids = 11, 22

[storage]
db_path = /var/lib/ledger.db
seed_sample = false
backup_retention = 240h

[advisor]
api_key = file-key
model = gemini-test
timeout = 5s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEDGER_CONFIG", path)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("STAFF_IDS", "33")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "file-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if !reflect.DeepEqual(cfg.Telegram.StaffIDs, []int64{33}) {
		t.Errorf("staff = %v, want env override [33]", cfg.Telegram.StaffIDs)
	}
	if cfg.Storage.DBPath != "/var/lib/ledger.db" || cfg.Storage.SeedSample {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.BackupRetention != 240*time.Hour {
		t.Errorf("retention = %v", cfg.Storage.BackupRetention)
	}
	if cfg.Advisor.APIKey != "env-key" || cfg.Advisor.Model != "gemini-test" || cfg.Advisor.Timeout != 5*time.Second {
		t.Errorf("advisor = %+v", cfg.Advisor)
	}
	if cfg.Advisor.Endpoint != advisor.DefaultEndpoint {
		t.Errorf("endpoint = %q, want default", cfg.Advisor.Endpoint)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("ValidateBot: %v", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STAFF_IDS", "12,abc"},
		{"SEED_SAMPLE", "maybe"},
		{"ADVISOR_TIMEOUT", "soon"},
		{"LEDGER_CONFIG", "/nonexistent/ledger.ini"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLoadRejectsEncryptionKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_ENCRYPTION_KEY", "s3cret")
	if _, err := Load(); !errors.Is(err, errEncryptionUnsupported) {
		t.Errorf("Load with DB_ENCRYPTION_KEY = %v, want unsupported", err)
	}

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ledger.ini")
	if err := os.WriteFile(path, []byte("[storage]\ndb_key = s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEDGER_CONFIG", path)
	if _, err := Load(); !errors.Is(err, errEncryptionUnsupported) {
		t.Errorf("Load with storage.db_key = %v, want unsupported", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2,,3 ")
	if err != nil {
		t.Fatalf("parseIDs failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Errorf("ids = %v", ids)
	}
}
