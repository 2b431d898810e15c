package db

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGetMissingSlot(t *testing.T) {
	database := openTestDB(t)

	value, ok, err := database.Get("smart-ledger-data")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || value != "" {
		t.Errorf("Get = %q, %v; want absent", value, ok)
	}
}

func TestPutOverwrites(t *testing.T) {
	database := openTestDB(t)

	if err := database.Put("k", "[1]"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := database.Put("k", "[2]"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, ok, err := database.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if value != "[2]" {
		t.Errorf("value = %q, want [2]", value)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Put("k", "v"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	value, ok, err := second.Get("k")
	if err != nil || !ok || value != "v" {
		t.Errorf("Get after reopen = %q, %v, %v", value, ok, err)
	}
}

func TestKeysAndPurge(t *testing.T) {
	database := openTestDB(t)

	for _, key := range []string{"data", "data.corrupt-1", "data.corrupt-2", "other_x"} {
		if err := database.Put(key, "x"); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	keys, err := database.Keys("data.corrupt-")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys = %v, want 2 backups", keys)
	}

	// "_" must be matched literally, not as a LIKE wildcard.
	keys, err = database.Keys("other_")
	if err != nil || len(keys) != 1 {
		t.Errorf("Keys(other_) = %v, %v", keys, err)
	}

	purged, err := database.PurgeOldSlots("data.corrupt-", -time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldSlots failed: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}
	if _, ok, _ := database.Get("data"); !ok {
		t.Error("live slot should survive purge")
	}
}
