package ledger

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dualikorea/reception/internal/models"
)

// SlotKey is the durable slot holding the ledger.
const SlotKey = "smart-ledger-data"

// Slot is a durable key/value store. *db.DB satisfies it.
type Slot interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
}

// Persister loads and saves the whole request collection.
type Persister interface {
	Load(seed []models.RequestItem) ([]models.RequestItem, error)
	Save(items []models.RequestItem) error
}

// SlotPersister stores the collection as a JSON array under a single key.
type SlotPersister struct {
	slot Slot
	key  string
}

func NewSlotPersister(slot Slot) *SlotPersister {
	return &SlotPersister{slot: slot, key: SlotKey}
}

// Load returns a copy of seed when the slot is absent. Undecodable data or
// an invalid entry yields a *CorruptDataError; entries are never dropped.
func (p *SlotPersister) Load(seed []models.RequestItem) ([]models.RequestItem, error) {
	raw, ok, err := p.slot.Get(p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if !ok {
		return cloneItems(seed), nil
	}

	var items []models.RequestItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &CorruptDataError{Index: -1, Reason: "undecodable JSON", Err: err}
	}
	if items == nil {
		items = []models.RequestItem{}
	}
	if err := validateCollection(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Save overwrites the slot with the full collection.
func (p *SlotPersister) Save(items []models.RequestItem) error {
	if items == nil {
		items = []models.RequestItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := p.slot.Put(p.key, string(data)); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// Backup copies the raw slot value to key+suffix. It returns the backup key,
// or "" when the slot is absent.
func (p *SlotPersister) Backup(suffix string) (string, error) {
	raw, ok, err := p.slot.Get(p.key)
	if err != nil || !ok {
		return "", err
	}
	backupKey := p.key + suffix
	if err := p.slot.Put(backupKey, raw); err != nil {
		return "", err
	}
	return backupKey, nil
}

// MemorySlot is an in-memory Slot.
type MemorySlot struct {
	mu     sync.Mutex
	values map[string]string
	// FailPut makes Put return this error when set.
	FailPut error
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

func (m *MemorySlot) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySlot) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	m.values[key] = value
	return nil
}

func cloneItems(items []models.RequestItem) []models.RequestItem {
	out := make([]models.RequestItem, len(items))
	copy(out, items)
	return out
}
