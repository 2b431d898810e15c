package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dualikorea/reception/internal/models"
)

// MinRefLength is the shortest id prefix Resolve accepts.
const MinRefLength = 4

// Store owns the in-memory request collection, newest first, and mirrors it
// to its Persister after every mutation. It is not safe for concurrent use.
type Store struct {
	items     []models.RequestItem
	persister Persister
	now       func() time.Time
	newID     func() string
	lastSave  error
}

type Option func(*Store)

// WithClock sets the clock used for processDate.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// backupper is implemented by persisters that can keep a copy of unreadable
// data before it is replaced.
type backupper interface {
	Backup(suffix string) (string, error)
}

// Open loads the collection. Corrupt stored data is logged, backed up when
// the persister supports it, and replaced by the seed.
func Open(p Persister, seed []models.RequestItem, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := p.Load(seed)
	var corrupt *CorruptDataError
	switch {
	case errors.As(err, &corrupt):
		log.Printf("Ledger data is corrupt, starting from seed: %v", err)
		s.items = cloneItems(seed)
		b, ok := p.(backupper)
		if !ok {
			return s, nil
		}
		key, berr := b.Backup(fmt.Sprintf(".corrupt-%d", s.now().Unix()))
		if berr != nil {
			return nil, fmt.Errorf("failed to back up corrupt ledger: %w", berr)
		}
		if key != "" {
			log.Printf("Corrupt ledger data preserved under %s", key)
			// The corrupt value is safe in its backup; overwrite it so the
			// next Open does not back it up again.
			s.save()
		}
		return s, nil
	case err != nil:
		return nil, err
	}

	s.items = items
	return s, nil
}

// Add creates a request from draft with a fresh id and PENDING status and
// puts it first in the collection. Draft fields are stored as given.
func (s *Store) Add(d models.Draft) (models.RequestItem, error) {
	if err := validateDraft(d); err != nil {
		return models.RequestItem{}, err
	}

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}

	item := models.RequestItem{
		ID:          id,
		Category:    d.Category,
		Customer:    d.Customer,
		ReceiveDate: d.ReceiveDate,
		Product:     d.Product,
		Qty:         d.Qty,
		Issue:       d.Issue,
		BuyDate:     d.BuyDate,
		Status:      models.StatusPending,
	}

	s.items = append([]models.RequestItem{item}, s.items...)
	s.save()
	return item, nil
}

// Update merges changes into the request with the given id. The first time
// the merged status is COMPLETED with no processDate, processDate is set to
// today; it is never cleared here.
func (s *Store) Update(id string, c models.Changes) (models.RequestItem, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.RequestItem{}, &NotFoundError{ID: id}
	}
	if err := validateChanges(c); err != nil {
		return models.RequestItem{}, err
	}

	item := s.items[i]
	if c.Status != nil {
		item.Status = *c.Status
	}
	if c.ProcessType != nil {
		item.ProcessType = *c.ProcessType
	}
	if c.ProcessNote != nil {
		item.ProcessNote = strings.TrimSpace(*c.ProcessNote)
	}
	if c.Customer != nil {
		item.Customer = strings.TrimSpace(*c.Customer)
	}
	if c.Product != nil {
		item.Product = strings.TrimSpace(*c.Product)
	}
	if c.Qty != nil {
		item.Qty = *c.Qty
	}
	if c.Issue != nil {
		item.Issue = strings.TrimSpace(*c.Issue)
	}
	if c.BuyDate != nil {
		item.BuyDate = strings.TrimSpace(*c.BuyDate)
	}

	if item.Status == models.StatusCompleted && item.ProcessDate == "" {
		item.ProcessDate = models.Today(s.now())
	}

	s.items[i] = item
	s.save()
	return item, nil
}

// Remove deletes the request. Callers confirm with the user beforehand.
func (s *Store) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.save()
	return nil
}

// Replace swaps the whole collection, e.g. for an import. Items are
// validated as if loaded from storage.
func (s *Store) Replace(items []models.RequestItem) error {
	if err := validateCollection(items); err != nil {
		return err
	}
	s.items = cloneItems(items)
	s.save()
	return nil
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []models.RequestItem {
	return cloneItems(s.items)
}

func (s *Store) Get(id string) (models.RequestItem, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.RequestItem{}, &NotFoundError{ID: id}
	}
	return s.items[i], nil
}

// Resolve expands a full id or a unique id prefix to a full id.
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if s.indexOf(ref) >= 0 {
		return ref, nil
	}
	if len(ref) < MinRefLength {
		return "", &ValidationError{Fields: []FieldError{{
			Field:  "id",
			Reason: fmt.Sprintf("must be at least %d characters", MinRefLength),
		}}}
	}

	var match string
	for _, item := range s.items {
		if !strings.HasPrefix(item.ID, ref) {
			continue
		}
		if match != "" {
			return "", &ValidationError{Fields: []FieldError{{
				Field:  "id",
				Reason: fmt.Sprintf("%q matches more than one request", ref),
			}}}
		}
		match = item.ID
	}
	if match == "" {
		return "", &NotFoundError{ID: ref}
	}
	return match, nil
}

// Stats counts the current collection by status.
func (s *Store) Stats() models.Stats {
	return Stats(s.items)
}

// Filter returns the requests matching category and search.
func (s *Store) Filter(category, search string) []models.RequestItem {
	return Filter(s.items, category, search)
}

// LastSaveError reports the result of the most recent save.
func (s *Store) LastSaveError() error {
	return s.lastSave
}

func (s *Store) save() {
	s.lastSave = s.persister.Save(s.items)
	if s.lastSave != nil {
		log.Printf("Error saving ledger: %v", s.lastSave)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
