package advisor

import "sync"

// Book keeps the most recent advice per request id and marks calls that are
// still outstanding. Nothing in it is persisted.
type Book struct {
	mu      sync.Mutex
	advice  map[string]string
	pending map[string]bool
}

func NewBook() *Book {
	return &Book{
		advice:  make(map[string]string),
		pending: make(map[string]bool),
	}
}

// Begin marks a call for id as outstanding. It returns false if one already is.
func (b *Book) Begin(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[id] {
		return false
	}
	b.pending[id] = true
	return true
}

// Finish records the advice for id and clears its outstanding mark.
func (b *Book) Finish(id, advice string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
	b.advice[id] = advice
}

func (b *Book) Pending(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[id]
}

func (b *Book) Advice(id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	advice, ok := b.advice[id]
	return advice, ok
}

// Dismiss forgets the advice for id.
func (b *Book) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.advice, id)
}
