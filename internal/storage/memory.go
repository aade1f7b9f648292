package storage

import (
	"context"
	"sync"

	"paper_trading/internal/models"
)

// MemoryStore is an in-process Store. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.Mutex
	user   models.User
	stored bool
	saves  int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store pre-populated with u.
func NewMemoryStoreWith(u models.User) *MemoryStore {
	if u.Version == "" {
		u.Version = SchemaVersion
	}
	return &MemoryStore{user: u.Clone(), stored: true}
}

func (m *MemoryStore) GetUser(ctx context.Context) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stored {
		return DefaultUser(), nil
	}
	return m.user.Clone(), nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(u)
	return nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, up models.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := DefaultUser()
	if m.stored {
		current = m.user
	}
	m.put(current.Merge(up))
	return nil
}

func (m *MemoryStore) put(u models.User) {
	u = u.Clone()
	u.Version = SchemaVersion
	m.user = u
	m.stored = true
	m.saves++
}

// Saves reports how many writes the store has accepted.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var _ Store = (*MemoryStore)(nil)
