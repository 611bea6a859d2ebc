package refreshtokens

import (
	"context"
	"sync"
	"time"
)

func timeFromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// MemoryRepository is an in-memory Repository used in unit tests and for
// storeless development runs. It enforces the same one-row-per-user
// constraint as the postgres schema.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[string]*RefreshToken
	byUser map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*RefreshToken), byUser: make(map[string]string)}
}

func (m *MemoryRepository) Create(ctx context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(t)
}

func (m *MemoryRepository) createLocked(t *RefreshToken) error {
	if _, exists := m.byUser[t.UserID]; exists {
		return ErrConflict
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	m.byID[t.ID] = &cp
	m.byUser[t.UserID] = t.ID
	return nil
}

func (m *MemoryRepository) GetByUserID(ctx context.Context, userID string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(id), nil
}

func (m *MemoryRepository) deleteLocked(id string) bool {
	t, ok := m.byID[id]
	if !ok {
		return false
	}
	delete(m.byID, id)
	delete(m.byUser, t.UserID)
	return true
}

// All returns a snapshot of every stored token, in no particular order.
func (m *MemoryRepository) All() []*RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*RefreshToken, 0, len(m.byID))
	for _, t := range m.byID {
		cp := *t
		out = append(out, &cp)
	}
	return out
}

func (m *MemoryRepository) Rotate(ctx context.Context, staleID string, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if staleID != "" {
		m.deleteLocked(staleID)
	}
	return m.createLocked(t)
}
