package billing

import (
	"context"
	"sort"
	"sync"
)

type Store interface {
	GetUser(ctx context.Context, phone string) (User, error)
	UpsertUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context) ([]User, error)

	AddTransaction(ctx context.Context, t Transaction) error
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	MarkTransactionUsed(ctx context.Context, id, phone string, at int64) error
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	users map[string]User
	txns  map[string]Transaction
}

func NewInMemoryStore() Store {
	return &memoryStore{users: map[string]User{}, txns: map[string]Transaction{}}
}

func (m *memoryStore) GetUser(_ context.Context, phone string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[phone]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryStore) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Phone] = u
	return nil
}

func (m *memoryStore) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) AddTransaction(_ context.Context, t Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.txns[t.ID]; exists {
		return nil // idempotent add, matching the SQL ON CONFLICT DO NOTHING
	}
	m.txns[t.ID] = t
	return nil
}

func (m *memoryStore) GetTransaction(_ context.Context, id string) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.txns[id]
	if !ok {
		return Transaction{}, ErrTxnNotFound
	}
	return t, nil
}

func (m *memoryStore) MarkTransactionUsed(_ context.Context, id, phone string, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return ErrTxnNotFound
	}
	t.Used = true
	t.UsedByPhone = phone
	t.UsedAt = at
	m.txns[id] = t
	return nil
}

func (m *memoryStore) ListTransactions(_ context.Context) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transaction, 0, len(m.txns))
	for _, t := range m.txns {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}
