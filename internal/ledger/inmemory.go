package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]Wallet
}

// NewMemoryStore creates a concurrency-safe in-memory store with the same
// guard semantics as the Postgres store. Useful for unit tests.
func NewMemoryStore() Store {
	return &memoryStore{wallets: make(map[uuid.UUID]Wallet)}
}

func (s *memoryStore) Create(_ context.Context, initial decimal.Decimal) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	w := Wallet{
		UUID:      uuid.New(),
		Balance:   initial.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[w.UUID] = w
	return w, nil
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *memoryStore) Increase(_ context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return decimal.Zero, ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(amount).Round(2)
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return w.Balance, nil
}

func (s *memoryStore) DecreaseIfSufficient(_ context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok || w.Balance.LessThan(amount) {
		// Absent wallet and failed guard collapse into one signal, exactly
		// like a conditional UPDATE matching zero rows.
		return decimal.Zero, ErrConditionFailed
	}
	w.Balance = w.Balance.Sub(amount).Round(2)
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return w.Balance, nil
}
