package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/cache"
	"github.com/walletd/walletd/internal/ledger"
	"github.com/walletd/walletd/internal/queue"
)

// Service orchestrates wallet lifecycle and balance operations. Mutations
// always go through the ledger engine; reads go through the balance cache
// when one is configured. All collaborators are injected at construction.
type Service struct {
	store  ledger.Store
	engine *ledger.Engine
	cache  *cache.BalanceCache
	queue  *queue.Queue
	logger *slog.Logger
}

// NewService builds a wallet service. cache and q may be nil: without a
// cache every read hits the store, without a queue Submit is unavailable.
func NewService(store ledger.Store, engine *ledger.Engine, c *cache.BalanceCache, q *queue.Queue, logger *slog.Logger) *Service {
	return &Service{store: store, engine: engine, cache: c, queue: q, logger: logger}
}

// Create provisions a wallet with the given initial balance.
func (s *Service) Create(ctx context.Context, initial decimal.Decimal) (ledger.Wallet, error) {
	if initial.IsNegative() {
		return ledger.Wallet{}, fmt.Errorf("initial balance must not be negative")
	}
	return s.store.Create(ctx, initial)
}

// Balance returns the wallet balance, served from cache when fresh. The
// second return value reports a cache hit. Cached values may lag the store
// by up to the cache TTL; a hit is answered without touching the store.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, bool, error) {
	if s.cache != nil {
		balance, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			// A broken cache must not take reads down with it.
			s.logger.Warn("balance cache read failed", slog.String("wallet", id.String()), slog.Any("error", err))
		} else if ok {
			return balance, true, nil
		}
	}

	w, err := s.store.Get(ctx, id)
	if err != nil {
		return decimal.Zero, false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, id, w.Balance); err != nil {
			s.logger.Warn("balance cache populate failed", slog.String("wallet", id.String()), slog.Any("error", err))
		}
	}
	return w.Balance, false, nil
}

// Apply runs one operation synchronously and returns the new balance.
func (s *Service) Apply(ctx context.Context, op ledger.Operation) (decimal.Decimal, error) {
	return s.engine.Apply(ctx, op)
}

// Submit defers one operation through the queue. The caller only learns
// that the message was made durable; the outcome is applied later by a
// worker and never reported back.
func (s *Service) Submit(ctx context.Context, op ledger.Operation) error {
	if s.queue == nil {
		return fmt.Errorf("operation queue is not configured")
	}
	return s.queue.Enqueue(ctx, queue.Message{
		WalletUUID:    op.WalletUUID.String(),
		OperationType: string(op.Type),
		Amount:        op.Amount.StringFixed(2),
	})
}
