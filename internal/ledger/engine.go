package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Engine validates an operation and drives it through the store. It is the
// single mutation path shared by the synchronous API and the queue workers.
// The engine holds no mutable state; all cross-caller serialization is
// delegated to the store's atomic primitives.
type Engine struct {
	store Store
}

// NewEngine builds an engine over the provided store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply executes one operation and returns the authoritative new balance.
//
// Failures are typed: ErrInvalidOperationType, ErrNonPositiveAmount,
// ErrWalletNotFound, ErrInsufficientFunds. For withdrawals the not-found
// case takes precedence over insufficient funds: a caller targeting a
// never-created wallet must learn that, not be told its balance is short.
func (e *Engine) Apply(ctx context.Context, op Operation) (decimal.Decimal, error) {
	if !op.Type.Valid() {
		return decimal.Zero, ErrInvalidOperationType
	}
	if !op.Amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	switch op.Type {
	case Deposit:
		return e.store.Increase(ctx, op.WalletUUID, op.Amount)
	case Withdraw:
		newBalance, err := e.store.DecreaseIfSufficient(ctx, op.WalletUUID, op.Amount)
		if err == nil {
			return newBalance, nil
		}
		if !errors.Is(err, ErrConditionFailed) {
			return decimal.Zero, err
		}
		// The guard failed: re-read to distinguish an absent wallet from a
		// present one with a short balance.
		if _, getErr := e.store.Get(ctx, op.WalletUUID); getErr != nil {
			if errors.Is(getErr, ErrWalletNotFound) {
				return decimal.Zero, ErrWalletNotFound
			}
			return decimal.Zero, getErr
		}
		return decimal.Zero, ErrInsufficientFunds
	}

	return decimal.Zero, ErrInvalidOperationType
}
