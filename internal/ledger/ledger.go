package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound occurs when the target wallet identifier has never
	// been created (or is no longer present).
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds occurs when a withdrawal would take the balance
	// below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidOperationType indicates an operation kind outside the
	// DEPOSIT/WITHDRAW enumeration.
	ErrInvalidOperationType = errors.New("invalid operation type")

	// ErrWalletCreationFailed indicates the store returned no row when
	// creating a wallet.
	ErrWalletCreationFailed = errors.New("wallet creation failed")

	// ErrNonPositiveAmount rejects zero or negative operation amounts.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrConditionFailed is returned by Store.DecreaseIfSufficient when the
	// conditional update matched no row: either the wallet is absent or the
	// balance guard failed. The engine resolves which of the two it was.
	ErrConditionFailed = errors.New("conditional update matched no row")
)

// OperationType is the closed enumeration of supported balance mutations.
type OperationType string

const (
	Deposit  OperationType = "DEPOSIT"
	Withdraw OperationType = "WITHDRAW"
)

// Valid reports whether the type is part of the enumeration.
func (t OperationType) Valid() bool {
	switch t {
	case Deposit, Withdraw:
		return true
	}
	return false
}

// ParseOperationType validates a wire-level kind string once at the boundary.
func ParseOperationType(s string) (OperationType, error) {
	t := OperationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperationType, s)
	}
	return t, nil
}

// Operation is an immutable request to mutate one wallet. EnqueuedAt is set
// only on the deferred path.
type Operation struct {
	WalletUUID uuid.UUID
	Type       OperationType
	Amount     decimal.Decimal
	EnqueuedAt time.Time
}

// Wallet is a balance holder identified by a caller-opaque UUID. Balance is
// fixed-point with scale 2 and never negative.
type Wallet struct {
	UUID      uuid.UUID
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the durable backing contract consumed by the engine. Both
// mutation primitives must be atomic at the store boundary: two concurrent
// withdrawals can never both pass the balance guard when their sum exceeds
// the balance.
type Store interface {
	// Create persists a new wallet with the given initial balance (>= 0)
	// and allocates its identifier. Returns ErrWalletCreationFailed when no
	// row comes back.
	Create(ctx context.Context, initial decimal.Decimal) (Wallet, error)

	// Get reads a wallet by identifier. Returns ErrWalletNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (Wallet, error)

	// Increase adds amount to the balance and returns the new value.
	// Returns ErrWalletNotFound when the wallet is absent.
	Increase(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// DecreaseIfSufficient subtracts amount only if the pre-mutation balance
	// covers it, returning the new value. Returns ErrConditionFailed when the
	// guard (or wallet existence) did not hold.
	DecreaseIfSufficient(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}
