package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists wallets in PostgreSQL. Each mutation is a single
// conditional UPDATE ... RETURNING statement: one round trip, guard
// re-checked atomically inside the statement, no long-lived lock held.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed wallet store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Balances cross the wire as text so NUMERIC(20,2) maps losslessly onto
// decimal.Decimal in both directions.
const (
	createWalletQuery = `
        INSERT INTO wallet (balance)
        VALUES ($1::numeric)
        RETURNING wallet_uuid, balance::text, created_at, updated_at`

	getWalletQuery = `
        SELECT wallet_uuid, balance::text, created_at, updated_at
        FROM wallet
        WHERE wallet_uuid = $1`

	increaseBalanceQuery = `
        UPDATE wallet
        SET balance = balance + $2::numeric, updated_at = now()
        WHERE wallet_uuid = $1
        RETURNING balance::text`

	decreaseBalanceQuery = `
        UPDATE wallet
        SET balance = balance - $2::numeric, updated_at = now()
        WHERE wallet_uuid = $1
          AND balance >= $2::numeric
        RETURNING balance::text`
)

// Create inserts a wallet row with the provided initial balance and returns
// the stored record.
func (s *PostgresStore) Create(ctx context.Context, initial decimal.Decimal) (Wallet, error) {
	var (
		w          Wallet
		balanceStr string
	)
	row := s.db.QueryRow(ctx, createWalletQuery, initial.StringFixed(2))
	if err := row.Scan(&w.UUID, &balanceStr, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletCreationFailed
		}
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return Wallet{}, fmt.Errorf("create wallet: parse balance %q: %w", balanceStr, err)
	}
	w.Balance = balance
	return w, nil
}

// Get fetches a wallet row by identifier.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Wallet, error) {
	var (
		w          Wallet
		balanceStr string
	)
	row := s.db.QueryRow(ctx, getWalletQuery, id)
	if err := row.Scan(&w.UUID, &balanceStr, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, fmt.Errorf("get wallet %s: %w", id, err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return Wallet{}, fmt.Errorf("get wallet %s: parse balance %q: %w", id, balanceStr, err)
	}
	w.Balance = balance
	return w, nil
}

// Increase adds amount to the wallet balance in one atomic statement.
func (s *PostgresStore) Increase(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.mutate(ctx, increaseBalanceQuery, id, amount, ErrWalletNotFound)
}

// DecreaseIfSufficient subtracts amount only when the balance covers it.
// The WHERE clause carries the guard, so competing withdrawals serialize
// inside Postgres row locking and at most one can drain the balance.
func (s *PostgresStore) DecreaseIfSufficient(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.mutate(ctx, decreaseBalanceQuery, id, amount, ErrConditionFailed)
}

func (s *PostgresStore) mutate(ctx context.Context, query string, id uuid.UUID, amount decimal.Decimal, noRowErr error) (decimal.Decimal, error) {
	var balanceStr string
	row := s.db.QueryRow(ctx, query, id, amount.StringFixed(2))
	if err := row.Scan(&balanceStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, noRowErr
		}
		return decimal.Zero, fmt.Errorf("update wallet %s: %w", id, err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update wallet %s: parse balance %q: %w", id, balanceStr, err)
	}
	return balance, nil
}
