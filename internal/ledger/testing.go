package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedWallet is a test helper that installs a wallet with the given balance
// when using the in-memory store, returning its identifier.
func SeedWallet(s Store, balance decimal.Decimal) uuid.UUID {
	mem, ok := s.(*memoryStore)
	if !ok {
		return uuid.Nil
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	id := uuid.New()
	mem.wallets[id] = Wallet{UUID: id, Balance: balance.Round(2)}
	return id
}
